package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/chillbuddy/backend-go/app/controllers"
	"github.com/chillbuddy/backend-go/internal/auth"
	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/di"
)

// Init registers all routes. Must be called after config is loaded and
// the DI container is populated.
func Init() error {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/health/ready", &controllers.HealthController{}, "get:Readiness")

	// Controllers authenticate requests through the shared JWT service.
	if err := di.Invoke(func(svc *auth.JWTService) {
		controllers.SetJWTService(svc)
	}); err != nil {
		return err
	}

	factory := controllers.NewControllerFactory(di.GetContainer())

	conversationController, err := factory.CreateConversationController()
	if err != nil {
		return err
	}
	web.Router("/api/conversations", conversationController, "get:List;post:Create")
	web.Router("/api/conversations/analytics", conversationController, "get:Analytics")
	// 注意：具体路由必须在参数路由之前注册
	web.Router("/api/conversations/:id", conversationController, "delete:Delete")
	web.Router("/api/conversations/:id/messages", conversationController, "post:SendMessage;get:GetHistory")
	web.Router("/api/conversations/:id/archive", conversationController, "post:Archive")

	adminController, err := factory.CreateAdminController()
	if err != nil {
		return err
	}
	web.Router("/api/admin/safety/reload", adminController, "post:ReloadSafetyKeywords")

	cfg := config.GetAppConfig()
	if cfg != nil && cfg.Prometheus.Enabled {
		web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")
	}

	return nil
}
