package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/chillbuddy/backend-go/app/bootstrap"
	"github.com/chillbuddy/backend-go/internal/database"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSONSuccess(map[string]string{"message": "ChillBuddy Conversation API"})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

// Health 基础存活检查
func (c *HealthController) Health() {
	c.JSONSuccess(map[string]string{"status": "healthy"})
}

// Readiness 就绪检查：数据库必须可达，Redis可降级
func (c *HealthController) Readiness() {
	ctx, cancel := context.WithTimeout(c.Ctx.Request.Context(), 2*time.Second)
	defer cancel()

	components := map[string]interface{}{}
	healthy := true

	// 优先使用后台检查器的缓存状态，未运行时直接ping
	if app := bootstrap.GetApp(); app != nil && app.HealthChecker() != nil {
		result := app.HealthChecker().GetHealthResult()
		components["database"] = result
		healthy = result.Healthy
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		components["database"] = "unavailable"
		healthy = false
	} else {
		components["database"] = "ok"
	}

	if database.RedisClient == nil || database.RedisClient.Ping(ctx).Err() != nil {
		components["redis"] = "degraded"
	} else {
		components["redis"] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"success":    false,
			"status":     "unhealthy",
			"components": components,
		})
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"status":     "ready",
		"components": components,
	})
}
