package main

import (
	"log"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/app/bootstrap"
	"github.com/chillbuddy/backend-go/app/router"
	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/logger"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()
	bootstrap.SetGlobalApp(app)

	if err := router.Init(); err != nil {
		log.Fatalf("failed to register routes: %v", err)
	}

	// 配置Beego全局设置
	web.BConfig.AppName = "ChillBuddy Conversation Service"
	web.BConfig.CopyRequestBody = true

	if p, err := strconv.Atoi(config.GetAppConfig().Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	}

	logger.Info("🚀 Starting ChillBuddy Conversation Service",
		zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
