package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/safety"
)

// AdminController 管理操作控制器
type AdminController struct {
	BaseController
	assessor *safety.RiskAssessor
}

// NewAdminController 创建管理控制器
func NewAdminController(assessor *safety.RiskAssessor) *AdminController {
	return &AdminController{assessor: assessor}
}

// ReloadSafetyKeywords 重载风险关键词配置。
// 新集合校验失败时保留旧集合并返回错误，评估器不会处于半更新状态。
func (c *AdminController) ReloadSafetyKeywords() {
	cfg := config.GetAppConfig()
	if cfg == nil || cfg.Safety.KeywordFile == "" {
		c.JSONError(http.StatusBadRequest, "No keyword file configured")
		return
	}

	set, err := safety.LoadKeywordSet(cfg.Safety.KeywordFile)
	if err != nil {
		logger.Error("Keyword reload rejected",
			zap.String("file", cfg.Safety.KeywordFile),
			zap.Error(err))
		c.JSONError(http.StatusUnprocessableEntity, "Keyword file rejected: "+err.Error())
		return
	}

	c.assessor.Reload(set)
	logger.Info("Safety keyword set reloaded",
		zap.String("file", cfg.Safety.KeywordFile),
		zap.Int("keywords", len(set.Keywords)),
		zap.Int("patterns", len(set.Patterns)))

	c.JSONSuccess(map[string]interface{}{
		"reloaded": true,
		"keywords": len(set.Keywords),
		"patterns": len(set.Patterns),
	})
}
