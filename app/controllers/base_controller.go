package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/auth"
	"github.com/chillbuddy/backend-go/internal/config"
	apperrors "github.com/chillbuddy/backend-go/internal/errors"
	"github.com/chillbuddy/backend-go/internal/logger"
)

// jwtService 由bootstrap注入，控制器共用
var jwtService *auth.JWTService

// SetJWTService 设置全局JWT服务
func SetJWTService(svc *auth.JWTService) {
	jwtService = svc
}

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// JSONAppError AppError按内置HTTP状态码输出，用户只看到脱敏文案
func (c *BaseController) JSONAppError(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPCode, map[string]interface{}{
			"success": false,
			"error":   appErr.UserMessage(),
			"code":    appErr.Code,
		})
		return
	}
	c.JSONError(http.StatusInternalServerError, "Internal server error")
}

// authenticatedUser 解析请求身份，返回用户ID与地区。
// 生产环境只接受合法JWT；开发环境允许X-User-Id头兜底。
func (c *BaseController) authenticatedUser() (userID, region string, ok bool) {
	authHeader := c.Ctx.Input.Header("Authorization")
	if authHeader != "" && jwtService != nil {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			claims, err := jwtService.ValidateToken(parts[1])
			if err == nil {
				return claims.UserID, claims.Region, true
			}
			logger.Debug("JWT validation failed", zap.Error(err))
		}
	}

	cfg := config.GetAppConfig()
	if cfg != nil && cfg.Server.Env == "production" {
		c.JSONError(http.StatusUnauthorized, "Authentication required")
		return "", "", false
	}

	// 开发/测试环境兜底
	if headerID := c.Ctx.Input.Header("X-User-Id"); headerID != "" {
		return headerID, c.Ctx.Input.Header("X-Region"), true
	}
	if paramID := c.GetString("user_id"); paramID != "" {
		return paramID, c.GetString("region"), true
	}

	c.JSONError(http.StatusUnauthorized, "Authentication required")
	return "", "", false
}

// getClientIP 获取客户端真实IP地址
func (c *BaseController) getClientIP() string {
	if xff := c.Ctx.Input.Header("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := c.Ctx.Input.Header("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.Ctx.Input.IP()
}
