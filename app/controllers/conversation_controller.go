package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/services"
)

// ConversationController 会话控制器
type ConversationController struct {
	BaseController
	convService *services.ConversationService
}

// NewConversationController 创建会话控制器
func NewConversationController(convService *services.ConversationService) *ConversationController {
	return &ConversationController{
		convService: convService,
	}
}

// createConversationRequest 创建会话请求体
type createConversationRequest struct {
	Title string `json:"title"`
}

// sendMessageRequest 发送消息请求体
type sendMessageRequest struct {
	Content string `json:"content"`
}

// Create 创建会话
func (c *ConversationController) Create() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	var req createConversationRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := c.convService.StartConversation(c.Ctx.Request.Context(), userID, req.Title)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(conv)
}

// List 列出用户会话
func (c *ConversationController) List() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.GetString("limit", "50"))

	convs, err := c.convService.ListConversations(c.Ctx.Request.Context(), userID, limit)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"conversations": convs,
		"total":         len(convs),
	})
}

// SendMessage 发送消息并获取回复
func (c *ConversationController) SendMessage() {
	userID, region, ok := c.authenticatedUser()
	if !ok {
		return
	}

	conversationID := c.Ctx.Input.Param(":id")

	var req sendMessageRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := c.convService.SendMessage(c.Ctx.Request.Context(), services.SendMessageInput{
		UserID:         userID,
		ConversationID: conversationID,
		Content:        req.Content,
		Region:         region,
	})
	if err != nil {
		c.JSONAppError(err)
		return
	}

	if result.Crisis {
		logger.Warn("Crisis response delivered",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
			zap.String("client_ip", c.getClientIP()))
	}

	c.JSONSuccess(result)
}

// GetHistory 获取会话历史
func (c *ConversationController) GetHistory() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	conversationID := c.Ctx.Input.Param(":id")
	limit, _ := strconv.Atoi(c.GetString("limit", "50"))

	messages, err := c.convService.GetHistory(c.Ctx.Request.Context(), userID, conversationID, limit)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
		"total":           len(messages),
	})
}

// Archive 归档会话
func (c *ConversationController) Archive() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	conversationID := c.Ctx.Input.Param(":id")
	if err := c.convService.ArchiveConversation(c.Ctx.Request.Context(), userID, conversationID); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"conversation_id": conversationID, "status": "archived"})
}

// Delete 软删除会话
func (c *ConversationController) Delete() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	conversationID := c.Ctx.Input.Param(":id")
	if err := c.convService.DeleteConversation(c.Ctx.Request.Context(), userID, conversationID); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"conversation_id": conversationID, "status": "deleted"})
}

// Analytics 用户消息风险分布统计
func (c *ConversationController) Analytics() {
	userID, _, ok := c.authenticatedUser()
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.GetString("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	analytics, err := c.convService.GetConversationAnalytics(c.Ctx.Request.Context(), userID, since)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(analytics)
}
