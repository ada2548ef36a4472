package interfaces

import (
	"context"
	"time"

	"github.com/chillbuddy/backend-go/internal/models"
)

// ConversationStore 会话持久化接口（仅追加语义：消息入库后不可修改）
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error)
	UpdateConversationStatus(ctx context.Context, conversationID, status string) error

	AppendMessage(ctx context.Context, msg *models.ConversationMessage) error
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*models.ConversationMessage, error)

	CreateEscalation(ctx context.Context, rec *models.EscalationRecord) error
	// RiskDistribution 按风险级别统计用户消息数，用于分析接口
	RiskDistribution(ctx context.Context, userID string, since time.Time) (map[models.RiskLevel]int64, error)
}

// AccessValidator 会话访问校验（身份管理属于外部协作方）
type AccessValidator interface {
	ValidateAccess(ctx context.Context, userID, conversationID string) (bool, error)
}

// Resource 危机支持资源
type Resource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Type    string `json:"type"` // hotline, text_line, emergency, counseling
	Region  string `json:"region,omitempty"`
}

// ResourceDirectory 资源目录：按风险级别与地区返回优先级有序的资源列表
type ResourceDirectory interface {
	ResourcesFor(riskLevel models.RiskLevel, region string) []Resource
	EmergencyContacts(region string) []Resource
}

// ChatTurn 单轮对话
type ChatTurn struct {
	Role    string
	Content string
}

// ChatModel 生成模型客户端（主/备模型共用此接口）
type ChatModel interface {
	Name() string
	Complete(ctx context.Context, turns []ChatTurn, maxTokens int, temperature float64) (string, error)
}

// AuditPublisher 审计事件发布（异步，不参与请求成败）
type AuditPublisher interface {
	PublishMessageEvent(conversationID, userID, role, content string, riskLevel models.RiskLevel) error
	PublishEscalationEvent(rec *models.EscalationRecord) error
}
