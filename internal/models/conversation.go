package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 会话状态
const (
	ConversationStatusActive   = "active"
	ConversationStatusArchived = "archived"
	// ConversationStatusDeleted 软删除，记录保留用于审计
	ConversationStatusDeleted = "deleted"
)

// 消息角色
const (
	MessageRoleUser   = "user"
	MessageRoleSystem = "system"
)

// Conversation 会话表
type Conversation struct {
	ID        string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	UserID    string    `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;size:255" json:"title"`
	Status    string    `gorm:"column:status;size:20;not null;default:active" json:"status"`
	Metadata  string    `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMessage 消息表（仅追加，入库后不可变）
type ConversationMessage struct {
	ID             string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;size:64;not null;index" json:"conversation_id"`
	UserID         string    `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Role           string    `gorm:"column:role;size:20;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	RiskLevel      RiskLevel `gorm:"column:risk_level;size:20;not null" json:"risk_level"`
	// Metadata 包含matched_keywords与confidence等评估信息
	Metadata  string    `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
	// Seq 插入序号，created_at相同时用于决定顺序
	Seq int64 `gorm:"column:seq;autoIncrement;uniqueIndex" json:"seq"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// EscalationRecord 危机升级记录，与触发消息一对一
type EscalationRecord struct {
	ID              string    `gorm:"primaryKey;column:id;size:64" json:"id"`
	MessageID       string    `gorm:"column:message_id;size:64;not null;uniqueIndex" json:"message_id"`
	ConversationID  string    `gorm:"column:conversation_id;size:64;not null;index" json:"conversation_id"`
	UserID          string    `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	RiskLevel       RiskLevel `gorm:"column:risk_level;size:20;not null" json:"risk_level"`
	MatchedKeywords string    `gorm:"type:jsonb;column:matched_keywords" json:"matched_keywords"`
	Resources       string    `gorm:"type:jsonb;column:resources" json:"resources"`
	EmergencyContacts string  `gorm:"type:jsonb;column:emergency_contacts" json:"emergency_contacts"`
	FollowUpRequired  bool    `gorm:"column:follow_up_required;default:false" json:"follow_up_required"`
	TriggeredAt       time.Time `gorm:"column:triggered_at;not null;index" json:"triggered_at"`
}

func (EscalationRecord) TableName() string {
	return "escalation_records"
}

// GenerateID 生成带前缀的唯一标识，如 conv_xxx、msg_xxx
func GenerateID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ToJSON 序列化为jsonb列存储的字符串，失败时返回空对象
func ToJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
