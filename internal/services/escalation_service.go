package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/models"
	"github.com/chillbuddy/backend-go/internal/safety"
)

// crisisBody 危机路径的固定回复正文。危机回复绝不走模型生成，
// 仅使用固定文案加资源清单。
const crisisBody = `I'm really concerned about what you're sharing with me right now. ` +
	`Your life has value, and you deserve support from someone who can truly help. ` +
	`Please reach out to one of these crisis services right away — they are free, ` +
	`confidential, and available to listen:`

const crisisClosing = `You don't have to face this alone. If you are in immediate danger, ` +
	`please call emergency services now.`

// EscalationResult 危机处理结果
type EscalationResult struct {
	Body              string                `json:"body"`
	Resources         []interfaces.Resource `json:"resources"`
	EmergencyContacts []interfaces.Resource `json:"emergency_contacts"`
	FollowUpRequired  bool                  `json:"follow_up_required"`
	TriggeredAt       time.Time             `json:"triggered_at"`
}

// CrisisEscalator 将高危评估转换为资源包与升级记录。
// 从不调用回复生成器。
type CrisisEscalator struct {
	directory interfaces.ResourceDirectory
}

// NewCrisisEscalator 创建危机升级处理器
func NewCrisisEscalator(directory interfaces.ResourceDirectory) *CrisisEscalator {
	return &CrisisEscalator{directory: directory}
}

// Escalate 生成危机回复与升级记录载荷。critical 级别标记需要跟进。
func (e *CrisisEscalator) Escalate(assessment safety.Assessment, region string) EscalationResult {
	resources := e.directory.ResourcesFor(assessment.RiskLevel, region)
	contacts := e.directory.EmergencyContacts(region)

	return EscalationResult{
		Body:              buildCrisisMessage(resources),
		Resources:         resources,
		EmergencyContacts: contacts,
		FollowUpRequired:  assessment.RiskLevel == models.RiskLevelCritical,
		TriggeredAt:       time.Now(),
	}
}

// Record 构造与触发消息一对一的升级记录
func (e *CrisisEscalator) Record(assessment safety.Assessment, result EscalationResult, message *models.ConversationMessage) *models.EscalationRecord {
	return &models.EscalationRecord{
		ID:                models.GenerateID("esc_"),
		MessageID:         message.ID,
		ConversationID:    message.ConversationID,
		UserID:            message.UserID,
		RiskLevel:         assessment.RiskLevel,
		MatchedKeywords:   models.ToJSON(assessment.MatchedKeywords),
		Resources:         models.ToJSON(result.Resources),
		EmergencyContacts: models.ToJSON(result.EmergencyContacts),
		FollowUpRequired:  result.FollowUpRequired,
		TriggeredAt:       result.TriggeredAt,
	}
}

// buildCrisisMessage 固定文案 + 按优先级排序的资源清单
func buildCrisisMessage(resources []interfaces.Resource) string {
	var sb strings.Builder
	sb.WriteString(crisisBody)
	sb.WriteString("\n\n")
	for _, r := range resources {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", r.Name, r.Contact))
	}
	sb.WriteString("\n")
	sb.WriteString(crisisClosing)
	return sb.String()
}
