package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/models"
	"gorm.io/gorm"
)

// conversationRepository 会话仓库实现
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *gorm.DB) interfaces.ConversationStore {
	return &conversationRepository{db: db}
}

// CreateConversation 创建会话
func (r *conversationRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = now
	}
	if conv.Status == "" {
		conv.Status = models.ConversationStatusActive
	}
	return r.db.WithContext(ctx).Create(conv).Error
}

// GetConversation 根据ID获取会话
func (r *conversationRepository) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations 获取用户会话列表，按最近更新排序
func (r *conversationRepository) ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// UpdateConversationStatus 更新会话状态。deleted为终态，不允许再变更。
func (r *conversationRepository) UpdateConversationStatus(ctx context.Context, conversationID, status string) error {
	switch status {
	case models.ConversationStatusActive, models.ConversationStatusArchived, models.ConversationStatusDeleted:
	default:
		return fmt.Errorf("invalid conversation status: %s", status)
	}

	result := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND status <> ?", conversationID, models.ConversationStatusDeleted).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendMessage 追加消息并推进会话的updated_at。消息入库后不再修改。
// 每条落库消息必须携带合法的风险级别。
func (r *conversationRepository) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	if !msg.RiskLevel.Valid() {
		return fmt.Errorf("invalid risk level: %q", msg.RiskLevel)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		// updated_at只向前推进，保持单调不减
		return tx.Model(&models.Conversation{}).
			Where("id = ? AND updated_at < ?", msg.ConversationID, msg.CreatedAt).
			Update("updated_at", msg.CreatedAt).Error
	})
}

// GetRecentMessages 获取最近的消息，按创建时间升序返回，时间相同按插入序号
func (r *conversationRepository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*models.ConversationMessage, error) {
	var messages []*models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// 反转为时间升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CreateEscalation 写入危机升级记录
func (r *conversationRepository) CreateEscalation(ctx context.Context, rec *models.EscalationRecord) error {
	if rec.TriggeredAt.IsZero() {
		rec.TriggeredAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// RiskDistribution 统计用户消息的风险级别分布
func (r *conversationRepository) RiskDistribution(ctx context.Context, userID string, since time.Time) (map[models.RiskLevel]int64, error) {
	type row struct {
		RiskLevel models.RiskLevel
		Count     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.ConversationMessage{}).
		Select("risk_level, COUNT(*) as count").
		Where("user_id = ? AND role = ? AND created_at >= ?", userID, models.MessageRoleUser, since).
		Group("risk_level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dist := make(map[models.RiskLevel]int64, len(rows))
	for _, r := range rows {
		dist[r.RiskLevel] = r.Count
	}
	return dist, nil
}
