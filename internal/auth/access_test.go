package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/chillbuddy/backend-go/internal/models"
)

// fakeStore 只实现访问校验需要的查询
type fakeStore struct {
	conv *models.Conversation
	err  error
}

func (f *fakeStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return nil
}

func (f *fakeStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return f.conv, f.err
}

func (f *fakeStore) ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	return nil, nil
}

func (f *fakeStore) UpdateConversationStatus(ctx context.Context, conversationID, status string) error {
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	return nil
}

func (f *fakeStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*models.ConversationMessage, error) {
	return nil, nil
}

func (f *fakeStore) CreateEscalation(ctx context.Context, rec *models.EscalationRecord) error {
	return nil
}

func (f *fakeStore) RiskDistribution(ctx context.Context, userID string, since time.Time) (map[models.RiskLevel]int64, error) {
	return nil, nil
}

func TestValidateAccess_Owner(t *testing.T) {
	validator := NewAccessValidator(&fakeStore{
		conv: &models.Conversation{ID: "conv_1", UserID: "user_1"},
	})

	ok, err := validator.ValidateAccess(context.Background(), "user_1", "conv_1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateAccess_NotOwner(t *testing.T) {
	validator := NewAccessValidator(&fakeStore{
		conv: &models.Conversation{ID: "conv_1", UserID: "user_1"},
	})

	ok, err := validator.ValidateAccess(context.Background(), "user_2", "conv_1")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateAccess_ConversationMissing(t *testing.T) {
	validator := NewAccessValidator(&fakeStore{err: gorm.ErrRecordNotFound})

	// 会话不存在按无权限处理，不是错误
	ok, err := validator.ValidateAccess(context.Background(), "user_1", "conv_x")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateAccess_StoreError(t *testing.T) {
	validator := NewAccessValidator(&fakeStore{err: errors.New("connection refused")})

	_, err := validator.ValidateAccess(context.Background(), "user_1", "conv_1")
	assert.Error(t, err)
}
