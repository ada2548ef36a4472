package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chillbuddy/backend-go/internal/models"
)

func TestAppendMessage_RejectsInvalidRiskLevel(t *testing.T) {
	repo := NewConversationRepository(nil)

	// 风险级别校验在任何SQL之前执行
	err := repo.AppendMessage(context.Background(), &models.ConversationMessage{
		ID:             "msg_1",
		ConversationID: "conv_1",
		Role:           models.MessageRoleUser,
		Content:        "hello",
		RiskLevel:      models.RiskLevel("unknown"),
	})
	assert.ErrorContains(t, err, "invalid risk level")

	err = repo.AppendMessage(context.Background(), &models.ConversationMessage{
		ID:             "msg_2",
		ConversationID: "conv_1",
		Role:           models.MessageRoleUser,
		Content:        "hello",
	})
	assert.ErrorContains(t, err, "invalid risk level")
}

func TestUpdateConversationStatus_RejectsUnknownStatus(t *testing.T) {
	repo := NewConversationRepository(nil)

	err := repo.UpdateConversationStatus(context.Background(), "conv_1", "paused")
	assert.ErrorContains(t, err, "invalid conversation status")
}
