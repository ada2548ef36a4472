package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chillbuddy/backend-go/internal/models"
	"github.com/chillbuddy/backend-go/internal/resources"
	"github.com/chillbuddy/backend-go/internal/safety"
)

func TestEscalate_CriticalRequiresFollowUp(t *testing.T) {
	e := NewCrisisEscalator(resources.NewDirectory())

	result := e.Escalate(safety.Assessment{
		RiskLevel:       models.RiskLevelCritical,
		Confidence:      0.9,
		MatchedKeywords: []string{"kill myself"},
	}, "za")

	assert.True(t, result.FollowUpRequired)
	assert.False(t, result.TriggeredAt.IsZero())
	require.NotEmpty(t, result.Resources)
	require.NotEmpty(t, result.EmergencyContacts)

	// 固定文案包含资源清单，每条资源一行
	assert.Contains(t, result.Body, "I'm really concerned")
	assert.Contains(t, result.Body, "• South African Depression and Anxiety Group: 0800 567 567")
	assert.Contains(t, result.Body, "You don't have to face this alone")
}

func TestEscalate_HighRiskNoFollowUp(t *testing.T) {
	e := NewCrisisEscalator(resources.NewDirectory())

	result := e.Escalate(safety.Assessment{
		RiskLevel:  models.RiskLevelHigh,
		Confidence: 0.7,
	}, "us")

	assert.False(t, result.FollowUpRequired)
	assert.Contains(t, result.Body, "988")
}

func TestRecord_LinksToTriggeringMessage(t *testing.T) {
	e := NewCrisisEscalator(resources.NewDirectory())

	assessment := safety.Assessment{
		RiskLevel:       models.RiskLevelCritical,
		Confidence:      0.9,
		MatchedKeywords: []string{"suicide"},
	}
	result := e.Escalate(assessment, "za")

	msg := &models.ConversationMessage{
		ID:             "msg_123",
		ConversationID: "conv_456",
		UserID:         "user_789",
	}
	record := e.Record(assessment, result, msg)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "msg_123", record.MessageID)
	assert.Equal(t, "conv_456", record.ConversationID)
	assert.Equal(t, "user_789", record.UserID)
	assert.Equal(t, models.RiskLevelCritical, record.RiskLevel)
	assert.True(t, record.FollowUpRequired)
	assert.WithinDuration(t, time.Now(), record.TriggeredAt, time.Minute)

	// 匹配关键词与资源序列化为JSON落库
	assert.Contains(t, record.MatchedKeywords, "suicide")
	assert.Contains(t, record.Resources, "0800 567 567")
	assert.Contains(t, record.EmergencyContacts, "Emergency Services")
}
