package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chillbuddy/backend-go/internal/models"
)

func newTestBuilder(t *testing.T, store *MockConversationStore, pairs int) *ContextBuilder {
	cfg := testChatConfig()
	cfg.ContextPairs = pairs
	builder, err := NewContextBuilder(store, nil, cfg)
	require.NoError(t, err)
	return builder
}

func historyMessages(entries ...[2]string) []*models.ConversationMessage {
	base := time.Now().Add(-time.Hour)
	var out []*models.ConversationMessage
	for i, e := range entries {
		out = append(out, &models.ConversationMessage{
			Role:      e[0],
			Content:   e[1],
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestBuild_SystemPromptFirstUserLast(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return([]*models.ConversationMessage{}, nil)

	builder := newTestBuilder(t, store, 2)
	bctx := builder.Build(context.Background(), "conv_1", "hello there")

	require.Len(t, bctx.Turns, 2)
	assert.Equal(t, "system", bctx.Turns[0].Role)
	assert.Contains(t, bctx.Turns[0].Content, "ChillBuddy")
	assert.Equal(t, "user", bctx.Turns[1].Role)
	assert.Equal(t, "hello there", bctx.Turns[1].Content)
	assert.Zero(t, bctx.HistoryLength)
	assert.True(t, bctx.LastInteractionAt.IsZero())
}

func TestBuild_IncludesRecentPairs(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return(historyMessages(
		[2]string{models.MessageRoleUser, "first question"},
		[2]string{models.MessageRoleSystem, "first answer"},
		[2]string{models.MessageRoleUser, "second question"},
		[2]string{models.MessageRoleSystem, "second answer"},
		[2]string{models.MessageRoleUser, "third question"},
		[2]string{models.MessageRoleSystem, "third answer"},
	), nil)

	builder := newTestBuilder(t, store, 2)
	bctx := builder.Build(context.Background(), "conv_1", "current message")

	// system + 最近2轮问答 + 当前消息
	require.Len(t, bctx.Turns, 6)
	assert.Equal(t, "user", bctx.Turns[1].Role)
	assert.Equal(t, "second question", bctx.Turns[1].Content)
	assert.Equal(t, "assistant", bctx.Turns[2].Role)
	assert.Equal(t, "second answer", bctx.Turns[2].Content)
	assert.Equal(t, "third question", bctx.Turns[3].Content)
	assert.Equal(t, "third answer", bctx.Turns[4].Content)
	assert.Equal(t, "current message", bctx.Turns[5].Content)
}

func TestBuild_CarriesHistoryMetadata(t *testing.T) {
	history := historyMessages(
		[2]string{models.MessageRoleUser, "hi"},
		[2]string{models.MessageRoleSystem, "hello"},
		[2]string{models.MessageRoleUser, "still there?"},
	)
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return(history, nil)

	builder := newTestBuilder(t, store, 2)
	bctx := builder.Build(context.Background(), "conv_1", "yes")

	// 上下文携带历史长度与最后一条消息的时间
	assert.Equal(t, 3, bctx.HistoryLength)
	last := history[len(history)-1].CreatedAt
	assert.WithinDuration(t, last, bctx.LastInteractionAt, time.Second)
}

func TestBuild_BotRoleMappedToAssistant(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return(historyMessages(
		[2]string{models.MessageRoleUser, "hi"},
		[2]string{models.MessageRoleSystem, "hello, how are you feeling?"},
	), nil)

	builder := newTestBuilder(t, store, 4)
	bctx := builder.Build(context.Background(), "conv_1", "not great")

	require.Len(t, bctx.Turns, 4)
	assert.Equal(t, "assistant", bctx.Turns[2].Role)
}

func TestBuild_StoreFailureDegradesToNoHistory(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return(nil, assert.AnError)

	builder := newTestBuilder(t, store, 2)
	bctx := builder.Build(context.Background(), "conv_1", "hello")

	require.Len(t, bctx.Turns, 2)
	assert.Equal(t, "user", bctx.Turns[1].Role)
	assert.Zero(t, bctx.HistoryLength)
}

func TestBuild_CachesHistoryLocally(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return(historyMessages(
		[2]string{models.MessageRoleUser, "hi"},
		[2]string{models.MessageRoleSystem, "hello"},
	), nil).Once()

	builder := newTestBuilder(t, store, 2)
	builder.Build(context.Background(), "conv_1", "first")
	// 第二次命中本地缓存，不再回源
	builder.Build(context.Background(), "conv_1", "second")

	store.AssertNumberOfCalls(t, "GetRecentMessages", 1)
}

func TestInvalidate_DropsLocalCache(t *testing.T) {
	store := new(MockConversationStore)
	store.On("GetRecentMessages", mock.Anything, "conv_1", 10).Return([]*models.ConversationMessage{}, nil)

	builder := newTestBuilder(t, store, 2)
	builder.Build(context.Background(), "conv_1", "first")
	builder.Invalidate(context.Background(), "conv_1")
	builder.Build(context.Background(), "conv_1", "second")

	store.AssertNumberOfCalls(t, "GetRecentMessages", 2)
}
