package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/models"
)

const historyCachePrefix = "chat:history:"

const systemPrompt = `You are ChillBuddy, a warm and supportive mental health companion. ` +
	`Listen carefully, validate the user's feelings, and respond with empathy in plain language. ` +
	`Keep responses short and conversational. Never give medical diagnoses or medication advice. ` +
	`If the user mentions self-harm or suicide, gently encourage them to contact a crisis line.`

// cachedHistory redis缓存的会话历史条目
type cachedHistory struct {
	Messages []cachedMessage `json:"messages"`
	CachedAt int64           `json:"cached_at"`
}

type cachedMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// ConversationContext 模型输入及其元信息
type ConversationContext struct {
	Turns             []interfaces.ChatTurn `json:"turns"`
	HistoryLength     int                   `json:"history_length"`
	LastInteractionAt time.Time             `json:"last_interaction_at"`
}

// ContextBuilder 组装送往模型的对话上下文：系统提示词 + 最近K轮问答 + 当前消息。
// 最近历史优先读redis缓存，redis不可用时降级到进程内LRU缓存，最后回源数据库。
type ContextBuilder struct {
	store       interfaces.ConversationStore
	redisClient *redis.Client
	local       *lru.Cache
	limit       int
	pairs       int
	ttl         time.Duration
}

// NewContextBuilder 创建上下文组装器。redisClient 可为 nil（仅用本地缓存）。
func NewContextBuilder(store interfaces.ConversationStore, redisClient *redis.Client, cfg config.ChatConfig) (*ContextBuilder, error) {
	local, err := lru.New(cfg.HistoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}
	return &ContextBuilder{
		store:       store,
		redisClient: redisClient,
		local:       local,
		limit:       cfg.HistoryLimit,
		pairs:       cfg.ContextPairs,
		ttl:         time.Duration(cfg.HistoryCacheTTL) * time.Second,
	}, nil
}

// Build 组装模型输入。当前用户消息独立传入，不依赖其是否已落库。
func (b *ContextBuilder) Build(ctx context.Context, conversationID, userMessage string) ConversationContext {
	turns := []interfaces.ChatTurn{
		{Role: "system", Content: systemPrompt},
	}

	history := b.recentHistory(ctx, conversationID)
	turns = append(turns, lastPairs(history, b.pairs)...)
	turns = append(turns, interfaces.ChatTurn{Role: "user", Content: userMessage})

	out := ConversationContext{
		Turns:         turns,
		HistoryLength: len(history),
	}
	if len(history) > 0 {
		out.LastInteractionAt = time.Unix(history[len(history)-1].CreatedAt, 0)
	}
	return out
}

// Invalidate 新消息落库后使缓存失效
func (b *ContextBuilder) Invalidate(ctx context.Context, conversationID string) {
	b.local.Remove(conversationID)
	if b.redisClient == nil {
		return
	}
	if err := b.redisClient.Del(ctx, historyCachePrefix+conversationID).Err(); err != nil {
		logger.Debug(fmt.Sprintf("Failed to invalidate history cache for %s: %v", conversationID, err))
	}
}

// recentHistory 读取最近历史：redis → 本地LRU → 数据库。
// 任何缓存层失败都静默回源，不影响请求。
func (b *ContextBuilder) recentHistory(ctx context.Context, conversationID string) []cachedMessage {
	if cached := b.fromRedis(ctx, conversationID); cached != nil {
		return cached
	}
	if v, ok := b.local.Get(conversationID); ok {
		if entry, ok := v.(*cachedHistory); ok && time.Now().Unix()-entry.CachedAt < int64(b.ttl.Seconds()) {
			return entry.Messages
		}
	}

	messages, err := b.store.GetRecentMessages(ctx, conversationID, b.limit)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to load recent messages for %s: %v", conversationID, err))
		return nil
	}

	entry := &cachedHistory{CachedAt: time.Now().Unix()}
	for _, m := range messages {
		entry.Messages = append(entry.Messages, cachedMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Unix(),
		})
	}

	b.local.Add(conversationID, entry)
	b.toRedis(ctx, conversationID, entry)
	return entry.Messages
}

func (b *ContextBuilder) fromRedis(ctx context.Context, conversationID string) []cachedMessage {
	if b.redisClient == nil {
		return nil
	}
	data, err := b.redisClient.Get(ctx, historyCachePrefix+conversationID).Bytes()
	if err != nil {
		return nil
	}
	var entry cachedHistory
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if entry.Messages == nil {
		return []cachedMessage{}
	}
	return entry.Messages
}

func (b *ContextBuilder) toRedis(ctx context.Context, conversationID string, entry *cachedHistory) {
	if b.redisClient == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := b.redisClient.Set(ctx, historyCachePrefix+conversationID, data, b.ttl).Err(); err != nil {
		logger.Debug(fmt.Sprintf("Failed to cache history for %s: %v", conversationID, err))
	}
}

// lastPairs 取最近K轮用户/助手问答对，按时间顺序返回
func lastPairs(history []cachedMessage, pairs int) []interfaces.ChatTurn {
	if pairs <= 0 || len(history) == 0 {
		return nil
	}

	var turns []interfaces.ChatTurn
	userSeen := 0
	// 从最新往回扫，凑够K个用户消息为止
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.MessageRoleUser {
			userSeen++
		}
		start = i
		if userSeen == pairs {
			break
		}
	}

	for _, m := range history[start:] {
		role := "assistant"
		if m.Role == models.MessageRoleUser {
			role = "user"
		}
		turns = append(turns, interfaces.ChatTurn{Role: role, Content: m.Content})
	}
	return turns
}
