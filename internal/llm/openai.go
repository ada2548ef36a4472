package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIModel 主生成模型（OpenAI兼容接口）
type OpenAIModel struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIModel 创建主模型客户端。baseURL为空时使用官方端点。
func NewOpenAIModel(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIModel, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIModel{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Name 模型标识
func (m *OpenAIModel) Name() string {
	return m.model
}

// Complete 生成回复。超时由内部deadline兜底，调用方也可以通过ctx提前取消。
func (m *OpenAIModel) Complete(ctx context.Context, turns []interfaces.ChatTurn, maxTokens int, temperature float64) (string, error) {
	if m == nil || m.client == nil {
		return "", fmt.Errorf("openai model not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" || turn.Role == "system" {
			role = turn.Role
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from model %s", m.model)
	}

	logger.Debug("Primary model completion",
		zap.String("model", m.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
