package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/logger"
)

// 回复来源
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
	SourceTemplate = "template"
)

// 各来源的固定置信度
const (
	confidencePrimary  = 0.8
	confidenceFallback = 0.5
	confidenceTemplate = 0.3
)

// GenerationResult 回复生成结果
type GenerationResult struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
}

// stageOutcome 单级生成的结果，驱动降级决策
type stageOutcome struct {
	content string
	err     error
}

func (o stageOutcome) usable() bool {
	return o.err == nil && o.content != ""
}

// ResponseGenerator 回复生成降级链：主模型 → 备用模型 → 模板池。
// 主模型经熔断器保护；任一级失败或产出过短都降级到下一级，模板池必定产出。
type ResponseGenerator struct {
	primary    interfaces.ChatModel
	secondary  interfaces.ChatModel
	templates  *TemplatePool
	normalizer *Normalizer
	breaker    *CircuitBreaker
	minViable  int
	maxTokens  int
	temp       float64
	timeout    time.Duration
}

// NewResponseGenerator 创建回复生成器。primary/secondary 可为 nil，对应级直接跳过。
func NewResponseGenerator(primary, secondary interfaces.ChatModel, aiCfg config.AIConfig, chatCfg config.ChatConfig) *ResponseGenerator {
	return &ResponseGenerator{
		primary:    primary,
		secondary:  secondary,
		templates:  NewTemplatePool(),
		normalizer: NewNormalizer(chatCfg),
		breaker:    NewCircuitBreaker("primary-model", 5, 2, 30*time.Second),
		minViable:  chatCfg.MinViableChars,
		maxTokens:  aiCfg.MaxTokens,
		temp:       aiCfg.Temperature,
		timeout:    time.Duration(aiCfg.TimeoutSeconds) * time.Second,
	}
}

// Generate 为用户消息生成回复。turns 为已组装好的模型上下文（含当前消息）。
// 永不返回错误：最坏情况从模板池产出。
func (g *ResponseGenerator) Generate(ctx context.Context, userMessage string, turns []interfaces.ChatTurn) GenerationResult {
	if outcome := g.tryPrimary(ctx, turns); outcome.usable() {
		return GenerationResult{
			Content:    outcome.content,
			Source:     SourcePrimary,
			Confidence: confidencePrimary,
			Model:      g.primary.Name(),
		}
	}

	if outcome := g.trySecondary(ctx, turns); outcome.usable() {
		return GenerationResult{
			Content:    outcome.content,
			Source:     SourceFallback,
			Confidence: confidenceFallback,
			Model:      g.secondary.Name(),
		}
	}

	category := g.templates.Categorize(userMessage)
	content := g.templates.Pick(category, userMessage)
	logger.Info("Response served from template pool",
		zap.String("category", category))
	return GenerationResult{
		Content:    content,
		Source:     SourceTemplate,
		Confidence: confidenceTemplate,
	}
}

// tryPrimary 主模型调用，熔断器打开时立即降级
func (g *ResponseGenerator) tryPrimary(ctx context.Context, turns []interfaces.ChatTurn) stageOutcome {
	if g.primary == nil {
		return stageOutcome{err: fmt.Errorf("primary model not configured")}
	}

	var content string
	err := g.breaker.Call(func() error {
		var callErr error
		content, callErr = g.callModel(ctx, g.primary, turns)
		return callErr
	})
	if err != nil {
		logger.Warn("Primary model stage failed, falling back",
			zap.String("model", g.primary.Name()),
			zap.Error(err))
		return stageOutcome{err: err}
	}
	return stageOutcome{content: content}
}

func (g *ResponseGenerator) trySecondary(ctx context.Context, turns []interfaces.ChatTurn) stageOutcome {
	if g.secondary == nil {
		return stageOutcome{err: fmt.Errorf("secondary model not configured")}
	}

	content, err := g.callModel(ctx, g.secondary, turns)
	if err != nil {
		logger.Warn("Secondary model stage failed, falling back to templates",
			zap.String("model", g.secondary.Name()),
			zap.Error(err))
		return stageOutcome{err: err}
	}
	return stageOutcome{content: content}
}

// callModel 调用模型并规范化输出，产出过短视为失败
func (g *ResponseGenerator) callModel(ctx context.Context, model interfaces.ChatModel, turns []interfaces.ChatTurn) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := model.Complete(callCtx, turns, g.maxTokens, g.temp)
	if err != nil {
		return "", err
	}

	normalized := g.normalizer.Normalize(raw)
	if len(strings.TrimSpace(normalized)) < g.minViable {
		return "", fmt.Errorf("model %s returned non-viable output (%d chars)", model.Name(), len(normalized))
	}
	return normalized, nil
}
