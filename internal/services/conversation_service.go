package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/config"
	apperrors "github.com/chillbuddy/backend-go/internal/errors"
	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/models"
	"github.com/chillbuddy/backend-go/internal/safety"
)

// SendMessageInput 发送消息请求
type SendMessageInput struct {
	UserID         string
	ConversationID string
	Content        string
	Region         string
}

// SendMessageResult 消息处理结构化结果
type SendMessageResult struct {
	Success           bool                  `json:"success"`
	Text              string                `json:"text"`
	RiskLevel         models.RiskLevel      `json:"risk_level"`
	Crisis            bool                  `json:"crisis"`
	Resources         []interfaces.Resource `json:"resources,omitempty"`
	EmergencyContacts []interfaces.Resource `json:"emergency_contacts,omitempty"`
	Source            string                `json:"source"`
	Confidence        float64               `json:"confidence"`
	MessageID         string                `json:"message_id"`
	Timestamp         time.Time             `json:"timestamp"`
}

// ConversationAnalytics 用户会话分析
type ConversationAnalytics struct {
	UserID           string                     `json:"user_id"`
	Since            time.Time                  `json:"since"`
	RiskDistribution map[models.RiskLevel]int64 `json:"risk_distribution"`
	TotalMessages    int64                      `json:"total_messages"`
	CrisisMessages   int64                      `json:"crisis_messages"`
}

// ConversationService 会话管线编排器：
// 接收 → 风险评估 → 落库用户消息 → {危机路径 | 生成路径} → 落库回复 → 返回结构化结果。
// 用户消息落库失败视为致命错误；回复消息落库尽力而为，失败不阻塞返回。
type ConversationService struct {
	store     interfaces.ConversationStore
	access    interfaces.AccessValidator
	assessor  *safety.RiskAssessor
	builder   *ContextBuilder
	generator *ResponseGenerator
	escalator *CrisisEscalator
	audit     interfaces.AuditPublisher
	metrics   *MetricsService
	chatCfg   config.ChatConfig
}

// NewConversationService 创建会话服务
func NewConversationService(
	store interfaces.ConversationStore,
	access interfaces.AccessValidator,
	assessor *safety.RiskAssessor,
	builder *ContextBuilder,
	generator *ResponseGenerator,
	escalator *CrisisEscalator,
	audit interfaces.AuditPublisher,
	metrics *MetricsService,
	chatCfg config.ChatConfig,
) *ConversationService {
	return &ConversationService{
		store:     store,
		access:    access,
		assessor:  assessor,
		builder:   builder,
		generator: generator,
		escalator: escalator,
		audit:     audit,
		metrics:   metrics,
		chatCfg:   chatCfg,
	}
}

// StartConversation 创建新会话
func (s *ConversationService) StartConversation(ctx context.Context, userID, title string) (*models.Conversation, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if title == "" {
		title = "New conversation"
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        models.GenerateID("conv_"),
		UserID:    userID,
		Title:     title,
		Status:    models.ConversationStatusActive,
		Metadata:  "{}",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, apperrors.NewPersistenceError("failed to create conversation", err)
	}

	logger.Info("Conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID))
	return conv, nil
}

// SendMessage 处理一条入站用户消息，返回回复与风险信息
func (s *ConversationService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if appErr := ValidateMessage(input.Content, s.chatCfg.MaxMessageLength); appErr != nil {
		return nil, appErr
	}

	if err := s.checkAccess(ctx, input.UserID, input.ConversationID); err != nil {
		return nil, err
	}

	// 风险评估先于一切落库与生成
	assessStart := time.Now()
	assessment := s.assessor.Assess(input.Content)
	if s.metrics != nil {
		s.metrics.RecordAssessment(time.Since(assessStart))
		s.metrics.RecordMessage(string(assessment.RiskLevel))
	}

	// 用户消息带评估结果立即落库，保证后续步骤失败时审计链完整
	userMsg := &models.ConversationMessage{
		ID:             models.GenerateID("msg_"),
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Role:           models.MessageRoleUser,
		Content:        input.Content,
		RiskLevel:      assessment.RiskLevel,
		Metadata:       assessment.MetadataJSON(),
		CreatedAt:      time.Now(),
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, apperrors.NewPersistenceError("failed to persist user message", err)
	}
	s.builder.Invalidate(ctx, input.ConversationID)
	s.publishMessage(userMsg)

	if assessment.RiskLevel.IsCrisis() {
		return s.handleCrisis(ctx, input, assessment, userMsg)
	}
	return s.handleGeneration(ctx, input, assessment)
}

// handleCrisis 危机路径：固定文案加资源，绝不调用生成器
func (s *ConversationService) handleCrisis(ctx context.Context, input SendMessageInput, assessment safety.Assessment, userMsg *models.ConversationMessage) (*SendMessageResult, error) {
	result := s.escalator.Escalate(assessment, input.Region)

	record := s.escalator.Record(assessment, result, userMsg)
	if err := s.store.CreateEscalation(ctx, record); err != nil {
		// 升级记录失败不阻塞危机回复，但必须留痕
		logger.Error("Failed to persist escalation record",
			zap.String("message_id", userMsg.ID),
			zap.String("risk_level", string(assessment.RiskLevel)),
			zap.Error(err))
	} else if s.audit != nil {
		if err := s.audit.PublishEscalationEvent(record); err != nil {
			logger.Warn("Failed to publish escalation audit event", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordEscalation(string(assessment.RiskLevel))
		s.metrics.RecordResponse("crisis", 0)
	}
	logger.Warn("Crisis escalation triggered",
		zap.String("conversation_id", input.ConversationID),
		zap.String("user_id", input.UserID),
		zap.String("risk_level", string(assessment.RiskLevel)),
		zap.Strings("matched_keywords", assessment.MatchedKeywords))

	botMsg := s.persistBotMessage(ctx, input, result.Body)

	return &SendMessageResult{
		Success:           true,
		Text:              result.Body,
		RiskLevel:         assessment.RiskLevel,
		Crisis:            true,
		Resources:         result.Resources,
		EmergencyContacts: result.EmergencyContacts,
		Source:            "crisis",
		Confidence:        assessment.Confidence,
		MessageID:         botMsg.ID,
		Timestamp:         botMsg.CreatedAt,
	}, nil
}

// handleGeneration 常规路径：上下文组装加降级链生成
func (s *ConversationService) handleGeneration(ctx context.Context, input SendMessageInput, assessment safety.Assessment) (*SendMessageResult, error) {
	convCtx := s.builder.Build(ctx, input.ConversationID, input.Content)
	logger.Debug("Conversation context assembled",
		zap.String("conversation_id", input.ConversationID),
		zap.Int("history_length", convCtx.HistoryLength),
		zap.Time("last_interaction_at", convCtx.LastInteractionAt))

	genStart := time.Now()
	generated := s.generator.Generate(ctx, input.Content, convCtx.Turns)
	if s.metrics != nil {
		s.metrics.RecordResponse(generated.Source, time.Since(genStart))
	}

	botMsg := s.persistBotMessage(ctx, input, generated.Content)

	return &SendMessageResult{
		Success:    true,
		Text:       generated.Content,
		RiskLevel:  assessment.RiskLevel,
		Crisis:     false,
		Source:     generated.Source,
		Confidence: generated.Confidence,
		MessageID:  botMsg.ID,
		Timestamp:  botMsg.CreatedAt,
	}, nil
}

// persistBotMessage 回复落库尽力而为：失败记日志但不影响返回。
// 机器人消息统一标低风险，评估对象始终是用户的发言。
func (s *ConversationService) persistBotMessage(ctx context.Context, input SendMessageInput, content string) *models.ConversationMessage {
	botMsg := &models.ConversationMessage{
		ID:             models.GenerateID("msg_"),
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Role:           models.MessageRoleSystem,
		Content:        content,
		RiskLevel:      models.RiskLevelLow,
		Metadata:       "{}",
		CreatedAt:      time.Now(),
	}
	if err := s.store.AppendMessage(ctx, botMsg); err != nil {
		logger.Error("Failed to persist bot message",
			zap.String("conversation_id", input.ConversationID),
			zap.Error(err))
		return botMsg
	}
	s.builder.Invalidate(ctx, input.ConversationID)
	s.publishMessage(botMsg)
	return botMsg
}

func (s *ConversationService) publishMessage(msg *models.ConversationMessage) {
	if s.audit == nil {
		return
	}
	if err := s.audit.PublishMessageEvent(msg.ConversationID, msg.UserID, msg.Role, msg.Content, msg.RiskLevel); err != nil {
		logger.Warn("Failed to publish message audit event",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}

// GetHistory 读取会话历史（时间升序，同刻按插入序号）
func (s *ConversationService) GetHistory(ctx context.Context, userID, conversationID string, limit int) ([]*models.ConversationMessage, error) {
	if err := s.checkAccess(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = s.chatCfg.HistoryLimit
	}

	messages, err := s.store.GetRecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to load conversation history", err)
	}
	return messages, nil
}

// ListConversations 列出用户会话
func (s *ConversationService) ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	convs, err := s.store.ListConversations(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list conversations", err)
	}
	return convs, nil
}

// ArchiveConversation 归档会话
func (s *ConversationService) ArchiveConversation(ctx context.Context, userID, conversationID string) error {
	return s.updateStatus(ctx, userID, conversationID, models.ConversationStatusArchived)
}

// DeleteConversation 软删除会话（终态，不可恢复）
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return s.updateStatus(ctx, userID, conversationID, models.ConversationStatusDeleted)
}

func (s *ConversationService) updateStatus(ctx context.Context, userID, conversationID, status string) error {
	if err := s.checkAccess(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.store.UpdateConversationStatus(ctx, conversationID, status); err != nil {
		return apperrors.NewPersistenceError("failed to update conversation status", err)
	}
	logger.Info("Conversation status updated",
		zap.String("conversation_id", conversationID),
		zap.String("status", status))
	return nil
}

// GetConversationAnalytics 按风险级别统计用户近期消息分布
func (s *ConversationService) GetConversationAnalytics(ctx context.Context, userID string, since time.Time) (*ConversationAnalytics, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}

	dist, err := s.store.RiskDistribution(ctx, userID, since)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to load risk distribution", err)
	}

	analytics := &ConversationAnalytics{
		UserID:           userID,
		Since:            since,
		RiskDistribution: dist,
	}
	for level, count := range dist {
		analytics.TotalMessages += count
		if level.IsCrisis() {
			analytics.CrisisMessages += count
		}
	}
	return analytics, nil
}

// checkAccess 会话访问校验：不存在或不属于该用户都返回拒绝
func (s *ConversationService) checkAccess(ctx context.Context, userID, conversationID string) error {
	if userID == "" || conversationID == "" {
		return apperrors.NewValidationError("user_id and conversation_id are required")
	}

	allowed, err := s.access.ValidateAccess(ctx, userID, conversationID)
	if err != nil {
		return apperrors.NewPersistenceError("failed to validate conversation access", err)
	}
	if !allowed {
		return apperrors.NewAccessDeniedError()
	}
	return nil
}
