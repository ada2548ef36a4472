package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/models"
	"go.uber.org/zap"
)

// Producer Kafka审计事件生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// MessageEvent 消息审计事件
type MessageEvent struct {
	EventType      string           `json:"event_type"` // message, escalation
	ConversationID string           `json:"conversation_id"`
	UserID         string           `json:"user_id"`
	Role           string           `json:"role,omitempty"`
	Content        string           `json:"content,omitempty"`
	RiskLevel      models.RiskLevel `json:"risk_level"`
	// 升级事件附带的审计字段
	MessageID        string `json:"message_id,omitempty"`
	MatchedKeywords  string `json:"matched_keywords,omitempty"`
	FollowUpRequired bool   `json:"follow_up_required,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewProducer 创建生产者
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", brokers), zap.String("topic", topic))

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

// PublishMessageEvent 发布消息审计事件
func (p *Producer) PublishMessageEvent(conversationID, userID, role, content string, riskLevel models.RiskLevel) error {
	return p.send(conversationID, &MessageEvent{
		EventType:      "message",
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		RiskLevel:      riskLevel,
		Timestamp:      time.Now(),
	})
}

// PublishEscalationEvent 发布危机升级审计事件
func (p *Producer) PublishEscalationEvent(rec *models.EscalationRecord) error {
	return p.send(rec.ConversationID, &MessageEvent{
		EventType:        "escalation",
		ConversationID:   rec.ConversationID,
		UserID:           rec.UserID,
		RiskLevel:        rec.RiskLevel,
		MessageID:        rec.MessageID,
		MatchedKeywords:  rec.MatchedKeywords,
		FollowUpRequired: rec.FollowUpRequired,
		Timestamp:        rec.TriggeredAt,
	})
}

func (p *Producer) send(key string, event *MessageEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("failed to send event to kafka: %w", err)
	}

	logger.Debug("Audit event sent to Kafka",
		zap.String("event_type", event.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))

	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// NoopPublisher Kafka未启用时的空实现
type NoopPublisher struct{}

func (NoopPublisher) PublishMessageEvent(conversationID, userID, role, content string, riskLevel models.RiskLevel) error {
	return nil
}

func (NoopPublisher) PublishEscalationEvent(rec *models.EscalationRecord) error {
	return nil
}
