package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/auth"
	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/database"
	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/kafka"
	"github.com/chillbuddy/backend-go/internal/llm"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/repository"
	"github.com/chillbuddy/backend-go/internal/resources"
	"github.com/chillbuddy/backend-go/internal/safety"
	"github.com/chillbuddy/backend-go/internal/services"
)

// primaryModel dig无法按接口区分主备模型，用命名类型包装
type primaryModel struct {
	model interfaces.ChatModel
}

type secondaryModel struct {
	model interfaces.ChatModel
}

// RegisterProviders 注册所有依赖提供者
func RegisterProviders(container *dig.Container) error {
	// 注册配置
	if err := container.Provide(func() (*config.Config, error) {
		cfg := config.GetAppConfig()
		if cfg == nil {
			return nil, fmt.Errorf("config not loaded")
		}
		return cfg, nil
	}); err != nil {
		return err
	}

	// 注册会话存储
	if err := container.Provide(func() interfaces.ConversationStore {
		return repository.NewConversationRepository(database.DB)
	}); err != nil {
		return err
	}

	// 注册访问校验器
	if err := container.Provide(auth.NewAccessValidator); err != nil {
		return err
	}

	// 注册风险评估器（外部关键词文件缺失或非法时回退内置集合）
	if err := container.Provide(func(cfg *config.Config) *safety.RiskAssessor {
		set := safety.DefaultKeywordSet()
		if cfg.Safety.KeywordFile != "" {
			loaded, err := safety.LoadKeywordSet(cfg.Safety.KeywordFile)
			if err != nil {
				logger.Warn("Failed to load keyword file, using built-in set",
					zap.String("file", cfg.Safety.KeywordFile),
					zap.Error(err))
			} else {
				set = loaded
			}
		}
		return safety.NewRiskAssessor(set, cfg.Safety)
	}); err != nil {
		return err
	}

	// 注册资源目录
	if err := container.Provide(func() interfaces.ResourceDirectory {
		return resources.NewDirectory()
	}); err != nil {
		return err
	}

	// 注册主模型
	if err := container.Provide(func(cfg *config.Config) primaryModel {
		timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		model, err := llm.NewOpenAIModel(cfg.AI.PrimaryAPIKey, cfg.AI.PrimaryBaseURL, cfg.AI.PrimaryModel, timeout)
		if err != nil {
			logger.Warn("Primary model unavailable, requests will use fallback chain", zap.Error(err))
			return primaryModel{}
		}
		return primaryModel{model: model}
	}); err != nil {
		return err
	}

	// 注册备用模型
	if err := container.Provide(func(cfg *config.Config) secondaryModel {
		timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		svc := llm.NewService(cfg.AI.SecondaryAPIKey, cfg.AI.SecondaryBaseURL, cfg.AI.SecondaryModel, timeout)
		if svc == nil {
			return secondaryModel{}
		}
		return secondaryModel{model: svc}
	}); err != nil {
		return err
	}

	// 注册回复生成器
	if err := container.Provide(func(cfg *config.Config, p primaryModel, s secondaryModel) *services.ResponseGenerator {
		return services.NewResponseGenerator(p.model, s.model, cfg.AI, cfg.Chat)
	}); err != nil {
		return err
	}

	// 注册上下文组装器
	if err := container.Provide(func(cfg *config.Config, store interfaces.ConversationStore) (*services.ContextBuilder, error) {
		return services.NewContextBuilder(store, database.RedisClient, cfg.Chat)
	}); err != nil {
		return err
	}

	// 注册危机升级处理器
	if err := container.Provide(services.NewCrisisEscalator); err != nil {
		return err
	}

	// 注册审计发布器（kafka未启用时使用空实现）
	if err := container.Provide(func(cfg *config.Config) interfaces.AuditPublisher {
		if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
			return kafka.NoopPublisher{}
		}
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Warn("Kafka producer unavailable, audit events disabled", zap.Error(err))
			return kafka.NoopPublisher{}
		}
		return producer
	}); err != nil {
		return err
	}

	// 注册指标服务
	if err := container.Provide(services.NewMetricsService); err != nil {
		return err
	}

	// 注册会话服务
	if err := container.Provide(func(
		cfg *config.Config,
		store interfaces.ConversationStore,
		access interfaces.AccessValidator,
		assessor *safety.RiskAssessor,
		builder *services.ContextBuilder,
		generator *services.ResponseGenerator,
		escalator *services.CrisisEscalator,
		audit interfaces.AuditPublisher,
		metrics *services.MetricsService,
	) *services.ConversationService {
		return services.NewConversationService(store, access, assessor, builder, generator, escalator, audit, metrics, cfg.Chat)
	}); err != nil {
		return err
	}

	// 注册JWT服务
	if err := container.Provide(func(cfg *config.Config) *auth.JWTService {
		return auth.NewJWTService(cfg.JWT.Secret, "chillbuddy", 24*time.Hour)
	}); err != nil {
		return err
	}

	return nil
}
