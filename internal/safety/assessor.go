package safety

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/models"
)

// 各级别固定的建议动作，仅用于日志与审计，不参与分支判断
const (
	ActionMonitor            = "monitor"
	ActionSupportiveResponse = "supportive_response"
	ActionCloseMonitoring    = "close_monitoring"
	ActionImmediateResources = "immediate_resources"
)

// Assessment 单条消息的风险评估结果（派生值，随消息元数据入库）
type Assessment struct {
	RiskLevel         models.RiskLevel `json:"risk_level"`
	MatchedKeywords   []string         `json:"matched_keywords"`
	Confidence        float64          `json:"confidence"`
	RecommendedAction string           `json:"recommended_action"`
}

// MetadataJSON 序列化为消息metadata字段内容
func (a Assessment) MetadataJSON() string {
	data, err := json.Marshal(map[string]interface{}{
		"matched_keywords": a.MatchedKeywords,
		"confidence":       a.Confidence,
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// RiskAssessor 危机指标评估器。给定相同的关键词配置，评估结果确定且无副作用。
type RiskAssessor struct {
	mu                sync.RWMutex
	set               *KeywordSet
	criticalThreshold float64
	highThreshold     float64
	mediumThreshold   float64
}

// NewRiskAssessor 创建评估器
func NewRiskAssessor(set *KeywordSet, cfg config.SafetyConfig) *RiskAssessor {
	if set == nil {
		set = DefaultKeywordSet()
	}
	return &RiskAssessor{
		set:               set,
		criticalThreshold: cfg.CriticalThreshold,
		highThreshold:     cfg.HighThreshold,
		mediumThreshold:   cfg.MediumThreshold,
	}
}

// Reload 替换关键词集合（管理操作触发的热更新，请求处理期间配置只读）
func (ra *RiskAssessor) Reload(set *KeywordSet) {
	if set == nil {
		return
	}
	ra.mu.Lock()
	ra.set = set
	ra.mu.Unlock()
}

// Assess 评估消息文本。任何输入都不会出错：空或异常输入返回low、置信度0。
// 文本规范化仅用于匹配，入库的消息内容保持原样。
func (ra *RiskAssessor) Assess(text string) Assessment {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Assessment{
			RiskLevel:         models.RiskLevelLow,
			MatchedKeywords:   []string{},
			Confidence:        0,
			RecommendedAction: ActionMonitor,
		}
	}

	ra.mu.RLock()
	set := ra.set
	ra.mu.RUnlock()

	var score float64
	matched := []string{}

	// 每个关键词只计一次，无论出现多少次
	for _, kw := range set.Keywords {
		if strings.Contains(normalized, kw.Term) {
			score += kw.Weight
			matched = append(matched, kw.Term)
		}
	}

	for _, pat := range set.Patterns {
		if pat.expr != nil && pat.expr.MatchString(normalized) {
			score += pat.Weight
		}
	}

	if score > 1.0 {
		score = 1.0
	}

	level := ra.levelFor(score)
	// 有关键词命中时级别下限为medium，避免权重截断造成漏报
	if len(matched) > 0 && level == models.RiskLevelLow {
		level = models.RiskLevelMedium
	}

	return Assessment{
		RiskLevel:         level,
		MatchedKeywords:   matched,
		Confidence:        score,
		RecommendedAction: actionFor(level),
	}
}

func (ra *RiskAssessor) levelFor(confidence float64) models.RiskLevel {
	switch {
	case confidence >= ra.criticalThreshold:
		return models.RiskLevelCritical
	case confidence >= ra.highThreshold:
		return models.RiskLevelHigh
	case confidence >= ra.mediumThreshold:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

func actionFor(level models.RiskLevel) string {
	switch level {
	case models.RiskLevelCritical:
		return ActionImmediateResources
	case models.RiskLevelHigh:
		return ActionCloseMonitoring
	case models.RiskLevelMedium:
		return ActionSupportiveResponse
	default:
		return ActionMonitor
	}
}
