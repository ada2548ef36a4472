package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService 会话管线指标收集器
type MetricsService struct {
	messagesCounter    *prometheus.CounterVec
	escalationsCounter *prometheus.CounterVec
	responseSource     *prometheus.CounterVec
	assessDuration     prometheus.Histogram
	generateDuration   *prometheus.HistogramVec
}

// NewMetricsService 创建并注册管线指标
func NewMetricsService() *MetricsService {
	ms := &MetricsService{}
	ms.registerMetrics()
	return ms
}

// registerMetrics 注册Prometheus指标
func (ms *MetricsService) registerMetrics() {
	ms.messagesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of inbound user messages by assessed risk level",
		},
		[]string{"risk_level"},
	)

	ms.escalationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_escalations_total",
			Help: "Total number of crisis escalations triggered",
		},
		[]string{"risk_level"},
	)

	ms.responseSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_responses_total",
			Help: "Total responses served by generation source",
		},
		[]string{"source"}, // primary, fallback, template, crisis
	)

	ms.assessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_risk_assessment_duration_seconds",
			Help:    "Duration of risk assessment",
			Buckets: prometheus.DefBuckets,
		},
	)

	ms.generateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_response_generation_duration_seconds",
			Help:    "Duration of response generation by source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
}

// RecordMessage 记录一条入站消息及其风险等级
func (ms *MetricsService) RecordMessage(riskLevel string) {
	ms.messagesCounter.WithLabelValues(riskLevel).Inc()
}

// RecordEscalation 记录一次危机升级
func (ms *MetricsService) RecordEscalation(riskLevel string) {
	ms.escalationsCounter.WithLabelValues(riskLevel).Inc()
}

// RecordResponse 记录回复来源与生成耗时
func (ms *MetricsService) RecordResponse(source string, duration time.Duration) {
	ms.responseSource.WithLabelValues(source).Inc()
	ms.generateDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAssessment 记录风险评估耗时
func (ms *MetricsService) RecordAssessment(duration time.Duration) {
	ms.assessDuration.Observe(duration.Seconds())
}

// Handler 暴露 /metrics 端点
func (ms *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}
