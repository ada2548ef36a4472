package services

import (
	"hash/fnv"
	"strings"
	"sync/atomic"
)

// 模板回复分类
const (
	TemplateGeneralSupport = "general_support"
	TemplateAnxiety        = "anxiety"
	TemplateDepression     = "depression"
	TemplateLoneliness     = "loneliness"
	TemplateStress         = "stress"
)

// TemplatePool 兜底回复模板池。主备模型均不可用时从对应分类中选取，
// 同一输入的多次调用在模板间轮转，避免连续返回同一条。
type TemplatePool struct {
	templates map[string][]string
	counter   atomic.Uint64
}

// NewTemplatePool 创建带默认模板的模板池
func NewTemplatePool() *TemplatePool {
	return &TemplatePool{
		templates: map[string][]string{
			TemplateGeneralSupport: {
				"Thank you for sharing that with me. I'm here to listen, and whatever you're feeling right now is valid. Would you like to tell me more about what's on your mind?",
				"I'm here with you. It takes courage to put feelings into words, and I'm glad you did. What would feel most helpful to talk about right now?",
				"I hear you. You don't have to go through this alone. Take your time, and share as much or as little as you'd like.",
			},
			TemplateAnxiety: {
				"It sounds like things feel overwhelming right now. Anxiety can be exhausting. Sometimes it helps to slow down together: would you like to try focusing on one thing at a time?",
				"Feeling anxious is hard, and it's okay that you're struggling with it. You're not doing anything wrong. What tends to happen when the anxiety builds up?",
			},
			TemplateDepression: {
				"I'm sorry things feel so heavy right now. Those feelings are real, and you deserve support. Even small steps count. What has today been like for you?",
				"It sounds like you're carrying a lot. You don't have to carry it by yourself. I'm here, and I'd like to understand more about how you're feeling.",
			},
			TemplateLoneliness: {
				"Feeling alone is painful, and I'm glad you reached out. You matter, and your feelings matter. Would you like to talk about what's been making you feel this way?",
				"I hear how isolating things feel right now. Reaching out like this is a real step. I'm here with you.",
			},
			TemplateStress: {
				"It sounds like a lot is piling up. Stress can make everything feel urgent at once. What feels like the heaviest part right now?",
				"That sounds genuinely difficult. It's okay to feel stretched thin. Sometimes naming the biggest pressure helps. What's weighing on you most?",
			},
		},
	}
}

// Pick 按分类选取一条模板。未知分类回退到通用支持分类。
// 选取基于输入哈希加内部计数器，保证对同一输入的重复请求在模板间轮转。
func (p *TemplatePool) Pick(category, userMessage string) string {
	pool, ok := p.templates[category]
	if !ok || len(pool) == 0 {
		pool = p.templates[TemplateGeneralSupport]
	}

	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(userMessage))))
	idx := (h.Sum64() + p.counter.Add(1)) % uint64(len(pool))
	return pool[idx]
}

// Categorize 根据用户消息内容粗分模板分类
func (p *TemplatePool) Categorize(userMessage string) string {
	lower := strings.ToLower(userMessage)
	switch {
	case containsAny(lower, "anxious", "anxiety", "panic", "worried", "nervous"):
		return TemplateAnxiety
	case containsAny(lower, "depress", "sad", "empty", "numb", "hopeless"):
		return TemplateDepression
	case containsAny(lower, "alone", "lonely", "isolated", "no one"):
		return TemplateLoneliness
	case containsAny(lower, "stress", "overwhelm", "pressure", "too much"):
		return TemplateStress
	default:
		return TemplateGeneralSupport
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
