package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// WeightedKeyword 加权危机关键词
type WeightedKeyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// PatternRule 组合式危机表达的正则规则
type PatternRule struct {
	Name    string  `json:"name"`
	Pattern string  `json:"pattern"`
	Weight  float64 `json:"weight"`

	expr *regexp.Regexp
}

// KeywordSet 风险评估使用的关键词与模式集合
type KeywordSet struct {
	Keywords []WeightedKeyword `json:"keywords"`
	Patterns []PatternRule     `json:"patterns"`
}

// DefaultKeywordSet 内置默认集合。外部配置文件加载失败时回退到这里，
// 保证服务降级运行而不是拒绝启动。
func DefaultKeywordSet() *KeywordSet {
	set := &KeywordSet{
		Keywords: []WeightedKeyword{
			// 直接自伤意图
			{Term: "suicide", Weight: 0.4},
			{Term: "kill myself", Weight: 0.4},
			{Term: "want to kill", Weight: 0.4},
			{Term: "want to die", Weight: 0.4},
			{Term: "end my life", Weight: 0.4},
			{Term: "end it all", Weight: 0.4},
			{Term: "hurt myself", Weight: 0.35},
			{Term: "self harm", Weight: 0.35},
			{Term: "self-harm", Weight: 0.35},
			{Term: "cutting myself", Weight: 0.35},
			{Term: "overdose", Weight: 0.35},
			{Term: "no reason to live", Weight: 0.35},
			// 外围信号
			{Term: "worthless", Weight: 0.2},
			{Term: "hopeless", Weight: 0.2},
			{Term: "can't go on", Weight: 0.2},
			{Term: "give up on life", Weight: 0.2},
			{Term: "better off without me", Weight: 0.2},
		},
		Patterns: []PatternRule{
			{
				Name:    "harm_intent",
				Pattern: `(want to|going to|plan to|planning to)\s+(kill|hurt|harm|end|die)`,
				Weight:  0.25,
			},
			{
				Name:    "overwhelmed",
				Pattern: `can'?t take (this|it) (anymore|any more)`,
				Weight:  0.25,
			},
			{
				Name:    "isolation",
				Pattern: `no ?one (cares|would care|would miss me)`,
				Weight:  0.25,
			},
		},
	}
	// 内置模式保证可编译
	if err := set.compile(); err != nil {
		panic(fmt.Sprintf("default keyword set is invalid: %v", err))
	}
	return set
}

// LoadKeywordSet 从JSON文件加载关键词配置
func LoadKeywordSet(path string) (*KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	set := &KeywordSet{}
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file: %w", err)
	}
	if len(set.Keywords) == 0 {
		return nil, fmt.Errorf("keyword file contains no keywords")
	}
	for _, kw := range set.Keywords {
		if kw.Term == "" || kw.Weight <= 0 || kw.Weight > 1 {
			return nil, fmt.Errorf("invalid keyword entry: %q (weight %v)", kw.Term, kw.Weight)
		}
	}
	if err := set.compile(); err != nil {
		return nil, err
	}
	return set, nil
}

// compile 预编译所有正则模式
func (s *KeywordSet) compile() error {
	for i := range s.Patterns {
		expr, err := regexp.Compile(s.Patterns[i].Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", s.Patterns[i].Name, err)
		}
		s.Patterns[i].expr = expr
	}
	return nil
}
