package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/models"
)

func testSafetyConfig() config.SafetyConfig {
	return config.SafetyConfig{
		CriticalThreshold: 0.8,
		HighThreshold:     0.6,
		MediumThreshold:   0.3,
	}
}

func TestAssess_CriticalInput(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	result := assessor.Assess("I want to kill myself tonight")

	assert.Equal(t, models.RiskLevelCritical, result.RiskLevel)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
	assert.NotEmpty(t, result.MatchedKeywords)
	assert.Equal(t, ActionImmediateResources, result.RecommendedAction)
	assert.True(t, result.RiskLevel.IsCrisis())
}

func TestAssess_LowRiskInput(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	result := assessor.Assess("I'm feeling a bit anxious about my exam")

	// 无危机信号的日常焦虑不应触发危机路径
	assert.False(t, result.RiskLevel.IsCrisis())
	assert.Empty(t, result.MatchedKeywords)
}

func TestAssess_EmptyInput(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	for _, input := range []string{"", "   ", "\n\t"} {
		result := assessor.Assess(input)
		assert.Equal(t, models.RiskLevelLow, result.RiskLevel)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Empty(t, result.MatchedKeywords)
		assert.Equal(t, ActionMonitor, result.RecommendedAction)
	}
}

func TestAssess_CaseInsensitive(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	lower := assessor.Assess("i want to die")
	upper := assessor.Assess("I WANT TO DIE")

	assert.Equal(t, lower.RiskLevel, upper.RiskLevel)
	assert.Equal(t, lower.Confidence, upper.Confidence)
}

func TestAssess_KeywordCountedOnce(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	once := assessor.Assess("I feel worthless")
	twice := assessor.Assess("worthless, completely worthless")

	// 同一关键词出现多次只计一次权重
	assert.Equal(t, once.Confidence, twice.Confidence)
}

func TestAssess_KeywordFloorsLevelAtMedium(t *testing.T) {
	cfg := testSafetyConfig()
	set := &KeywordSet{
		Keywords: []WeightedKeyword{{Term: "hopeless", Weight: 0.1}},
	}
	require.NoError(t, set.compile())
	assessor := NewRiskAssessor(set, cfg)

	result := assessor.Assess("everything feels hopeless")

	// 权重不足以过medium阈值，但有命中时级别下限为medium
	assert.Equal(t, models.RiskLevelMedium, result.RiskLevel)
	assert.Equal(t, []string{"hopeless"}, result.MatchedKeywords)
}

func TestAssess_ConfidenceCappedAtOne(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	result := assessor.Assess("I want to kill myself, suicide, overdose, no reason to live, worthless and hopeless")

	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, models.RiskLevelCritical, result.RiskLevel)
}

func TestAssess_MoreSignalsNeverLowerLevel(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	base := assessor.Assess("I feel hopeless")
	extended := assessor.Assess("I feel hopeless and worthless and can't go on")

	// 追加危机信号不会降低级别或置信度
	assert.True(t, extended.RiskLevel.AtLeast(base.RiskLevel))
	assert.GreaterOrEqual(t, extended.Confidence, base.Confidence)
}

func TestAssess_PatternMatching(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	tests := []struct {
		name  string
		input string
	}{
		{"harm_intent", "I am planning to hurt someone close to me"},
		{"overwhelmed", "I can't take this anymore"},
		{"isolation", "no one would miss me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := assessor.Assess(tt.input)
			assert.Greater(t, result.Confidence, 0.0)
		})
	}
}

func TestReload_SwapsKeywordSet(t *testing.T) {
	assessor := NewRiskAssessor(nil, testSafetyConfig())

	before := assessor.Assess("I am in a doomspiral")
	assert.Equal(t, models.RiskLevelLow, before.RiskLevel)

	set := &KeywordSet{
		Keywords: []WeightedKeyword{{Term: "doomspiral", Weight: 0.9}},
	}
	require.NoError(t, set.compile())
	assessor.Reload(set)

	after := assessor.Assess("I am in a doomspiral")
	assert.Equal(t, models.RiskLevelCritical, after.RiskLevel)

	// nil不会清空现有集合
	assessor.Reload(nil)
	assert.Equal(t, models.RiskLevelCritical, assessor.Assess("I am in a doomspiral").RiskLevel)
}

func TestLoadKeywordSet(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "keywords.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{
		"keywords": [{"term": "suicide", "weight": 0.4}],
		"patterns": [{"name": "harm_intent", "pattern": "want to (die|harm)", "weight": 0.25}]
	}`), 0o644))

	set, err := LoadKeywordSet(valid)
	require.NoError(t, err)
	assert.Len(t, set.Keywords, 1)
	assert.Len(t, set.Patterns, 1)

	// 非法权重被拒绝
	badWeight := filepath.Join(dir, "bad_weight.json")
	require.NoError(t, os.WriteFile(badWeight, []byte(`{"keywords": [{"term": "x", "weight": 1.5}]}`), 0o644))
	_, err = LoadKeywordSet(badWeight)
	assert.Error(t, err)

	// 非法正则被拒绝
	badPattern := filepath.Join(dir, "bad_pattern.json")
	require.NoError(t, os.WriteFile(badPattern, []byte(`{
		"keywords": [{"term": "x", "weight": 0.3}],
		"patterns": [{"name": "broken", "pattern": "([", "weight": 0.25}]
	}`), 0o644))
	_, err = LoadKeywordSet(badPattern)
	assert.Error(t, err)

	// 空集合被拒绝
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"keywords": []}`), 0o644))
	_, err = LoadKeywordSet(empty)
	assert.Error(t, err)

	_, err = LoadKeywordSet(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
