package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chillbuddy/backend-go/internal/config"
)

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		MaxMessageLength: 5000,
		HistoryLimit:     10,
		ContextPairs:     2,
		MaxResponseChars: 300,
		MinViableChars:   5,
		HistoryCacheSize: 16,
		HistoryCacheTTL:  60,
	}
}

func TestNormalize_DuplicateSentences(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("I'm sorry. I'm sorry. I understand. I understand.")

	assert.Equal(t, "I'm sorry. I understand.", out)
}

func TestNormalize_DuplicateLines(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("You matter to people around you\nYou matter to people around you\nTake it one day at a time")

	assert.Equal(t, 1, strings.Count(out, "You matter to people around you"))
	assert.Contains(t, out, "Take it one day at a time")
}

func TestNormalize_DuplicatePhrases(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("I hear you, I hear you, and that sounds difficult.")
	assert.Equal(t, "I hear you, and that sounds difficult.", out)

	// 近似重复短语（token重叠超过70%）同样被去掉
	out = n.Normalize("Take a deep slow calming breath, take a deep slow calming breath now.")
	assert.Equal(t, 1, strings.Count(strings.ToLower(out), "take a deep"))
}

func TestNormalize_RepeatedWords(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("I really really want to support you through this difficult time")

	assert.Equal(t, 1, strings.Count(out, "really"))
	assert.Contains(t, out, "support you")
}

func TestNormalize_LengthCap(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "segment%03d ", i)
	}
	out := n.Normalize(sb.String())

	assert.LessOrEqual(t, len([]rune(out)), 300)
	assert.True(t, strings.HasSuffix(out, "..."))
	// 词边界截断：不会留下被切断的半个词
	fields := strings.Fields(strings.TrimSuffix(out, "..."))
	last := fields[len(fields)-1]
	assert.Regexp(t, `^segment\d{3}$`, last)
}

func TestNormalize_ShortOutputGetsSupportiveOpening(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("ok")

	assert.Contains(t, out, "I'm here for you.")
	assert.Contains(t, out, "ok")

	// 已含共情词汇的短输出保持原样
	out = n.Normalize("I hear you.")
	assert.Equal(t, "I hear you.", out)
}

func TestNormalize_EmptyInput(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   \n\t  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	var long strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&long, "segment%03d ", i)
	}

	inputs := []string{
		"I'm sorry. I'm sorry. I understand. I understand.",
		"I hear you, I hear you, and that sounds difficult.",
		"I really really want to support you",
		"ok",
		"You matter.\nYou matter.\nTake care of yourself today.",
		long.String(),
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "normalization must be idempotent for %q", input)
	}
}

func TestNormalize_TerminalPunctuationPreserved(t *testing.T) {
	n := NewNormalizer(testChatConfig())

	out := n.Normalize("That sounds really hard! How long has this been going on?")

	assert.Contains(t, out, "hard!")
	assert.True(t, strings.HasSuffix(out, "?"))
}
