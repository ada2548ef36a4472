package services

import (
	"strings"
	"unicode"

	"github.com/chillbuddy/backend-go/internal/config"
)

// Normalizer 模型输出规范化管线。对自身输出重复执行结果不变（幂等），
// 各步骤按固定顺序执行：行去重 → 句子去重 → 短语去重 → 重复词组折叠 → 截断 → 补充共情开场。
type Normalizer struct {
	maxChars       int
	shortThreshold int
	leadIn         string
	supportive     []string
}

// NewNormalizer 创建规范化器
func NewNormalizer(cfg config.ChatConfig) *Normalizer {
	return &Normalizer{
		maxChars:       cfg.MaxResponseChars,
		shortThreshold: 20,
		leadIn:         "I'm here for you.",
		supportive: []string{
			"sorry", "hear", "here", "understand", "support", "care",
			"with you", "not alone",
		},
	}
}

// Normalize 执行完整规范化管线
func (n *Normalizer) Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = collapseDuplicateLines(text)
	text = dedupeSentences(text)
	text = dedupePhrases(text)
	text = collapseRepeatedNGrams(text)
	text = n.capLength(text)
	text = n.ensureSupportiveOpening(text)

	return text
}

// collapseDuplicateLines 折叠连续重复的行
func collapseDuplicateLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	var prev string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i > 0 && trimmed != "" && trimmed == prev {
			continue
		}
		out = append(out, line)
		prev = trimmed
	}
	return strings.Join(out, "\n")
}

// splitSentences 按终结标点切分句子，标点保留在句子内
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// 吸收连续标点（如省略号）
			for i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
				i++
				current.WriteRune(runes[i])
			}
			sentence := strings.TrimSpace(current.String())
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	// 末尾无标点的片段补句号，保证重新拼接后仍以终结标点结尾
	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail+".")
	}
	return sentences
}

// dedupeSentences 丢弃完全重复的句子，保留首次出现顺序
func dedupeSentences(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return text
	}

	seen := make(map[string]bool, len(sentences))
	var kept []string
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimRight(s, ".!?"))
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, s)
	}
	return strings.Join(kept, " ")
}

// dedupePhrases 短语级去重：按逗号/分号切分，与已保留短语完全相同
// 或token重叠超过70%时丢弃
func dedupePhrases(text string) string {
	sentences := splitSentences(text)
	var keptPhrases [][]string // 已保留短语的token集合
	var outSentences []string

	for _, sentence := range sentences {
		punct := terminalPunct(sentence)
		body := strings.TrimRight(sentence, ".!?")

		parts := strings.FieldsFunc(body, func(r rune) bool {
			return r == ',' || r == ';'
		})

		var keptParts []string
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			tokens := tokenize(part)
			if isDuplicatePhrase(tokens, keptPhrases) {
				continue
			}
			keptPhrases = append(keptPhrases, tokens)
			keptParts = append(keptParts, part)
		}

		if len(keptParts) == 0 {
			continue
		}
		outSentences = append(outSentences, strings.Join(keptParts, ", ")+punct)
	}
	return strings.Join(outSentences, " ")
}

func terminalPunct(sentence string) string {
	idx := strings.LastIndexFunc(sentence, func(r rune) bool {
		return r != '.' && r != '!' && r != '?'
	})
	if idx < 0 || idx == len(sentence)-1 {
		return "."
	}
	return sentence[idx+1:]
}

func tokenize(phrase string) []string {
	return strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// isDuplicatePhrase 与任一已保留短语的token重叠（按较大短语计）超过0.7即视为重复
func isDuplicatePhrase(tokens []string, kept [][]string) bool {
	if len(tokens) == 0 {
		return true
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}

	for _, prev := range kept {
		prevSet := make(map[string]bool, len(prev))
		for _, t := range prev {
			prevSet[t] = true
		}

		overlap := 0
		for t := range set {
			if prevSet[t] {
				overlap++
			}
		}

		larger := len(set)
		if len(prevSet) > larger {
			larger = len(prevSet)
		}
		if larger > 0 && float64(overlap)/float64(larger) > 0.7 {
			return true
		}
	}
	return false
}

// collapseRepeatedNGrams 折叠紧邻重复的词组（n=1..5），较长的词组优先
func collapseRepeatedNGrams(text string) string {
	words := strings.Fields(text)
	for n := 5; n >= 1; n-- {
		words = collapseNGram(words, n)
	}
	return strings.Join(words, " ")
}

func collapseNGram(words []string, n int) []string {
	if len(words) < 2*n {
		return words
	}
	out := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		if i+2*n <= len(words) && equalFold(words[i:i+n], words[i+n:i+2*n]) {
			// 跳过重复的第二段，本段保留后继续比对（连续三次以上同样折叠）
			out = append(out, words[i:i+n]...)
			i += n
			for i+n <= len(words) && equalFold(out[len(out)-n:], words[i:i+n]) {
				i += n
			}
			continue
		}
		out = append(out, words[i])
		i++
	}
	return out
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// capLength 按词边界截断到最大长度，截断时追加省略号（总长不超过上限）
func (n *Normalizer) capLength(text string) string {
	runes := []rune(text)
	if len(runes) <= n.maxChars {
		return text
	}

	limit := n.maxChars - 3 // 为省略号预留空间
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;") + "..."
}

// ensureSupportiveOpening 过短且缺少共情词汇的输出补充开场白
func (n *Normalizer) ensureSupportiveOpening(text string) string {
	if len([]rune(text)) >= n.shortThreshold {
		return text
	}
	lower := strings.ToLower(text)
	for _, w := range n.supportive {
		if strings.Contains(lower, w) {
			return text
		}
	}
	if text == "" {
		return n.leadIn
	}
	return n.leadIn + " " + text
}
