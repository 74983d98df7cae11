// Package enrichment produces LLM summaries, key points, tags and a topic for articles.
package enrichment

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Topic vocabulary.
const (
	TopicTech          = "Tech"
	TopicBusiness      = "Business"
	TopicCulture       = "Culture"
	TopicEducation     = "Education"
	TopicHealth        = "Health"
	TopicEntertainment = "Entertainment"
	TopicOther         = "Other"
)

// Topics lists the allowed topics.
var Topics = []string{
	TopicTech, TopicBusiness, TopicCulture, TopicEducation,
	TopicHealth, TopicEntertainment, TopicOther,
}

// topicAliases maps lowercase variants, including the Chinese labels some sources use.
var topicAliases = map[string]string{
	"technology": TopicTech,
	"科技":         TopicTech,
	"finance":    TopicBusiness,
	"商业":         TopicBusiness,
	"财经":         TopicBusiness,
	"文化":         TopicCulture,
	"教育":         TopicEducation,
	"健康":         TopicHealth,
	"娱乐":         TopicEntertainment,
	"其他":         TopicOther,
}

const (
	// MaxPromptContentRunes bounds how much article text is sent to the model.
	MaxPromptContentRunes = 3000
	defaultSummaryRunes   = 200
)

// Analysis is the enrichment result for one article.
type Analysis struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Tags      []string `json:"tags"`
	Topic     string   `json:"topic"`
}

// Analyzer analyzes an article.
type Analyzer interface {
	Analyze(ctx context.Context, title, content string) (*Analysis, error)
}

// NormalizeTopic maps s onto the topic vocabulary, defaulting to Other.
func NormalizeTopic(s string) string {
	s = strings.TrimSpace(s)
	for _, topic := range Topics {
		if strings.EqualFold(s, topic) {
			return topic
		}
	}
	if topic, ok := topicAliases[strings.ToLower(s)]; ok {
		return topic
	}
	return TopicOther
}

// DefaultAnalysis is used when the model is unavailable or returns garbage.
func DefaultAnalysis(content string) *Analysis {
	text := strings.TrimSpace(content)
	summary := Truncate(text, defaultSummaryRunes)
	if len(summary) < len(text) {
		summary += "..."
	}
	return &Analysis{
		Summary:   summary,
		KeyPoints: []string{},
		Tags:      []string{},
		Topic:     TopicOther,
	}
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
