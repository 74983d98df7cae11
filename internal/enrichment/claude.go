package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	errNoJSON       = errors.New("model response contains no JSON object")
	errEmptySummary = errors.New("model response has an empty summary")
)

const (
	defaultTimeout = 30 * time.Second
	maxListEntries = 5
)

const systemPrompt = "You are an assistant that analyzes news and blog articles. " +
	"Reply with a single JSON object and nothing else."

// MessageClient sends one prompt and returns the text of the reply.
type MessageClient interface {
	CreateMessage(ctx context.Context, system, prompt string) (string, error)
}

// ClaudeAnalyzer asks a Claude model for a structured analysis.
type ClaudeAnalyzer struct {
	client  MessageClient
	timeout time.Duration
}

// NewClaudeAnalyzer creates an analyzer. A zero timeout uses the default.
func NewClaudeAnalyzer(client MessageClient, timeout time.Duration) *ClaudeAnalyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ClaudeAnalyzer{client: client, timeout: timeout}
}

// Analyze returns the model's analysis of the article.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, title, content string) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.client.CreateMessage(ctx, systemPrompt, BuildPrompt(title, content))
	if err != nil {
		return nil, fmt.Errorf("analyze article: %w", err)
	}

	analysis, parseErr := ParseAnalysis(reply)
	if parseErr != nil {
		return nil, fmt.Errorf("analyze article: %w", parseErr)
	}
	return analysis, nil
}

// BuildPrompt renders the user prompt for one article.
func BuildPrompt(title, content string) string {
	var b strings.Builder
	b.WriteString("Analyze the following article.\n\n")
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\n\nContent:\n")
	b.WriteString(Truncate(strings.TrimSpace(content), MaxPromptContentRunes))
	b.WriteString("\n\nReturn JSON with these fields:\n")
	b.WriteString(`{"summary": "at most 200 characters", "keyPoints": ["3 to 5 points"], `)
	b.WriteString(`"tags": ["3 to 5 keywords"], "topic": "one of `)
	b.WriteString(strings.Join(Topics, ", "))
	b.WriteString(`"}`)
	return b.String()
}

// ParseAnalysis extracts the JSON object from a model reply, tolerating code fences
// and surrounding prose.
func ParseAnalysis(reply string) (*Analysis, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, errNoJSON
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(reply[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	analysis.Summary = strings.TrimSpace(analysis.Summary)
	if analysis.Summary == "" {
		return nil, errEmptySummary
	}
	analysis.KeyPoints = cleanList(analysis.KeyPoints)
	analysis.Tags = cleanList(analysis.Tags)
	analysis.Topic = NormalizeTopic(analysis.Topic)

	return &analysis, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == maxListEntries {
			break
		}
	}
	return out
}
