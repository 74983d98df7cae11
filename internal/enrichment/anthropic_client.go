package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var errEmptyReply = errors.New("anthropic: reply has no text content")

const defaultMaxTokens = 1024

// AnthropicClient implements MessageClient with the official SDK.
type AnthropicClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a client. Extra request options are passed to the SDK.
func NewAnthropicClient(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// CreateMessage sends a single-turn request and concatenates the text blocks of the reply.
func (c *AnthropicClient) CreateMessage(ctx context.Context, system, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errEmptyReply
	}
	return b.String(), nil
}
