// Package claude implements llm.Provider on the Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/sage/internal/llm"
)

// ResponseTokens bounds the length of a single generated reply.
const ResponseTokens = 2048

// Client calls the Claude API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude client with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Chat sends the conversation and returns the concatenated text of the
// response.
func (c *Client) Chat(ctx context.Context, system string, messages []llm.Message) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: ResponseTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  toSDKMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("claude: response contained no text blocks")
	}
	return b.String(), nil
}

// toSDKMessages converts conversation turns to the SDK message format.
// Unknown roles are sent as user turns.
func toSDKMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(block))
		default:
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
