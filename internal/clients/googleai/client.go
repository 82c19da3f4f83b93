// Package googleai is the Gemini-backed reply generator, selected with
// REPLY_PROVIDER=google. Same contract as the OpenAI reply path: empty
// reply means "no answer available".
package googleai

import (
	"context"
	"fmt"
	"strings"

	"voice-agent/internal/observability"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const replyModel = "gemini-1.5-flash"

const supportPromptTemplate = `You are a professional voice support agent.
Answer ONLY using the PRODUCT KNOWLEDGE below. Do NOT guess or invent
information. Keep answers short enough to be spoken aloud. If the answer is
not clearly available, say: "I'll connect you to a human support agent."

PRODUCT KNOWLEDGE:
%s

Caller: %s`

type Client struct {
	apiKey    string
	knowledge string
	logger    *observability.Logger
}

func NewClient(apiKey, knowledge string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}
	return &Client{apiKey: apiKey, knowledge: knowledge, logger: logger}, nil
}

// GenerateReply answers a support question from the product knowledge
// document using Gemini.
func (c *Client) GenerateReply(ctx context.Context, userText string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	prompt := fmt.Sprintf(supportPromptTemplate, c.knowledge, userText)

	model := client.GenerativeModel(replyModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response format")
	}

	reply := strings.TrimSpace(string(part))
	if reply != "" {
		c.logger.Info(ctx, "Knowledge-based reply generated")
	}
	return reply, nil
}
