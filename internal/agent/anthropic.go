package agent

import (
	"context"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// AnthropicAgent talks to the Anthropic Messages API
type AnthropicAgent struct {
	apiKey string
	model  string
	settings
}

// NewAnthropicAgent creates an agent for api.anthropic.com
func NewAnthropicAgent(apiKey, model string, opts ...Option) *AnthropicAgent {
	return &AnthropicAgent{
		apiKey:   apiKey,
		model:    model,
		settings: newSettings(AnthropicURL, opts),
	}
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

// Name returns the provider identifier
func (a *AnthropicAgent) Name() string {
	return "anthropic"
}

// Generate lifts the system message into the dedicated field, falling back
// to DefaultSystemPrompt when the conversation has none
func (a *AnthropicAgent) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := requireMessages(messages); err != nil {
		return "", err
	}

	system, rest := splitSystem(messages)
	systemPrompt := DefaultSystemPrompt
	if system != nil {
		systemPrompt = system.Content
	}

	reqBody := anthropicRequest{
		Model:       a.model,
		System:      systemPrompt,
		Messages:    rest,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.postJSON(ctx, a.Name(), a.endpoint, headers, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", extractionError(a.Name(), http.StatusOK, "unexpected API response", resp)
	}
	if resp.Content[0].Text == nil {
		return "", extractionError(a.Name(), http.StatusOK, "no text in content[0]", resp)
	}

	return *resp.Content[0].Text, nil
}
