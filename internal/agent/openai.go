package agent

import (
	"context"
	"net/http"
)

// OpenAIAgent talks to an OpenAI-compatible chat-completions endpoint.
// It serves both OpenAI and Grok.
type OpenAIAgent struct {
	name   string
	apiKey string
	model  string
	settings
}

// NewOpenAIAgent creates an agent for api.openai.com
func NewOpenAIAgent(apiKey, model string, opts ...Option) *OpenAIAgent {
	return newChatCompletionsAgent("openai", OpenAIURL, apiKey, model, opts)
}

// NewGrokAgent creates an agent for api.x.ai, which speaks the OpenAI wire format
func NewGrokAgent(apiKey, model string, opts ...Option) *OpenAIAgent {
	return newChatCompletionsAgent("grok", GrokURL, apiKey, model, opts)
}

func newChatCompletionsAgent(name, endpoint, apiKey, model string, opts []Option) *OpenAIAgent {
	return &OpenAIAgent{
		name:     name,
		apiKey:   apiKey,
		model:    model,
		settings: newSettings(endpoint, opts),
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Name returns the provider identifier
func (a *OpenAIAgent) Name() string {
	return a.name
}

// Generate sends the messages as-is, system entry included
func (a *OpenAIAgent) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := requireMessages(messages); err != nil {
		return "", err
	}

	reqBody := openAIRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	var resp openAIResponse
	if err := a.postJSON(ctx, a.name, a.endpoint, headers, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", extractionError(a.name, http.StatusOK, "unexpected API response", resp)
	}
	content := resp.Choices[0].Message.Content
	if content == nil {
		return "", extractionError(a.name, http.StatusOK, "no message content in choices[0]", resp)
	}

	return *content, nil
}
