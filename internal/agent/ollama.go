package agent

import (
	"context"
	"net/http"
)

// OllamaAgent talks to a local Ollama server. No API key is sent.
type OllamaAgent struct {
	model string
	settings
}

// NewOllamaAgent creates an agent for the local Ollama chat endpoint
func NewOllamaAgent(model string, opts ...Option) *OllamaAgent {
	return &OllamaAgent{
		model:    model,
		settings: newSettings(OllamaURL, opts),
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

// Name returns the provider identifier
func (a *OllamaAgent) Name() string {
	return "ollama"
}

// Generate keeps the system message inline, first, when there is one
func (a *OllamaAgent) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := requireMessages(messages); err != nil {
		return "", err
	}

	system, rest := splitSystem(messages)
	chat := make([]Message, 0, len(messages))
	if system != nil {
		chat = append(chat, Message{Role: RoleSystem, Content: system.Content})
	}
	chat = append(chat, rest...)

	reqBody := ollamaRequest{
		Model:    a.model,
		Messages: chat,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: Temperature,
			NumPredict:  MaxTokens,
		},
	}

	var resp ollamaResponse
	if err := a.postJSON(ctx, a.Name(), a.endpoint, nil, reqBody, &resp); err != nil {
		return "", err
	}

	if resp.Message == nil || resp.Message.Content == "" {
		return "", extractionError(a.Name(), http.StatusOK, "unexpected Ollama response", resp)
	}

	return resp.Message.Content, nil
}
