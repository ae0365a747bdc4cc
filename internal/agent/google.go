package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleAgent talks to the Gemini generateContent API. The API has no
// system role here, so system and user text are sent as one prompt.
type GoogleAgent struct {
	apiKey string
	model  string
	settings
}

// NewGoogleAgent creates an agent for generativelanguage.googleapis.com
func NewGoogleAgent(apiKey, model string, opts ...Option) *GoogleAgent {
	return &GoogleAgent{
		apiKey:   apiKey,
		model:    model,
		settings: newSettings(GoogleBaseURL, opts),
	}
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		Text string `json:"text"`
	} `json:"candidates"`
}

// Name returns the provider identifier
func (a *GoogleAgent) Name() string {
	return "google"
}

// Generate folds the system message into the user prompt and extracts
// candidates[0].content.parts[0].text, or candidates[0].text if that is absent
func (a *GoogleAgent) Generate(ctx context.Context, messages []Message) (string, error) {
	prompt, err := combinedPrompt(messages)
	if err != nil {
		return "", err
	}

	reqBody := googleRequest{
		Contents: []googleContent{{Parts: []googlePart{{Text: prompt}}}},
		GenerationConfig: googleGenerationConfig{
			Temperature:     Temperature,
			MaxOutputTokens: GoogleMaxOutputTokens,
		},
	}
	// The key goes in a header so it never shows up in a transport error's URL
	headers := map[string]string{"x-goog-api-key": a.apiKey}
	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(a.endpoint, "/"), url.PathEscape(a.model))

	var resp googleResponse
	if err := a.postJSON(ctx, a.Name(), endpoint, headers, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", extractionError(a.Name(), http.StatusOK, "no candidates in response", resp)
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil && len(candidate.Content.Parts) > 0 && candidate.Content.Parts[0].Text != nil {
		return *candidate.Content.Parts[0].Text, nil
	}
	if candidate.Text != "" {
		return candidate.Text, nil
	}

	return "", extractionError(a.Name(), http.StatusOK, "cannot extract text from response", resp)
}

// combinedPrompt joins the first system and first user message
func combinedPrompt(messages []Message) (string, error) {
	var system, user *Message
	for i := range messages {
		switch messages[i].Role {
		case RoleSystem:
			if system == nil {
				system = &messages[i]
			}
		case RoleUser:
			if user == nil {
				user = &messages[i]
			}
		}
	}

	if user == nil {
		return "", fmt.Errorf("no user message to send")
	}
	if system == nil {
		return user.Content, nil
	}
	return system.Content + "\n\n" + user.Content, nil
}
