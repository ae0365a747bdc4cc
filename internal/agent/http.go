package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// maxDetail bounds how much of an unexpected body ends up in an error message
const maxDetail = 500

// postJSON sends body to url and decodes a 2xx response into out.
// A transport failure and a non-2xx status take different paths but both
// come back as *UpstreamError.
func (s settings) postJSON(ctx context.Context, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	s.logger.Debug("sending request", zap.String("provider", provider), zap.String("url", url), zap.Int("bytes", len(payload)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Provider: provider, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Detail: "failed to read response", Err: err}
	}

	s.logger.Debug("received response", zap.String("provider", provider), zap.Int("status", resp.StatusCode), zap.Int("bytes", len(data)))

	if !isSuccess(resp.StatusCode) {
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Detail: errorDetail(data, resp.StatusCode)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &UpstreamError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Detail:     "unexpected API response: " + truncate(string(data)),
			Err:        err,
		}
	}

	return nil
}

// errorDetail pulls the upstream error message out of an error body. OpenAI,
// Anthropic and Google nest it as {"error":{"message":...}}, Ollama sends
// {"error":"..."}.
func errorDetail(body []byte, status int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
			return msg
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Sprintf("API error: %d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("API error: %d %s", status, truncate(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxDetail {
		return s
	}
	return s[:maxDetail] + "..."
}

// extractionError reports a 2xx response that lacks the expected text
func extractionError(provider string, status int, what string, body any) error {
	raw, _ := json.Marshal(body)
	return &UpstreamError{
		Provider:   provider,
		StatusCode: status,
		Detail:     fmt.Sprintf("%s: %s", what, truncate(string(raw))),
	}
}
