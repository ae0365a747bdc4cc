package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iishyfishyy/termbuddy/internal/config"
	"go.uber.org/zap"
)

// Role is the author of a message
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of the normalized conversation handed to every backend
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Agent represents an LLM backend that turns a conversation into shell code
type Agent interface {
	// Generate sends messages in a single attempt and returns the raw model text
	Generate(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider identifier
	Name() string
}

// Sampling parameters shared by every backend
const (
	Temperature           = 0.3
	MaxTokens             = 4000
	GoogleMaxOutputTokens = 8000
)

// Fixed provider endpoints
const (
	OpenAIURL     = "https://api.openai.com/v1/chat/completions"
	GrokURL       = "https://api.x.ai/v1/chat/completions"
	AnthropicURL  = "https://api.anthropic.com/v1/messages"
	GoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	OllamaURL     = "http://localhost:11434/api/chat"
)

// DefaultSystemPrompt is sent to Anthropic when the conversation carries no system message
const DefaultSystemPrompt = `You are a command-generation assistant.
Your job is to review the user's request and output valid shell code that can be run directly on their system.

If help documentation is provided for a command mentioned in the request, use that command's documented options and subcommands instead of generic package manager equivalents.

Your response must contain only the shell code: no explanations, no comments, no markdown fences and no extra text.`

// ErrUnknownProvider is returned by New for an unsupported provider identifier
var ErrUnknownProvider = errors.New("unknown provider")

// UpstreamError reports a failed call to a provider: a transport failure
// (StatusCode 0), a non-2xx status, or a 2xx body without the expected text
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Detail, e.Err)
	case e.StatusCode != 0 && !isSuccess(e.StatusCode):
		return fmt.Sprintf("%s (status %d): %s", e.Provider, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Option customizes how an agent talks to its backend
type Option func(*settings)

type settings struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// WithEndpoint replaces the fixed provider URL. For Google it is the models base URL.
func WithEndpoint(url string) Option {
	return func(s *settings) { s.endpoint = url }
}

// WithHTTPClient sets the client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithLogger sets the debug logger
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(defaultEndpoint string, opts []Option) settings {
	s := settings{endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// New returns the agent for cfg.Provider. This is the only place that
// branches on provider identity.
func New(cfg *config.Config, opts ...Option) (Agent, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIAgent(cfg.APIKey, cfg.Model, opts...), nil
	case config.ProviderGrok:
		return NewGrokAgent(cfg.APIKey, cfg.Model, opts...), nil
	case config.ProviderAnthropic:
		return NewAnthropicAgent(cfg.APIKey, cfg.Model, opts...), nil
	case config.ProviderGoogle:
		return NewGoogleAgent(cfg.APIKey, cfg.Model, opts...), nil
	case config.ProviderOllama:
		return NewOllamaAgent(cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// splitSystem separates the first system message from the rest
func splitSystem(messages []Message) (system *Message, rest []Message) {
	rest = make([]Message, 0, len(messages))
	for i := range messages {
		if messages[i].Role == RoleSystem {
			if system == nil {
				system = &messages[i]
			}
			continue
		}
		rest = append(rest, messages[i])
	}
	return system, rest
}

func requireMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("no messages to send")
	}
	return nil
}
