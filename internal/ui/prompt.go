package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/iishyfishyy/termbuddy/internal/config"
)

// Output receives every diagnostic. Standard output is reserved for the
// generated command.
var Output io.Writer = os.Stderr

// DefaultModels is the model suggested for each provider during setup
var DefaultModels = map[config.Provider]string{
	config.ProviderOpenAI:    "gpt-5-nano",
	config.ProviderAnthropic: "claude-haiku-4-5",
	config.ProviderGoogle:    "gemini-2.5-flash",
	config.ProviderGrok:      "grok-3-mini",
	config.ProviderOllama:    "llama3.2",
}

var providerLabels = map[config.Provider]string{
	config.ProviderOpenAI:    "OpenAI",
	config.ProviderAnthropic: "Anthropic",
	config.ProviderGoogle:    "Google Gemini",
	config.ProviderGrok:      "xAI Grok",
	config.ProviderOllama:    "Ollama (local, no API key)",
}

// surveyIO sends prompts to stderr so a redirected stdout stays clean
var surveyIO = survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)

// IsInteractive reports whether stderr is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// RequiresAPIKey reports whether provider authenticates with a key
func RequiresAPIKey(p config.Provider) bool {
	return p != config.ProviderOllama
}

// PromptProvider asks the user to pick a provider
func PromptProvider() (config.Provider, error) {
	options := make([]string, len(config.Providers))
	byLabel := make(map[string]config.Provider, len(config.Providers))
	for i, p := range config.Providers {
		options[i] = providerLabels[p]
		byLabel[options[i]] = p
	}

	var choice string
	prompt := &survey.Select{
		Message: "Select an AI provider:",
		Options: options,
		Default: options[0],
	}

	if err := survey.AskOne(prompt, &choice, surveyIO); err != nil {
		return "", err
	}

	return byLabel[choice], nil
}

// PromptModel asks for the model name, suggesting the provider default
func PromptModel(p config.Provider) (string, error) {
	var model string
	prompt := &survey.Input{
		Message: "Model:",
		Default: DefaultModels[p],
	}

	if err := survey.AskOne(prompt, &model, survey.WithValidator(survey.Required), surveyIO); err != nil {
		return "", err
	}

	return model, nil
}

// PromptAPIKey asks for the provider's API key without echoing it
func PromptAPIKey(p config.Provider) (string, error) {
	var key string
	prompt := &survey.Password{
		Message: fmt.Sprintf("Enter your %s API key:", providerLabels[p]),
	}

	if err := survey.AskOne(prompt, &key, survey.WithValidator(survey.Required), surveyIO); err != nil {
		return "", err
	}

	return key, nil
}

// PromptYesNo asks a yes/no question
func PromptYesNo(message string, def bool) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer, surveyIO); err != nil {
		return false, err
	}

	return answer, nil
}

// ShowThinking prints a progress line when a person is watching stderr
func ShowThinking() {
	if !IsInteractive() {
		return
	}
	color.New(color.FgHiBlack).Fprintln(Output, "Thinking...")
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(Output, "✓ %s\n", message)
}

// ShowError displays a fatal error as a single line
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(Output, "Error: %s\n", message)
}

// ShowWarning displays a non-fatal problem
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(Output, "Warning: %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Fprintln(Output, message)
}
