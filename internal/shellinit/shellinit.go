// Package shellinit provides the line-editor hooks that let a user type
// ":: <request>" at the prompt and get the generated command in place.
package shellinit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marker is present in every snippet and detects an existing installation
const Marker = "termbuddy-command"

// Shells lists the supported shell names
var Shells = []string{"zsh", "bash", "fish"}

const zshSnippet = `
# termbuddy - natural language to shell command
function termbuddy-command() {
    local text="$BUFFER"
    if [[ $text == ::* ]]; then
        text="${text#::}"
        text="${text# }"

        BUFFER="Thinking..."
        CURSOR=$#BUFFER
        zle redisplay

        local command=$(termbuddy "$text" 2>/dev/null)

        if [[ -n "$command" ]]; then
            BUFFER="$command"
        else
            BUFFER=""
        fi
        CURSOR=$#BUFFER
        zle redisplay
    else
        zle accept-line
    fi
}
zle -N termbuddy-command
bindkey '^M' termbuddy-command
`

const bashSnippet = `
# termbuddy - natural language to shell command (type ":: request", then Ctrl-X Ctrl-T)
termbuddy-command() {
    local text="$READLINE_LINE"
    if [[ $text == ::* ]]; then
        text="${text#::}"
        text="${text# }"
        local command
        command=$(termbuddy "$text" 2>/dev/null)
        READLINE_LINE="$command"
        READLINE_POINT=${#READLINE_LINE}
    fi
}
bind -x '"\C-x\C-t": termbuddy-command'
`

const fishSnippet = `
# termbuddy - natural language to shell command
function termbuddy-command
    set -l text (commandline)
    if string match -q -- '::*' "$text"
        set text (string replace -r -- '^::\s?' '' "$text")
        set -l command (termbuddy "$text" 2>/dev/null | string collect)
        commandline -r -- "$command"
        commandline -f repaint
    else
        commandline -f execute
    end
end
bind \r termbuddy-command
`

// Snippet returns the integration code for shell
func Snippet(shell string) (string, error) {
	switch shell {
	case "zsh":
		return zshSnippet, nil
	case "bash":
		return bashSnippet, nil
	case "fish":
		return fishSnippet, nil
	default:
		return "", fmt.Errorf("unsupported shell: %s (supported: %s)", shell, strings.Join(Shells, ", "))
	}
}

// Detect maps a SHELL value such as /usr/bin/zsh to a supported shell name
func Detect(shellPath string) (string, bool) {
	base := filepath.Base(shellPath)
	for _, s := range Shells {
		if base == s {
			return s, true
		}
	}
	return "", false
}

// RCFile returns the startup file for shell under home
func RCFile(home, shell string) (string, error) {
	switch shell {
	case "zsh":
		return filepath.Join(home, ".zshrc"), nil
	case "bash":
		return filepath.Join(home, ".bashrc"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	default:
		return "", fmt.Errorf("unsupported shell: %s", shell)
	}
}

// Install appends the snippet for shell to rcPath, creating the file if
// needed. It reports false when the integration was already present.
func Install(rcPath, shell string) (bool, error) {
	snippet, err := Snippet(shell)
	if err != nil {
		return false, err
	}

	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", rcPath, err)
	}
	if strings.Contains(string(existing), Marker) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(rcPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", rcPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(snippet); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", rcPath, err)
	}

	return true, nil
}
