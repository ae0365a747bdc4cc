// Package prompt builds the conversation sent to every backend.
package prompt

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/iishyfishyy/termbuddy/internal/agent"
)

// Env describes the machine the generated command will run on
type Env struct {
	Shell    string
	Platform string
	Arch     string
	Cwd      string
}

// DetectEnv reads SHELL, the OS, the CPU architecture and the working directory
func DetectEnv() (Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Env{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "unknown"
	}

	return Env{
		Shell:    shell,
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		Cwd:      cwd,
	}, nil
}

// SystemPrompt returns the instruction block for shell and platform
func SystemPrompt(shell, platform string) string {
	return fmt.Sprintf(`You are a command-generation assistant.
Your job is to review the user's request and output valid shell code that can be run directly on their system.

IMPORTANT: If help documentation is provided for a specific command mentioned in the request, you MUST use that command's documented options and subcommands. For example:
- If "claude --help" shows an "update" command, use "claude update" NOT package manager commands
- If "npm --help" shows "install", use "npm install" NOT generic package manager commands
- Always prefer the command's own built-in functionality when available

Your response must contain **only** the shell code: no explanations, no comments, no markdown fences, and no extra text.

The user is running:
- Shell: %s
- System: %s

Generate commands appropriate for their shell and system. Always produce code that is ready to copy and paste into their terminal.`, shell, platform)
}

// UserPrompt returns the user message body. docs is omitted entirely when empty.
func UserPrompt(env Env, docs, request string) string {
	var b strings.Builder
	if docs != "" {
		b.WriteString("COMMAND DOCUMENTATION (use this first):\n")
		b.WriteString(docs)
		b.WriteString("\n\n---\n\n")
	}
	fmt.Fprintf(&b, "USER REQUEST: %s\n\nUser current path: %s\nArchitecture: %s", request, env.Cwd, env.Arch)
	return b.String()
}

// Compose returns the system and user messages for request
func Compose(env Env, docs, request string) []agent.Message {
	return []agent.Message{
		{Role: agent.RoleSystem, Content: SystemPrompt(env.Shell, env.Platform)},
		{Role: agent.RoleUser, Content: UserPrompt(env, docs, request)},
	}
}
