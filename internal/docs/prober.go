// Package docs looks up the --help output of well-known tools mentioned in a
// request so the model can prefer a tool's own subcommands.
package docs

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCommands is the allow-list of executables whose help may be probed.
// Order matters: documentation is emitted in this order.
var DefaultCommands = []string{
	"git", "npm", "docker", "pacman", "yay", "systemctl", "journalctl",
	"claude", "cargo", "python", "node", "curl", "wget",
}

// maxParallel bounds how many help invocations run at once
const maxParallel = 4

// Runner is the process capability the prober needs
type Runner interface {
	LookPath(name string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Entry is the help text captured for one command
type Entry struct {
	Command string
	Help    string
}

// Prober collects documentation for allow-listed commands
type Prober struct {
	commands []string
	runner   Runner
	logger   *zap.Logger
	custom   []CustomDoc
}

// NewProber creates a prober over commands, or DefaultCommands when none are given
func NewProber(runner Runner, logger *zap.Logger, commands ...string) *Prober {
	if len(commands) == 0 {
		commands = DefaultCommands
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		commands: commands,
		runner:   runner,
		logger:   logger.Named("docs"),
	}
}

// SetCustomDocs sets user-written docs that are matched against each request
// and appended after the probed help
func (p *Prober) SetCustomDocs(docs []CustomDoc) {
	p.custom = docs
}

// Probe returns the formatted documentation block for request, or "" when
// nothing relevant is mentioned or available. It never fails.
func (p *Prober) Probe(ctx context.Context, request string) string {
	return Format(p.Collect(ctx, request))
}

// Collect probes every mentioned command and returns the ones that produced
// help output, in allow-list order, followed by any matching custom docs
func (p *Prober) Collect(ctx context.Context, request string) []Entry {
	entries := p.probeAll(ctx, Mentioned(request, p.commands))

	if custom := MatchCustomDocs(request, p.custom, maxCustomDocs, p.commands); len(custom) > 0 {
		p.logger.Debug("matched custom docs", zap.Int("count", len(custom)))
		entries = append(entries, custom...)
	}
	return entries
}

func (p *Prober) probeAll(ctx context.Context, mentioned []string) []Entry {
	if len(mentioned) == 0 {
		return nil
	}

	p.logger.Debug("probing commands", zap.Strings("commands", mentioned))

	results := make([]*Entry, len(mentioned))
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, name := range mentioned {
		i, name := i, name
		g.Go(func() error {
			results[i] = p.probeOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

// probeOne fetches help for a single command, returning nil on any failure
func (p *Prober) probeOne(ctx context.Context, name string) (entry *Entry) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("probe panicked", zap.String("command", name), zap.Any("panic", r))
			entry = nil
		}
	}()

	path, err := p.runner.LookPath(name)
	if err != nil {
		p.logger.Debug("not on PATH", zap.String("command", name))
		return nil
	}

	out, err := p.runner.CombinedOutput(ctx, path, "--help")
	if err != nil {
		// Some tools print usage and then exit non-zero; keep that text too
		failed := strings.TrimRight(string(out), "\r\n")
		out, err = p.runner.CombinedOutput(ctx, path, "-h")
		if err != nil {
			p.logger.Debug("no help available", zap.String("command", name), zap.Error(err))
			return nil
		}
		if strings.TrimSpace(failed) != "" {
			out = append([]byte(failed+"\n"), out...)
		}
	}

	help := strings.TrimRight(string(out), "\r\n")
	if strings.TrimSpace(help) == "" {
		return nil
	}

	p.logger.Debug("captured help", zap.String("command", name), zap.Int("bytes", len(help)))
	return &Entry{Command: name, Help: help}
}

// Format renders entries as markdown sections labelled by command name
func Format(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	sections := make([]string, len(entries))
	for i, e := range entries {
		sections[i] = "## " + e.Command + "\n\n" + e.Help
	}
	return strings.Join(sections, "\n\n")
}

// Mentioned returns the commands that appear in request as whole words,
// compared case-insensitively, in the order of commands
func Mentioned(request string, commands []string) []string {
	words := make(map[string]bool)
	for _, w := range tokenize(request) {
		words[w] = true
	}

	var found []string
	for _, cmd := range commands {
		if words[strings.ToLower(cmd)] {
			found = append(found, cmd)
		}
	}
	return found
}

// tokenize splits text into lowercase words made of letters, digits, '-' and '_'
func tokenize(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
