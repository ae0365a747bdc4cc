package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/iishyfishyy/termbuddy/internal/agent"
	"github.com/iishyfishyy/termbuddy/internal/config"
	"github.com/iishyfishyy/termbuddy/internal/history"
	"github.com/iishyfishyy/termbuddy/internal/prompt"
	"github.com/iishyfishyy/termbuddy/internal/ui"
)

// usageError reports an invocation without a request
type usageError struct{}

func (usageError) Error() string {
	return `usage: termbuddy <your request> (run "termbuddy setup" first to configure)`
}

// prober returns documentation for the tools a request mentions
type prober interface {
	Probe(ctx context.Context, request string) string
}

// app holds everything a subcommand needs, so tests can swap any piece
type app struct {
	paths  config.Paths
	stdout io.Writer
	logger *zap.Logger

	loadConfig  func(path string) (*config.Config, error)
	newAgent    func(cfg *config.Config, opts ...agent.Option) (agent.Agent, error)
	agentOpts   []agent.Option
	prober      prober
	detectEnv   func() (prompt.Env, error)
	openHistory func(cfg *config.Config, paths config.Paths) (history.Store, error)
}

// generate runs the whole pipeline for one request and prints the command
func (a *app) generate(ctx context.Context, args []string, copyToClipboard bool) error {
	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		return usageError{}
	}

	a.logger.Debug("starting", zap.String("request", request))

	cfg, err := a.loadConfig(a.paths.Config)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf(`config not found at %s. Run "termbuddy setup" first`, a.paths.Config)
		}
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.logger.Debug("config loaded", zap.String("provider", string(cfg.Provider)), zap.String("model", cfg.Model))

	ag, err := a.newAgent(cfg, a.agentOpts...)
	if err != nil {
		return err
	}

	env, err := a.detectEnv()
	if err != nil {
		return err
	}

	documentation := a.prober.Probe(ctx, request)
	messages := prompt.Compose(env, documentation, request)

	ui.ShowThinking()
	raw, err := ag.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("failed to generate command: %w", err)
	}

	command := agent.Sanitize(raw)
	a.logger.Debug("generated command", zap.String("command", command))

	a.record(ctx, cfg, history.NewEntry(env.Cwd, request, command))

	if _, err := fmt.Fprintln(a.stdout, command); err != nil {
		return err
	}

	if copyToClipboard {
		if err := clipboard.WriteAll(command); err != nil {
			ui.ShowWarning(fmt.Sprintf("failed to copy to clipboard: %v", err))
		}
	}

	return nil
}

// record saves entry without ever failing the caller
func (a *app) record(ctx context.Context, cfg *config.Config, entry history.Entry) {
	store, err := a.openHistory(cfg, a.paths)
	if err != nil {
		a.logger.Debug("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	history.Record(ctx, store, entry, a.logger.Named("history"))
}

// showHistory prints past commands for the working directory. A missing or
// unreadable log prints nothing.
func (a *app) showHistory(ctx context.Context, filter string, mode history.Mode) error {
	cfg, err := a.loadConfig(a.paths.Config)
	if err != nil {
		a.logger.Debug("using default history backend", zap.Error(err))
		cfg = &config.Config{}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	var entries []history.Entry
	store, err := a.openHistory(cfg, a.paths)
	if err != nil {
		a.logger.Debug("history unavailable", zap.Error(err))
	} else {
		defer store.Close()
		if entries, err = store.All(ctx); err != nil {
			a.logger.Debug("failed to read history", zap.Error(err))
			entries = nil
		}
	}

	return history.Write(a.stdout, history.Query(entries, cwd, filter), mode)
}
