package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/iishyfishyy/termbuddy/internal/config"
	"github.com/iishyfishyy/termbuddy/internal/shellinit"
	"github.com/iishyfishyy/termbuddy/internal/ui"
)

// setup runs the interactive wizard and saves the result
func (a *app) setup() error {
	ui.ShowInfo("termbuddy setup\n")

	provider, err := ui.PromptProvider()
	if err != nil {
		return err
	}

	model, err := ui.PromptModel(provider)
	if err != nil {
		return err
	}

	cfg := &config.Config{Provider: provider, Model: model}
	if ui.RequiresAPIKey(provider) {
		if cfg.APIKey, err = ui.PromptAPIKey(provider); err != nil {
			return err
		}
	}

	exists, err := config.Exists(a.paths.Config)
	if err != nil {
		return fmt.Errorf("failed to check config: %w", err)
	}
	if exists {
		// Keep settings the wizard does not ask about
		if prev, err := a.loadConfig(a.paths.Config); err == nil {
			cfg.History = prev.History
		}
		ui.ShowInfo(fmt.Sprintf("Replacing existing config at %s", a.paths.Config))
	}

	if err := config.Save(a.paths.Config, cfg); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Config saved to %s", a.paths.Config))

	if err := a.setupShell(); err != nil {
		ui.ShowWarning(fmt.Sprintf("shell integration skipped: %v", err))
	}

	ui.ShowInfo("\nUsage:")
	ui.ShowInfo("  1. In your terminal, type :: followed by your request")
	ui.ShowInfo("  2. Press Enter and wait for the command to appear")
	ui.ShowInfo("  3. Press Enter again to execute")
	ui.ShowInfo("\nOr run it directly: termbuddy list running docker containers")
	return nil
}

func (a *app) setupShell() error {
	shell, ok := shellinit.Detect(os.Getenv("SHELL"))
	if !ok {
		ui.ShowInfo(fmt.Sprintf("\nDetected shell: %s", os.Getenv("SHELL")))
		ui.ShowInfo("Manual integration required: add the output of `termbuddy init <zsh|bash|fish>` to your shell config")
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	rc, err := shellinit.RCFile(home, shell)
	if err != nil {
		return err
	}

	add, err := ui.PromptYesNo(fmt.Sprintf("Add termbuddy integration to your %s config (%s)?", shell, rc), true)
	if err != nil || !add {
		return err
	}

	added, err := shellinit.Install(rc, shell)
	if err != nil {
		return err
	}
	a.logger.Debug("shell integration", zap.String("rc", rc), zap.Bool("added", added))

	if !added {
		ui.ShowSuccess("termbuddy integration already exists in your shell config")
		return nil
	}
	ui.ShowSuccess(fmt.Sprintf("termbuddy integration added to %s", rc))
	ui.ShowInfo(fmt.Sprintf("Run: source %s", rc))
	return nil
}
