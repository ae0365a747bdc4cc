package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iishyfishyy/termbuddy/internal/agent"
	"github.com/iishyfishyy/termbuddy/internal/config"
	"github.com/iishyfishyy/termbuddy/internal/docs"
	"github.com/iishyfishyy/termbuddy/internal/executor"
	"github.com/iishyfishyy/termbuddy/internal/history"
	"github.com/iishyfishyy/termbuddy/internal/logging"
	"github.com/iishyfishyy/termbuddy/internal/prompt"
	"github.com/iishyfishyy/termbuddy/internal/shellinit"
	"github.com/iishyfishyy/termbuddy/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// CLI flags
	debug       bool
	copyResult  bool
	historyMode string
)

// historyModeEnv sets the default output mode of the history command
const historyModeEnv = "TERMBUDDY_HISTORY_MODE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(routeArgs(os.Args[1:]))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.ShowError(err.Error())
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "termbuddy <request>",
		Short:         "Turn a plain-language request into a shell command",
		Long:          "termbuddy asks the configured AI provider for a shell command that does what you describe and prints it",
		Version:       version + " (" + commit + ", " + date + ")",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			return a.generate(cmd.Context(), args, copyResult)
		},
	}
	// Everything after the first word belongs to the request
	rootCmd.Flags().SetInterspersed(false)
	// "help" and "completion" are ordinary request words
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&copyResult, "copy", "c", false, "Also copy the generated command to the clipboard")

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Choose a provider, model and API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.setup()
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history [filter]",
		Short: "List commands generated in the current directory",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mode, err := history.ParseMode(historyMode)
			if err != nil {
				return err
			}
			return a.showHistory(cmd.Context(), strings.Join(args, " "), mode)
		},
	}
	historyCmd.Flags().StringVarP(&historyMode, "mode", "m", os.Getenv(historyModeEnv),
		"Output mode: commands, interactive, json or yaml")

	initCmd := &cobra.Command{
		Use:       "init <zsh|bash|fish>",
		Short:     "Print the shell integration snippet",
		Args:      cobra.ExactArgs(1),
		ValidArgs: shellinit.Shells,
		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, err := shellinit.Snippet(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(snippet))
			return err
		},
	}

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)

	return rootCmd
}

// routeArgs sends a request that merely starts with a subcommand name, such
// as "init a git repo", to the root command instead of the subcommand.
// Leading flags are skipped; root flags are booleans and take no value.
func routeArgs(args []string) []string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && args[i] != "--" {
		i++
	}
	if i == len(args) {
		return args
	}

	words := args[i:]
	fits := true
	switch words[0] {
	case "setup":
		fits = len(words) == 1
	case "init":
		_, err := shellinit.Snippet(strings.Join(words[1:], " "))
		fits = len(words) == 2 && err == nil
	}
	if fits {
		return args
	}

	routed := make([]string, 0, len(args)+1)
	routed = append(routed, args[:i]...)
	routed = append(routed, "--")
	return append(routed, words...)
}

// newApp wires the real dependencies. Paths are resolved here and nowhere else.
func newApp() (*app, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}

	logger := logging.New(debug)

	prober := docs.NewProber(executor.New(logger), logger)
	prober.SetCustomDocs(docs.LoadCustomDocs(paths.Commands, logger))

	return &app{
		paths:       paths,
		stdout:      os.Stdout,
		logger:      logger,
		loadConfig:  config.Load,
		newAgent:    agent.New,
		agentOpts:   []agent.Option{agent.WithLogger(logger.Named("agent"))},
		prober:      prober,
		detectEnv:   prompt.DetectEnv,
		openHistory: history.Open,
	}, nil
}
