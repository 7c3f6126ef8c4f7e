// Package cli defines the command-line interface for meshgen.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/meshgen/internal/logging"
)

const (
	// defaultDir is the default workspace directory.
	defaultDir = "."
)

// Options stores global CLI options shared between commands.
type Options struct {
	Dir      string
	LogLevel logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{
		Dir:      defaultDir,
		LogLevel: logging.LevelInfo,
	}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meshgen",
		Short:         "meshgen composes generated services into one runnable workspace",
		Long:          "meshgen registers independently generated services, designates the entry point, merges their environment and writes the workspace runtime configuration. Running it again against an existing workspace regenerates it in place.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var envCfg baseEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") && envPresent("MESHGEN_DIR") {
				opts.Dir = envCfg.Dir
			}
			levelValue := cmd.Flag("log-level").Value.String()
			if !cmd.Flags().Changed("log-level") && envPresent("MESHGEN_LOG_LEVEL") {
				levelValue = envCfg.LogLevel
			}

			level := logging.ParseLevel(levelValue)
			opts.LogLevel = level
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "d", defaultDir, "Workspace directory")
	cmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newGenerateCommand(opts),
		newInspectCommand(opts),
		newQuestionsCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
