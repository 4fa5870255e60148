package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/spf13/cobra"
)

// commandContext loads configuration once per invocation and hands it to
// subcommands.
type commandContext struct {
	configDir *string
	loader    *config.Loader
	logger    *slog.Logger
	closeLog  func() error
}

func newCommandContext(configDir *string) *commandContext {
	return &commandContext{configDir: configDir, closeLog: func() error { return nil }}
}

func (c *commandContext) ensureConfig() error {
	if c.loader != nil {
		return nil
	}

	bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	loader := config.NewLoader(*c.configDir, bootstrap)
	if err := loader.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	cfg := loader.Config()
	logger, closeLog := config.SetupLogger(cfg.Telemetry)
	slog.SetDefault(logger)
	for _, err := range cfg.Validate() {
		logger.Warn("configuration problem", "error", err)
	}

	c.loader = loader
	c.logger = logger
	c.closeLog = closeLog
	return nil
}

func (c *commandContext) config() *config.Config { return c.loader.Config() }

func newRootCommand() *cobra.Command {
	var configDir string
	ctx := newCommandContext(&configDir)

	rootCmd := &cobra.Command{
		Use:           "orchestrator",
		Short:         "Chat orchestration and model routing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			return ctx.ensureConfig()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "Path to the configuration directory")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newProfilesCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
