package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
	"github.com/jpo-explorer/backend/pkg/config"
	"github.com/jpo-explorer/backend/pkg/secrets"
)

// rootOptions is shared by every subcommand. cfg is filled in before any
// RunE executes.
type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "jpo",
		Short: "AI-augmented search over French higher-education open days",
		Long: `jpo ranks journées portes ouvertes (open days) for a free-text query.

A language model interprets the query; records are then scored by keyword
matches, recommended records are moved first and exact facets are applied.
Configuration comes from the environment (see DB_*, LLM_*, SEARCH_*), optionally
layered over a config file. With VAULT_ENABLED=true, secrets are read from Vault
first and exported as environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				if err := os.Setenv("CONFIG_FILE", opts.configFile); err != nil {
					return fmt.Errorf("setting config file: %w", err)
				}
			}
			vault, err := secrets.Apply(cmd.Context(), secrets.ConfigFromEnv(), secrets.ProcessEnv)
			if err != nil {
				return fmt.Errorf("loading vault secrets: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			opts.cfg = cfg
			observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)
			if vault.Enabled {
				observability.LoggerFromContext(cmd.Context()).Info().
					Str("path", vault.Path).
					Int("loaded", vault.Loaded).
					Int("skipped", vault.Skipped).
					Msg("vault secrets applied")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml); overrides CONFIG_FILE")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newFacetsCmd(opts),
		newMCPCmd(opts),
		newSeedCmd(opts),
		newEvaluateCmd(opts),
	)
	return cmd
}
