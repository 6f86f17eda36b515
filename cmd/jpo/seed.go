package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/adapters/database"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/sqldb"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the record store schema and load demonstration data",
		Long: `Create the record store schema and load demonstration data.

With --path the data goes into that SQLite file regardless of DB_DRIVER:
  jpo seed --path ./jpo.db
  DB_DRIVER=sqlite DB_PATH=./jpo.db LLM_PROVIDER=none jpo serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg := opts.cfg.Database
			if path != "" {
				dbCfg.Driver = "sqlite"
				dbCfg.Path = path
			}

			store, err := sqldb.NewClient(cmd.Context(), &dbCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := database.Seed(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d open days\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "SQLite file to seed")
	return cmd
}
