package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/api/mcptools"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search as MCP tools over stdio",
		Long: `Serve search as Model Context Protocol tools over stdio.

Tools: search_open_days, list_facets. Logs go to stderr; stdout carries the
protocol only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.LLM.RequireLLMKey(); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return server.ServeStdio(mcptools.NewServer(a.search, version))
		},
	}
}
