package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

type searchFlags struct {
	region      string
	city        string
	institution string
	diploma     string
}

func (f searchFlags) request(args []string) entities.SearchRequest {
	return entities.SearchRequest{
		Query: strings.Join(args, " "),
		Facets: entities.Facets{
			Region:      f.region,
			City:        f.city,
			Institution: f.institution,
			DiplomaType: f.diploma,
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Run one search and print the result bundle as JSON",
		Long: `Run one search and print the result bundle as JSON.

Examples:
  jpo search informatique Lyon
  jpo search "master droit" --region "Île-de-France"
  jpo search --city Rennes --diploma Master`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.LLM.RequireLLMKey(); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.search.Search(cmd.Context(), flags.request(args))
			if err != nil {
				return err
			}
			return printJSON(cmd, result.Bundle)
		},
	}

	cmd.Flags().StringVar(&flags.region, "region", "", "exact region name")
	cmd.Flags().StringVar(&flags.city, "city", "", "exact city name")
	cmd.Flags().StringVar(&flags.institution, "institution", "", "exact institution name")
	cmd.Flags().StringVar(&flags.diploma, "diploma", "", "exact diploma type")
	return cmd
}

func newFacetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "facets",
		Short: "Print the values available for each facet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			options, err := a.search.FacetOptions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, options)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
