package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpo-explorer/backend/internal/evaluation"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var (
		goldenPath string
		k          int
		minRecall  float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure ranking quality against a golden query set",
		Long: `Run every query in a golden set through the search pipeline and report
Recall@K and MRR@K against the expected open days.

Example:
  jpo evaluate --golden internal/evaluation/testdata/golden_queries.json --k 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.LLM.RequireLLMKey(); err != nil {
				return err
			}

			queries, err := evaluation.LoadGoldenQueries(goldenPath)
			if err != nil {
				return err
			}
			if err := evaluation.ValidateGoldenQueries(queries); err != nil {
				return fmt.Errorf("invalid golden set: %w", err)
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := evaluation.NewRunner(a.search, k).Run(cmd.Context(), queries)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, summary); err != nil {
				return err
			}

			if summary.AvgRecall < minRecall {
				return fmt.Errorf("average recall@%d %.3f is below %.3f", summary.K, summary.AvgRecall, minRecall)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&goldenPath, "golden", "", "path to the golden queries JSON file")
	cmd.Flags().IntVar(&k, "k", evaluation.DefaultK, "rank cutoff for recall and MRR")
	cmd.Flags().Float64Var(&minRecall, "min-recall", 0, "fail when average recall falls below this value")
	_ = cmd.MarkFlagRequired("golden")
	return cmd
}
