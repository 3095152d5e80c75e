// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose [topic...]",
	Short: "Print the sub-queries selected for a topic without researching them",
	Long: `Decompose asks the language model for candidate sub-queries, embeds
them, and greedily selects the subset that best balances coverage of the
topic against diversity between queries. Nothing is searched or saved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecompose,
}

func init() {
	decomposeCmd.Flags().Int("num-queries", 0, "number of sub-queries to select (default from config, 5)")
	decomposeCmd.Flags().Bool("json", false, "output the decomposition as JSON")

	rootCmd.AddCommand(decomposeCmd)
}

func runDecompose(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return fmt.Errorf("provide a research topic")
	}
	numQueries, _ := cmd.Flags().GetInt("num-queries")
	if numQueries < 0 {
		return fmt.Errorf("--num-queries must not be negative")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dec, err := a.decomposer(cmd.Context())
	if err != nil {
		return err
	}
	rq, err := dec.Decompose(cmd.Context(), topic, numQueries)
	if err != nil {
		a.log.Warn("decomposition degraded", zap.Error(err))
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rq)
	}
	printDecomposition(os.Stdout, rq)
	return nil
}

func printDecomposition(w io.Writer, rq types.ResearchQuery) {
	fmt.Fprintf(w, "Topic: %s\n\n", rq.OriginalQuery)
	for i, q := range rq.SubQueries {
		fmt.Fprintf(w, "%2d. %s\n", i+1, q)
	}
	fmt.Fprintf(w, "\ncoverage %.4f  diversity %.4f\n", rq.CoverageScore, rq.DiversityScore)
}
