// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, search, show and export saved reports",
	Long: `Reports works with the archive database that indexes every saved
report. Use subcommands to list recent reports, search them with full-text
queries, print one, or export records as YAML or JSON.`,
}

// --- list subcommand ---

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	RunE:  runReportsList,
}

func runReportsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	files, _ := cmd.Flags().GetBool("files")
	if files {
		paths, err := research.ListReports(a.cfg.Report.OutputDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	store, err := requireArchive(a)
	if err != nil {
		return err
	}
	opts := archive.QueryOptions{}
	opts.Since, _ = cmd.Flags().GetString("since")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")
	records, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatReports(os.Stdout, records, jsonOutput)
}

// --- search subcommand ---

var reportsSearchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search over report topics, sub-queries and content",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReportsSearch,
}

func runReportsSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	store, err := requireArchive(a)
	if err != nil {
		return err
	}

	opts := archive.QueryOptions{Query: strings.Join(args, " ")}
	opts.Since, _ = cmd.Flags().GetString("since")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")
	records, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatReports(os.Stdout, records, jsonOutput)
}

// --- show subcommand ---

var reportsShowCmd = &cobra.Command{
	Use:   "show [id | path]",
	Short: "Print a report by archive id or file path",
	Long: `Show prints an archived report by numeric id, or a report file by path.
With --metadata the YAML sidecar of a report file (decomposition scores and
per-sub-query sources) is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsShow,
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	metadata, _ := cmd.Flags().GetBool("metadata")

	id, idErr := strconv.ParseInt(args[0], 10, 64)
	if idErr != nil {
		if metadata {
			m, err := research.LoadMetadata(args[0])
			if err != nil {
				return err
			}
			return printMetadata(os.Stdout, m)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading report: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	store, err := requireArchive(a)
	if err != nil {
		return err
	}
	rec, err := store.Report(cmd.Context(), id)
	if err != nil {
		return err
	}
	if metadata {
		m, err := research.LoadMetadata(rec.Path)
		if err != nil {
			return err
		}
		return printMetadata(os.Stdout, m)
	}
	fmt.Print(rec.Content)
	return nil
}

// --- export subcommand ---

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived reports to YAML or JSON",
	Long: `Export writes every archived report (or those matching --query and
--since) with its content to stdout or --output.`,
	RunE: runReportsExport,
}

func runReportsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != archive.FormatYAML && format != archive.FormatJSON {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	store, err := requireArchive(a)
	if err != nil {
		return err
	}

	opts := archive.QueryOptions{IncludeContent: true}
	opts.Query, _ = cmd.Flags().GetString("query")
	opts.Since, _ = cmd.Flags().GetString("since")

	var w io.Writer = os.Stdout
	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := store.Export(cmd.Context(), w, format, opts); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func requireArchive(a *app) (*archive.Store, error) {
	store, err := a.archive()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("the archive is disabled (archive.path is empty)")
	}
	return store, nil
}

func formatReports(w io.Writer, records []types.ReportRecord, jsonOutput bool) error {
	if jsonOutput {
		if records == nil {
			records = []types.ReportRecord{}
		}
		return writeJSON(w, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-20s  %-50s  %-7s  %s\n", "ID", "Created", "Query", "Sources", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range records {
		query := r.Query
		if len(query) > 50 {
			query = query[:47] + "..."
		}
		fmt.Fprintf(w, "%-5d  %-20s  %-50s  %-7d  %s\n", r.ID, r.CreatedAt, query, r.SourceCount, r.Path)
	}
	fmt.Fprintf(w, "\n%d reports\n", len(records))
	return nil
}

func printMetadata(w io.Writer, m *research.Metadata) error {
	fmt.Fprintf(w, "report:    %s\ngenerated: %s\n", m.ReportFile, m.GeneratedAt)
	printDecomposition(w, m.Decomposition)
	fmt.Fprintln(w)
	for _, r := range m.Results {
		fmt.Fprintf(w, "%s (%d sources)\n", r.Query, len(r.Sources))
		for _, s := range r.Sources {
			fmt.Fprintf(w, "  [%d] %s\n      %s\n", s.Score, s.Title, s.URL)
		}
	}
	return nil
}

func init() {
	reportsCmd.PersistentFlags().String("since", "", "only reports created at or after this RFC 3339 time")

	reportsListCmd.Flags().Int("limit", 0, "maximum reports to list (0 = config default)")
	reportsListCmd.Flags().Bool("json", false, "output as JSON")
	reportsListCmd.Flags().Bool("files", false, "list report files in the output directory instead of the archive")

	reportsSearchCmd.Flags().Int("limit", 0, "maximum results (0 = config default)")
	reportsSearchCmd.Flags().Bool("json", false, "output as JSON")

	reportsShowCmd.Flags().Bool("metadata", false, "print the report's metadata sidecar instead of its content")

	reportsExportCmd.Flags().String("format", archive.FormatYAML, "export format: yaml or json")
	reportsExportCmd.Flags().String("query", "", "full-text filter for a partial export")
	reportsExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsSearchCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsExportCmd)

	rootCmd.AddCommand(reportsCmd)
}
