// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show background research tasks",
	Long: `Status reads the task journal kept in the archive database. With a
task id it prints that task's state; without one it lists recent tasks.
With --server the state is fetched from a running server instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("server", "", "query a running server instead of the local journal")
	statusCmd.Flags().Int("limit", 20, "maximum tasks to list")
	statusCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	server, _ := cmd.Flags().GetString("server")

	if server != "" {
		if len(args) == 0 {
			return fmt.Errorf("--server requires a task id")
		}
		st, err := (&apiClient{BaseURL: server}).Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printTask(os.Stdout, st, jsonOutput)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	store, err := a.archive()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("the archive is disabled (archive.path is empty); no task journal to read")
	}

	if len(args) == 1 {
		st, err := store.Task(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printTask(os.Stdout, st, jsonOutput)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	list, err := store.Tasks(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		if list == nil {
			list = []types.TaskSummary{}
		}
		return writeJSON(os.Stdout, list)
	}
	if len(list) == 0 {
		fmt.Println("No tasks recorded.")
		return nil
	}
	fmt.Printf("%-22s  %-9s  %-26s  %s\n", "ID", "Status", "Started", "Query")
	for _, t := range list {
		fmt.Printf("%-22s  %-9s  %-26s  %s\n", t.ID, t.Status, t.StartTime, t.Query)
	}
	return nil
}

func printTask(w io.Writer, st types.TaskState, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, st)
	}
	if st.Status == types.TaskNotFound {
		fmt.Fprintln(w, "status: not_found")
		return nil
	}
	fmt.Fprintf(w, "id:       %s\nquery:    %s\nstatus:   %s\nstarted:  %s\n", st.ID, st.Query, st.Status, st.StartTime)
	if st.FilePath != "" {
		fmt.Fprintf(w, "report:   %s\n", st.FilePath)
	}
	if st.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", st.Error)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
