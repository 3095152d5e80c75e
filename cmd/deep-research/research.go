// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/tasks"
	"github.com/pdiddy/deep-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic...]",
	Short: "Research a topic and write a Markdown report",
	Long: `Research decomposes the topic into diverse sub-queries, searches and
scrapes sources for each, and compiles a report into the output directory.

By default the report is produced in the foreground and its path printed.
With --background the pipeline runs as a tracked task whose status is
polled until it finishes. With --detach the topic is submitted to a running
"deep-research serve" instance and only the task id is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("num-queries", 0, "number of sub-queries to research (default from config, 5)")
	researchCmd.Flags().Bool("background", false, "run as a tracked background task and poll its status")
	researchCmd.Flags().Bool("detach", false, "submit to a running server and return the task id")
	researchCmd.Flags().String("server", "", "server URL for --detach (default http://localhost<serve.addr>)")
	researchCmd.Flags().Duration("poll", 2*time.Second, "status poll interval for --background")
	researchCmd.Flags().Bool("no-summary", false, "skip LLM summaries of scraped pages")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return fmt.Errorf("provide a research topic")
	}
	numQueries, _ := cmd.Flags().GetInt("num-queries")
	if numQueries < 0 {
		return fmt.Errorf("--num-queries must not be negative")
	}
	background, _ := cmd.Flags().GetBool("background")
	detach, _ := cmd.Flags().GetBool("detach")
	noSummary, _ := cmd.Flags().GetBool("no-summary")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if noSummary {
		a.cfg.Scrape.Summarize = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if detach {
		server, _ := cmd.Flags().GetString("server")
		if server == "" {
			server = localServerURL(a.cfg.Serve.Addr)
		}
		id, err := (&apiClient{BaseURL: server}).Submit(ctx, topic)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	p, err := a.pipeline(ctx, numQueries, os.Stderr)
	if err != nil {
		return err
	}

	if !background {
		out, err := p.Run(ctx, topic)
		if err != nil {
			return err
		}
		fmt.Println(out.Path)
		return nil
	}

	var journal tasks.Journal
	if store, err := a.archive(); err == nil && store != nil {
		journal = store
	}
	tracker := tasks.NewTracker(p, journal, a.log.Named("tasks"))
	id := tracker.Submit(ctx, topic)
	fmt.Fprintf(os.Stderr, "started task %s\n", id)

	poll, _ := cmd.Flags().GetDuration("poll")
	st, err := pollTask(ctx, tracker, id, poll)
	if err != nil {
		return err
	}
	if st.Status == types.TaskError {
		return fmt.Errorf("task %s failed: %s", id, st.Error)
	}
	fmt.Println(st.FilePath)
	return nil
}

// pollTask checks the task every interval until it reaches a terminal state
// or ctx is cancelled.
func pollTask(ctx context.Context, tracker *tasks.Tracker, id string, interval time.Duration) (types.TaskState, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	for {
		st, _ := tracker.Wait(id, interval)
		if st.Status.IsTerminal() {
			return st, nil
		}
		if st.Status == types.TaskNotFound {
			return st, fmt.Errorf("task %s not found", id)
		}
		select {
		case <-ctx.Done():
			return st, fmt.Errorf("stopped waiting for task %s: %w", id, ctx.Err())
		default:
		}
		fmt.Fprintf(os.Stderr, "task %s: %s (started %s)\n", id, st.Status, st.StartTime)
	}
}

// localServerURL turns a listen address such as ":8080" into a URL.
func localServerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
