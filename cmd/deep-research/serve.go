// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/api"
	"github.com/pdiddy/deep-research/internal/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research HTTP API",
	Long: `Serve exposes background research over HTTP:

  POST /api/research        {"query": "..."} starts a task, returns its id
  GET  /api/research        lists tasks started by this server
  GET  /api/research/:id    reports a task's status and report path
  POST /api/decompose       {"query": "...", "num_queries": 5}
  GET  /api/reports         lists or searches archived reports (?q=&since=&limit=)
  GET  /api/reports/:id     returns one archived report
  GET  /health

On SIGINT or SIGTERM the server stops accepting requests and waits up to
--drain for running tasks to finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Duration("drain", 30*time.Second, "how long to wait for running tasks on shutdown")
	serveCmd.Flags().Int("num-queries", 0, "sub-queries per task (default from config, 5)")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	numQueries, _ := cmd.Flags().GetInt("num-queries")
	p, err := a.pipeline(ctx, numQueries, io.Discard)
	if err != nil {
		return err
	}

	srv := &api.Server{Decomposer: p.Decomposer, Logger: a.log.Named("api")}
	var journal tasks.Journal
	store, err := a.archive()
	if err != nil {
		a.log.Warn("report archive disabled", zap.Error(err))
	} else if store != nil {
		journal = store
		srv.Reports = store
	}
	tracker := tasks.NewTracker(p, journal, a.log.Named("tasks"))
	srv.Tasks = tracker

	fmt.Fprintf(os.Stderr, "listening on %s\n", a.cfg.Serve.Addr)
	serveErr := srv.ListenAndServe(ctx, a.cfg.Serve.Addr)

	drain, _ := cmd.Flags().GetDuration("drain")
	drainCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := tracker.Shutdown(drainCtx); err != nil {
		a.log.Warn("tasks still running at shutdown", zap.Error(err))
	}
	return serveErr
}
