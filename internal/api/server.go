// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes research tasks, query decomposition and the report
// archive over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/pkg/types"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// shutdownTimeout bounds graceful shutdown of in-flight requests.
var shutdownTimeout = 10 * time.Second

// TaskService submits and tracks background research. *tasks.Tracker
// implements it.
type TaskService interface {
	Submit(ctx context.Context, topic string) string
	Status(id string) types.TaskState
	ListActive() []types.TaskSummary
}

// Decomposer splits a topic into sub-queries. *decompose.Decomposer
// implements it.
type Decomposer interface {
	Decompose(ctx context.Context, topic string, numQueries int) (types.ResearchQuery, error)
}

// ReportStore reads the report archive. *archive.Store implements it.
type ReportStore interface {
	Search(ctx context.Context, opts archive.QueryOptions) ([]types.ReportRecord, error)
	Report(ctx context.Context, id int64) (types.ReportRecord, error)
}

// Server holds the collaborators behind the HTTP routes. Decomposer and
// Reports are optional; their routes are not registered when nil.
type Server struct {
	Tasks      TaskService
	Decomposer Decomposer
	Reports    ReportStore
	Logger     *zap.Logger
}

// Router constructs a Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(s.logger()))

	r.GET("/health", s.handleHealth)

	research := r.Group("/api/research")
	research.POST("", s.handleSubmit)
	research.GET("", s.handleListTasks)
	research.GET("/:id", s.handleTaskStatus)

	if s.Decomposer != nil {
		r.POST("/api/decompose", s.handleDecompose)
	}
	if s.Reports != nil {
		reports := r.Group("/api/reports")
		reports.GET("", s.handleListReports)
		reports.GET("/:id", s.handleGetReport)
	}
	return r
}

// ListenAndServe serves the router on addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// requestID propagates an incoming request id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
