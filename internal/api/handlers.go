// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/pkg/types"
)

type researchRequest struct {
	Query string `json:"query"`
}

type decomposeRequest struct {
	Query      string `json:"query"`
	NumQueries int    `json:"num_queries"`
}

type decomposeResponse struct {
	types.ResearchQuery
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSubmit handles POST /api/research.
func (s *Server) handleSubmit(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	id := s.Tasks.Submit(c.Request.Context(), query)
	s.logger().Info("research task submitted",
		zap.String("task_id", id), zap.String("request_id", c.GetString("request_id")))
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": types.TaskRunning})
}

// handleTaskStatus handles GET /api/research/:id.
func (s *Server) handleTaskStatus(c *gin.Context) {
	st := s.Tasks.Status(c.Param("id"))
	if st.Status == types.TaskNotFound {
		c.JSON(http.StatusNotFound, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handleListTasks handles GET /api/research.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks := s.Tasks.ListActive()
	if tasks == nil {
		tasks = []types.TaskSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// handleDecompose handles POST /api/decompose. Decomposition always yields
// a usable result; fallbacks are reported in the warning field.
func (s *Server) handleDecompose(c *gin.Context) {
	var req decomposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.NumQueries < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "num_queries must not be negative"})
		return
	}

	rq, err := s.Decomposer.Decompose(c.Request.Context(), query, req.NumQueries)
	resp := decomposeResponse{ResearchQuery: rq}
	if err != nil {
		if !types.IsDegraded(err) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// handleListReports handles GET /api/reports?q=&since=&limit=.
func (s *Server) handleListReports(c *gin.Context) {
	opts := archive.QueryOptions{
		Query: c.Query("q"),
		Since: c.Query("since"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts.MaxResults = n
	}

	reports, err := s.Reports.Search(c.Request.Context(), opts)
	if err != nil {
		s.logger().Error("report search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []types.ReportRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// handleGetReport handles GET /api/reports/:id.
func (s *Server) handleGetReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report id must be an integer"})
		return
	}
	rec, err := s.Reports.Report(c.Request.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
