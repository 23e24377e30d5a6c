package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
	"jobradar/pkg/sysstats"
)

// healthCheck implements spec.md §6's `GET /health ->
// {status, database{ok, stats}}`.
func (s *Server) healthCheck(c *gin.Context) {
	dbOK := true
	if s.store != nil {
		if _, err := s.store.LastCompletedRun(c.Request.Context()); err != nil && err != storage.ErrNotFound {
			dbOK = false
		}
	} else {
		dbOK = false
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !dbOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"database": gin.H{
			"ok":    dbOK,
			"stats": sysstats.Read(),
		},
	})
}

// status implements spec.md §6's `GET /status -> config summary + stats`.
func (s *Server) status(c *gin.Context) {
	snap := sysstats.Read()

	var lastRun *models.RunLog
	if s.store != nil {
		if run, err := s.store.LastCompletedRun(c.Request.Context()); err == nil {
			lastRun = run
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":   snap,
		"lastRun": lastRun,
	})
}

// listJobs implements `GET /api/jobs?limit&offset&band&bucket&status&since&minScore&tiers`.
func (s *Server) listJobs(c *gin.Context) {
	filter := storage.JobFilter{
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
		Band:   c.Query("band"),
		Bucket: c.Query("bucket"),
		Status: c.Query("status"),
	}
	if raw := c.Query("minScore"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MinScore = &v
		}
	}
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = &t
		}
	}
	if raw := c.Query("tiers"); raw != "" {
		filter.Tiers = strings.Split(raw, ",")
	}

	jobs, err := s.store.ListJobs(c.Request.Context(), filter)
	if err != nil {
		s.log.Warn("httpapi: list jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// getJob implements `GET /api/jobs/:id -> job + fit analysis + alternate URLs`.
func (s *Server) getJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := s.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	fit, err := s.store.GetFitAnalysis(c.Request.Context(), id)
	if err != nil && err != storage.ErrNotFound {
		s.log.Warn("httpapi: get fit analysis failed", zap.Error(err))
	}

	alternates, err := s.store.ListAlternateURLs(c.Request.Context(), id)
	if err != nil {
		s.log.Warn("httpapi: list alternate urls failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"job":           job,
		"fitAnalysis":   fit,
		"alternateUrls": alternates,
	})
}

// setJobStatus returns a handler implementing `POST /api/jobs/:id/applied`
// or `.../dismissed`, enforcing the monotone transition invariant from
// spec.md §3 via models.JobStatus.CanTransitionTo.
func (s *Server) setJobStatus(next models.JobStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}

		job, err := s.store.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}

		if !job.Status.CanTransitionTo(next) {
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition", "from": job.Status, "to": next})
			return
		}

		if err := s.store.UpdateStatus(c.Request.Context(), id, next); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": id, "status": next})
	}
}

// telegramCallback implements `POST /api/telegram/callback`, dispatching on
// an `action` field of `applied_<id>` or `skip_<id>` per spec.md §6.
func (s *Server) telegramCallback(c *gin.Context) {
	var payload struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback payload"})
		return
	}

	var idStr string
	var next models.JobStatus
	switch {
	case strings.HasPrefix(payload.Action, "applied_"):
		idStr = strings.TrimPrefix(payload.Action, "applied_")
		next = models.StatusApplied
	case strings.HasPrefix(payload.Action, "skip_"):
		idStr = strings.TrimPrefix(payload.Action, "skip_")
		next = models.StatusDismissed
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized action"})
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id in action"})
		return
	}

	job, err := s.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if !job.Status.CanTransitionTo(next) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "skipped": "already transitioned"})
		return
	}
	if err := s.store.UpdateStatus(c.Request.Context(), id, next); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id, "status": next})
}

// analyticsSources implements `GET /api/analytics/sources?days=N`.
func (s *Server) analyticsSources(c *gin.Context) {
	days := queryInt(c, "days", 7)
	metrics, err := s.store.SourceMetricsSince(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": metrics, "days": days})
}

// analyticsWeekly implements `GET /api/analytics/weekly`.
func (s *Server) analyticsWeekly(c *gin.Context) {
	summary, err := s.store.WeeklySummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load weekly summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
