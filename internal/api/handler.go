package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/report"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/snapshot"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage"
)

const defaultRunsLimit = 20

// Handler handles API requests
type Handler struct {
	reader  *snapshot.Reader
	history storage.Storage
}

// NewHandler creates a new API handler. history may be nil.
func NewHandler(reader *snapshot.Reader, history storage.Storage) *Handler {
	return &Handler{
		reader:  reader,
		history: history,
	}
}

// GetSummary returns the summary of the latest snapshot
// GET /api/v1/summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.reader.Summary()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetUser returns the snapshotted account profile
// GET /api/v1/user
func (h *Handler) GetUser(c *gin.Context) {
	h.respondFile(c, domain.UserInfoFile)
}

// GetCategory returns the records of one category
// GET /api/v1/categories/:category
func (h *Handler) GetCategory(c *gin.Context) {
	category, ok := domain.ParseCategory(c.Param("category"))
	if !ok {
		respondError(c, apperrors.NewBadRequestError("unknown category: "+c.Param("category")))
		return
	}
	h.respondFile(c, category.FileName())
}

// GetReport renders the latest snapshot as Markdown
// GET /api/v1/report
func (h *Handler) GetReport(c *gin.Context) {
	snap, summary, err := h.reader.Load()
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Generate(&buf, snap, summary); err != nil {
		respondError(c, apperrors.NewInternalError("failed to render report", err))
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

// GetRuns lists recorded snapshot runs, newest first
// GET /api/v1/runs?account=&limit=
func (h *Handler) GetRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{
			"data": []*domain.SnapshotRun{},
		})
		return
	}

	runs, err := h.history.ListRuns(c.Request.Context(), c.Query("account"), parseIntQuery(c, "limit", defaultRunsLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// GetLatestRun returns the latest completed run for an account
// GET /api/v1/runs/latest?account=
func (h *Handler) GetLatestRun(c *gin.Context) {
	account := c.Query("account")
	if account == "" {
		respondError(c, apperrors.NewBadRequestError("account is required"))
		return
	}
	if h.history == nil {
		respondError(c, apperrors.NewNotFoundError("run history"))
		return
	}

	latest, err := h.history.GetLatestRun(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	run, ok := latest.Get()
	if !ok {
		respondError(c, apperrors.NewNotFoundError("completed run for "+account))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": run,
	})
}

// GetRun returns one recorded run
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if h.history == nil {
		respondError(c, apperrors.NewNotFoundError("run "+id))
		return
	}

	run, err := h.history.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": run,
	})
}

func (h *Handler) respondFile(c *gin.Context, name string) {
	data, err := h.reader.ReadFile(name)
	if err != nil {
		respondError(c, err)
		return
	}
	if !json.Valid(data) {
		respondError(c, apperrors.NewSerializationFailure(name+" is not valid JSON", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": json.RawMessage(data),
	})
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeAuthFailure:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeLocked:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
