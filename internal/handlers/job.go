package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mediadl/internal/storage"
)

// JobHandler はジョブ履歴APIのハンドラー
type JobHandler struct {
	repo *storage.JobRepository
}

// NewJobHandler は新しいJobHandlerを作成
func NewJobHandler(repo *storage.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

// List はジョブ一覧を取得
// GET /api/jobs
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	jobs, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get はジョブを取得
// GET /api/jobs/:id
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Stats はステータスごとのジョブ数を取得
// GET /api/jobs/stats
func (h *JobHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, counts)
}
