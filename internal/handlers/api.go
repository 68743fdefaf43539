package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mediadl/internal/orchestrator"
)

// APIHandler exposes the download pipeline over HTTP.
type APIHandler struct {
	orch *orchestrator.Orchestrator
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(orch *orchestrator.Orchestrator) *APIHandler {
	return &APIHandler{orch: orch}
}

type infoRequest struct {
	URL string `json:"url"`
}

// VideoInfo resolves a page URL and returns the media descriptor.
// POST /api/video-info
func (h *APIHandler) VideoInfo(c echo.Context) error {
	var req infoRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing url"})
	}

	desc, err := h.orch.Info(c.Request().Context(), req.URL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, desc)
}

type downloadRequest struct {
	URL          string `json:"url"`
	QualityIndex int    `json:"qualityIndex"`
}

// Download resolves a page URL and streams the media back as an mp4
// attachment.
// POST /api/download
func (h *APIHandler) Download(c echo.Context) error {
	var req downloadRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing url"})
	}

	ctx := c.Request().Context()
	job, err := h.orch.Prepare(ctx, orchestrator.DownloadRequest{
		URL:          req.URL,
		QualityIndex: req.QualityIndex,
	})
	if err != nil {
		var dup *orchestrator.DuplicateError
		if errors.As(err, &dup) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":  err.Error(),
				"isSpam": true,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	if err := job.StreamTo(ctx, c.Response()); err != nil {
		// Once the body has started, headers are out and the error
		// cannot become JSON anymore; cutting the connection is all
		// that is left.
		if c.Response().Committed {
			return err
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	return nil
}

type convertRequest struct {
	VideoPath string `json:"videoPath"`
}

// ConvertMP3 extracts the audio track of a previously downloaded file.
// POST /api/convert-mp3
func (h *APIHandler) ConvertMP3(c echo.Context) error {
	var req convertRequest
	if err := c.Bind(&req); err != nil || req.VideoPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "missing videoPath",
		})
	}

	path, err := h.orch.ConvertMP3(c.Request().Context(), req.VideoPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"path":    path,
	})
}
