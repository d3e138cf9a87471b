package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devfolio/internal/client"
	"devfolio/internal/database"
	"devfolio/internal/exports"
	"devfolio/internal/model"
	"devfolio/internal/web/middleware"
)

// ExportService 异步导出服务，由 *exports.Service 实现。
type ExportService interface {
	Request(ctx context.Context, userID string, resume model.Resume, correlationID string) (*database.Export, error)
	DownloadURL(ctx context.Context, userID string, id uint) (string, error)
	List(ctx context.Context, userID, resumeID string, limit int) ([]database.Export, error)
}

// ExportHandler 处理异步导出请求与下载链接。
type ExportHandler struct {
	*views
	api     *client.Client
	exports ExportService
}

// NewExportHandler 构造异步导出处理器。
func NewExportHandler(v *views, api *client.Client, svc ExportService) *ExportHandler {
	return &ExportHandler{views: v, api: api, exports: svc}
}

// Request POST /resumes/:id/export：保存快照并入队。
func (h *ExportHandler) Request(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentState(c).User

	r, err := h.api.GetResume(ctx, c.Param("id"))
	if err != nil {
		if wantsJSON(c) && !errors.Is(err, client.ErrUnauthorized) {
			c.JSON(statusFor(err), gin.H{"error": "resume unavailable"})
			return
		}
		h.fail(c, err)
		return
	}

	export, err := h.exports.Request(ctx, user.ID, *r, middleware.GetCorrelationID(c))
	if err != nil {
		middleware.LoggerFromContext(c).Error("request export failed", slog.String("resume_id", r.ID), slog.Any("error", err))
		if wantsJSON(c) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export unavailable"})
			return
		}
		h.renderError(c, http.StatusServiceUnavailable, "Export unavailable", "The export service is busy. Please try again shortly.")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusAccepted, gin.H{"export_id": export.ID, "status": export.Status})
		return
	}
	c.Redirect(http.StatusSeeOther, "/resumes?notice=export-queued")
}

// Link GET /exports/:id/link：已完成时返回限时下载地址。
func (h *ExportHandler) Link(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export id"})
		return
	}

	url, err := h.exports.DownloadURL(c.Request.Context(), middleware.CurrentState(c).User.ID, uint(id))
	switch {
	case errors.Is(err, exports.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
		return
	case errors.Is(err, exports.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "export not ready"})
		return
	case err != nil:
		middleware.LoggerFromContext(c).Error("sign export link failed", slog.Uint64("export_id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link unavailable"})
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, client.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusBadGateway
}
