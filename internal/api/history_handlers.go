// internal/api/history_handlers.go
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// ListHistory GET /api/history?type=veo|script
func (h *Handler) ListHistory(c *gin.Context) {
	items, err := h.HistoryService.List(c.Request.Context(), models.HistoryType(c.Query("type")))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetHistoryItem GET /api/history/:id
func (h *Handler) GetHistoryItem(c *gin.Context) {
	item, err := h.HistoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.notFoundOr(c, err, ErrorHistoryNotFound)
		return
	}
	h.Response.Success(c, item)
}

// DownloadHistoryItem GET /api/history/:id/download
func (h *Handler) DownloadHistoryItem(c *gin.Context) {
	item, err := h.HistoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.notFoundOr(c, err, ErrorHistoryNotFound)
		return
	}
	h.Response.DownloadResponse(c, item.Prompt, DownloadFilename, "text/plain; charset=utf-8")
}

// DeleteHistoryItem DELETE /api/history/:id
func (h *Handler) DeleteHistoryItem(c *gin.Context) {
	if err := h.HistoryService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Response.notFoundOr(c, err, ErrorHistoryNotFound)
		return
	}
	h.Response.Success(c, nil, "deleted")
}

// ClearHistory DELETE /api/history
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.HistoryService.Clear(c.Request.Context()); err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, nil, "history cleared")
}
