package gallery

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/event-gallery/api/common"
	"github.com/anoixa/event-gallery/database/models"
	"github.com/anoixa/event-gallery/database/repo/photos"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
)

// ListPhotos 游标分页列出照片，按上传时间倒序
func (h *Handler) ListPhotos(c *gin.Context) {
	pageSize := parsePageSize(c.Query("page_size"))

	page, err := h.queryService.ListPage(c.Request.Context(), pageSize, c.Query("cursor"))
	if err != nil {
		if errors.Is(err, photos.ErrBadCursor) {
			common.RespondError(c, http.StatusBadRequest, "Invalid cursor")
			return
		}
		log.Printf("List photos failed: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	common.RespondSuccess(c, gin.H{
		"items":       toViews(page.Items),
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

// LivePhotos 通过 SSE 推送相册快照
// 连接建立后立即推送当前快照，之后每次数据变化推送整页替换
func (h *Handler) LivePhotos(c *gin.Context) {
	pageSize := parsePageSize(c.Query("page_size"))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	snapshots := make(chan []photoView, 4)
	done := make(chan error, 1)

	go func() {
		done <- h.queryService.Subscribe(c.Request.Context(), pageSize, func(items []*models.Photo) error {
			select {
			case snapshots <- toViews(items):
			case <-c.Request.Context().Done():
				return c.Request.Context().Err()
			}
			return nil
		})
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case views := <-snapshots:
			c.SSEvent("snapshot", views)
			return true
		case err := <-done:
			if err != nil && !errors.Is(err, c.Request.Context().Err()) {
				log.Printf("Live photo stream ended: %v", err)
			}
			return false
		}
	})
}

// SearchPhotos 按拍摄者搜索
func (h *Handler) SearchPhotos(c *gin.Context) {
	query := c.Query("photographer")
	if query == "" {
		common.RespondError(c, http.StatusBadRequest, "The 'photographer' query parameter is required")
		return
	}

	results, err := h.queryService.SearchByPhotographer(c.Request.Context(), query)
	if err != nil {
		log.Printf("Photo search failed: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to search photos")
		return
	}

	common.RespondSuccess(c, gin.H{
		"items": toViews(results),
		"count": len(results),
	})
}

// GalleryStats 相册统计
func (h *Handler) GalleryStats(c *gin.Context) {
	stats, err := h.queryService.Stats(c.Request.Context())
	if err != nil {
		log.Printf("Stats aggregation failed: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to compute gallery stats")
		return
	}

	common.RespondSuccess(c, stats)
}

// GetPhoto 按 ID 获取单张照片元数据
func (h *Handler) GetPhoto(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid photo ID")
		return
	}

	photo, err := h.queryService.GetPhoto(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, photoSvc.ErrPhotoNotFound) {
			common.RespondError(c, http.StatusNotFound, "Photo not found")
			return
		}
		log.Printf("Get photo %d failed: %v", id, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to load photo")
		return
	}

	common.RespondSuccess(c, toView(photo))
}

// parsePageSize 解析分页大小并钳制到合法区间
func parsePageSize(raw string) int {
	if raw == "" {
		return DefaultPageSize
	}

	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
