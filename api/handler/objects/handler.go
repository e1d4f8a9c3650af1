package objects

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/event-gallery/api/common"
	"github.com/anoixa/event-gallery/storage"
	"github.com/anoixa/event-gallery/utils"
	"github.com/anoixa/event-gallery/utils/generator"
	"github.com/anoixa/event-gallery/utils/pool"
)

// Handler 公开对象下载处理器
type Handler struct {
	store storage.Provider
}

// NewHandler 创建对象下载处理器
func NewHandler(store storage.Provider) *Handler {
	return &Handler{store: store}
}

// GetObject 流式返回存储对象
// 路径形如 /o/photos%2Foriginal%2F<key>?alt=media，百分号编码由定位符解析统一处理
func (h *Handler) GetObject(c *gin.Context) {
	objectPath, ok := generator.ParseObjectURL(c.Request.RequestURI)
	if !ok {
		common.RespondError(c, http.StatusBadRequest, "Invalid object locator")
		return
	}

	if !storage.IsValidStoragePath(objectPath) {
		common.RespondError(c, http.StatusBadRequest, "Invalid object path")
		return
	}

	stream, info, err := h.store.GetWithContext(c.Request.Context(), objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			common.RespondError(c, http.StatusNotFound, "Object not found")
			return
		}
		log.Printf("Failed to open object '%s': %v", utils.SanitizeLogFileName(objectPath), err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to read object")
		return
	}
	defer func() { _ = stream.Close() }()

	c.Header("Content-Type", info.ContentType)
	if info.Size > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)

	if _, err := pool.Copy(c.Writer, stream); err != nil {
		// 响应已经开始，只能记录
		log.Printf("Failed to stream object '%s': %v", utils.SanitizeLogFileName(objectPath), err)
	}
}
