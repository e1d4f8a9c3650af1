package admin

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/event-gallery/api/common"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
	"github.com/anoixa/event-gallery/utils/generator"
)

// MaxExportPhotos 单次打包导出的对象数量上限
const MaxExportPhotos = 500

// Handler 管理员接口处理器
type Handler struct {
	adminService *photoSvc.AdminService
}

// NewHandler 创建管理员处理器
func NewHandler(adminService *photoSvc.AdminService) *Handler {
	return &Handler{adminService: adminService}
}

// requestValue 同时接受查询参数和表单字段，GET/POST 共用处理器
func requestValue(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

// requestValues 收集重复出现的查询参数或表单字段
func requestValues(c *gin.Context, key string) []string {
	if vs := c.QueryArray(key); len(vs) > 0 {
		return vs
	}
	return c.PostFormArray(key)
}

// DeletePhoto 级联删除照片：原图、缩略图、元数据
// 需要照片 ID 以及 path 或 url 二者之一
func (h *Handler) DeletePhoto(c *gin.Context) {
	rawID := requestValue(c, "id")
	if rawID == "" {
		common.RespondError(c, http.StatusBadRequest, "Parameter 'id' is required")
		return
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid photo ID")
		return
	}

	ref := requestValue(c, "path")
	if ref == "" {
		ref = requestValue(c, "url")
	}
	objectPath, err := h.adminService.ResolveObjectRef(ref)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Parameter 'path' or 'url' is required and must reference a stored object")
		return
	}

	if err := h.adminService.Delete(c.Request.Context(), uint(id), objectPath); err != nil {
		log.Printf("Delete photo %d failed: %v", id, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to delete photo")
		return
	}

	common.RespondSuccessMessage(c, "Photo deleted", gin.H{"id": id})
}

// DownloadPhoto 按存储路径下载单个对象
func (h *Handler) DownloadPhoto(c *gin.Context) {
	objectPath, err := h.adminService.ResolveObjectRef(c.Query("path"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Parameter 'path' is required")
		return
	}

	stream, info, err := h.adminService.Download(c.Request.Context(), objectPath)
	if err != nil {
		if errors.Is(err, photoSvc.ErrPhotoNotFound) {
			common.RespondError(c, http.StatusNotFound, "Object not found")
			return
		}
		log.Printf("Download object failed: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to download object")
		return
	}
	defer func() { _ = stream.Close() }()

	fileName := c.Query("filename")
	if fileName == "" {
		fileName = generator.NewPhotoPaths().BaseName(objectPath)
	} else {
		fileName = generator.SanitizeFileName(fileName)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, info.Size, contentType, stream, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", fileName),
	})
}

// exportRequest JSON 形式的打包导出请求体
type exportRequest struct {
	Paths []string `json:"paths"`
	URLs  []string `json:"urls"`
	Name  string   `json:"name"`
}

// ExportZip 将选中对象打包为 zip 流式返回
// 引用通过 paths/urls 给出，JSON 数组或重复参数均可
func (h *Handler) ExportZip(c *gin.Context) {
	refs, name := h.collectExportRefs(c)
	if len(refs) == 0 {
		common.RespondError(c, http.StatusBadRequest, "At least one of 'paths' or 'urls' is required")
		return
	}
	if len(refs) > MaxExportPhotos {
		common.RespondError(c, http.StatusBadRequest, fmt.Sprintf("At most %d objects can be exported at once", MaxExportPhotos))
		return
	}

	objectPaths := make([]string, 0, len(refs))
	for _, ref := range refs {
		objectPath, err := h.adminService.ResolveObjectRef(ref)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "One of the given references is not a valid path or url")
			return
		}
		objectPaths = append(objectPaths, objectPath)
	}

	fileName := exportFileName(name)
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	if err := h.adminService.WriteZip(c.Request.Context(), objectPaths, c.Writer); err != nil {
		// zip 流已经开始写，无法改写状态码
		log.Printf("Zip export failed: %v", err)
	}
}

// collectExportRefs 汇总导出引用，JSON 请求体优先于重复参数
func (h *Handler) collectExportRefs(c *gin.Context) ([]string, string) {
	if strings.Contains(c.ContentType(), "application/json") {
		var req exportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, ""
		}
		return append(req.Paths, req.URLs...), req.Name
	}

	refs := append(requestValues(c, "paths"), requestValues(c, "urls")...)
	return refs, requestValue(c, "name")
}

// exportFileName 规范化归档文件名，缺省时使用时间戳命名
func exportFileName(name string) string {
	if name == "" {
		return fmt.Sprintf("gallery-export-%s.zip", time.Now().Format("20060102-150405"))
	}
	name = generator.SanitizeFileName(name)
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	return name
}
