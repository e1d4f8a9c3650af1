package gallery

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/event-gallery/api/common"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
	"github.com/anoixa/event-gallery/utils"
)

// UploadPhoto 处理单张照片上传
func (h *Handler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}

	photographer := strings.TrimSpace(c.PostForm("photographer"))
	if photographer == "" {
		common.RespondError(c, http.StatusBadRequest, "The 'photographer' field is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	photo, err := h.uploadService.Upload(c.Request.Context(), photoSvc.UploadInput{
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Photographer: photographer,
		Caption:      c.PostForm("caption"),
		File:         file,
		Size:         fileHeader.Size,
	})
	if err != nil {
		switch {
		case errors.Is(err, photoSvc.ErrPhotographerRequired), errors.Is(err, photoSvc.ErrEmptyFile):
			common.RespondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, photoSvc.ErrFileTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, err.Error())
		default:
			log.Printf("Upload failed for '%s': %v", utils.SanitizeLogFileName(fileHeader.Filename), err)
			common.RespondError(c, http.StatusInternalServerError, "Failed to process upload")
		}
		return
	}

	common.RespondSuccess(c, toView(photo))
}
