package gallery

import (
	"time"

	"github.com/anoixa/event-gallery/database/models"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
)

// DefaultPageSize 未指定 page_size 时的每页条数
const DefaultPageSize = 12

// MaxPageSize 每页条数上限
const MaxPageSize = 100

// Handler 相册接口处理器
type Handler struct {
	uploadService *photoSvc.UploadService
	queryService  *photoSvc.QueryService
}

// NewHandler 创建相册处理器
func NewHandler(uploadService *photoSvc.UploadService, queryService *photoSvc.QueryService) *Handler {
	return &Handler{
		uploadService: uploadService,
		queryService:  queryService,
	}
}

// photoView 照片的对外表示
type photoView struct {
	ID           uint      `json:"id"`
	FileName     string    `json:"file_name"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	Photographer string    `json:"photographer"`
	Caption      string    `json:"caption,omitempty"`
	OriginalURL  string    `json:"original_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func toView(p *models.Photo) photoView {
	return photoView{
		ID:           p.ID,
		FileName:     p.FileName,
		SizeBytes:    p.SizeBytes,
		ContentType:  p.ContentType,
		Photographer: p.Photographer,
		Caption:      p.Caption,
		OriginalURL:  p.OriginalURL,
		ThumbnailURL: p.ThumbnailURL,
		UploadedAt:   p.UploadedAt,
	}
}

func toViews(items []*models.Photo) []photoView {
	views := make([]photoView, 0, len(items))
	for _, p := range items {
		views = append(views, toView(p))
	}
	return views
}
