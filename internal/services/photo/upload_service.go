package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anoixa/event-gallery/database/models"
	"github.com/anoixa/event-gallery/database/repo/photos"
	"github.com/anoixa/event-gallery/storage"
	"github.com/anoixa/event-gallery/utils"
	"github.com/anoixa/event-gallery/utils/generator"
	"github.com/anoixa/event-gallery/utils/pool"
)

var (
	// ErrPhotographerRequired 上传时必须提供拍摄者名称
	ErrPhotographerRequired = errors.New("photographer name is required")

	// ErrFileTooLarge 文件超过大小限制
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrEmptyFile 上传内容为空
	ErrEmptyFile = errors.New("uploaded file is empty")
)

// UploadInput 单张照片上传请求
type UploadInput struct {
	FileName     string
	ContentType  string
	Photographer string
	Caption      string
	File         io.Reader
	Size         int64

	// OnProgress 原图传输进度回调，可为 nil
	OnProgress ProgressFunc
}

// UploadService 照片上传服务
// 原图与缩略图并发写入存储，元数据最后落库
type UploadService struct {
	repo     *photos.Repository
	store    storage.Provider
	deriver  *Deriver
	paths    *generator.PhotoPaths
	baseURL  string
	maxBytes int64
}

// NewUploadService 创建上传服务
func NewUploadService(repo *photos.Repository, store storage.Provider, deriver *Deriver, baseURL string, maxSizeMB int) *UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &UploadService{
		repo:     repo,
		store:    store,
		deriver:  deriver,
		paths:    generator.NewPhotoPaths(),
		baseURL:  baseURL,
		maxBytes: int64(maxSizeMB) << 20,
	}
}

// Upload 处理单张照片上传
// 缩略图生成失败不阻断上传，此时缩略图退化为原图
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (*models.Photo, error) {
	if strings.TrimSpace(input.Photographer) == "" {
		return nil, ErrPhotographerRequired
	}
	if input.File == nil {
		return nil, ErrEmptyFile
	}
	if input.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	// 先落到临时文件，原图写入和缩略图生成才能并发读同一份数据
	tempFile, err := os.CreateTemp("", "gallery-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempFile.Name())
	}()

	size, err := pool.Copy(tempFile, io.LimitReader(input.File, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	key := s.paths.ObjectKey(input.FileName, time.Now())
	originalPath := s.paths.OriginalPath(key)
	thumbnailPath := s.paths.ThumbnailPath(key)

	contentType := input.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(input.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	thumbnailOK := false

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := os.Open(tempFile.Name())
		if err != nil {
			return fmt.Errorf("failed to open spooled upload: %w", err)
		}
		defer func() { _ = f.Close() }()

		reader := NewProgressReader(gctx, f, size, input.OnProgress)
		if err := s.store.SaveWithContext(gctx, originalPath, reader, size, storage.SaveOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"photographer": input.Photographer},
		}); err != nil {
			return fmt.Errorf("failed to save original '%s': %w", originalPath, err)
		}
		return nil
	})

	// 缩略图失败只记日志，不让整个上传失败
	g.Go(func() error {
		f, err := os.Open(tempFile.Name())
		if err != nil {
			log.Printf("Thumbnail skipped for '%s': %v", utils.SanitizeLogFileName(key), err)
			return nil
		}
		defer func() { _ = f.Close() }()

		var thumb bytes.Buffer
		if err := s.deriver.Derive(f, &thumb); err != nil {
			log.Printf("Thumbnail derivation failed for '%s': %v", utils.SanitizeLogFileName(key), err)
			return nil
		}

		if err := s.store.SaveWithContext(gctx, thumbnailPath, bytes.NewReader(thumb.Bytes()), int64(thumb.Len()), storage.SaveOptions{
			ContentType: "image/jpeg",
		}); err != nil {
			log.Printf("Thumbnail save failed for '%s': %v", utils.SanitizeLogFileName(key), err)
			return nil
		}

		thumbnailOK = true
		return nil
	})

	if err := g.Wait(); err != nil {
		s.cleanupBinaries(originalPath, thumbnailPath)
		return nil, err
	}

	originalURL := utils.BuildObjectURL(s.baseURL, originalPath)
	thumbnailURL := originalURL
	if thumbnailOK {
		thumbnailURL = utils.BuildObjectURL(s.baseURL, thumbnailPath)
	} else {
		thumbnailPath = originalPath
	}

	photo := &models.Photo{
		FileName:      input.FileName,
		SizeBytes:     size,
		ContentType:   contentType,
		Photographer:  input.Photographer,
		Caption:       input.Caption,
		OriginalPath:  originalPath,
		ThumbnailPath: thumbnailPath,
		OriginalURL:   originalURL,
		ThumbnailURL:  thumbnailURL,
	}

	if err := s.repo.Insert(ctx, photo); err != nil {
		s.cleanupBinaries(originalPath, thumbnailPath)
		return nil, fmt.Errorf("failed to save photo metadata: %w", err)
	}

	return photo, nil
}

// cleanupBinaries 尽力删除已写入的对象，失败只记日志
func (s *UploadService) cleanupBinaries(paths ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		if err := s.store.DeleteWithContext(ctx, p, true); err != nil {
			log.Printf("Failed to clean up object '%s': %v", utils.SanitizeLogFileName(p), err)
		}
	}
}
