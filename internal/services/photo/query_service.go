package photo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/anoixa/event-gallery/cache"
	"github.com/anoixa/event-gallery/database/models"
	"github.com/anoixa/event-gallery/database/repo/photos"
)

// ErrPhotoNotFound 照片不存在
var ErrPhotoNotFound = errors.New("photo not found")

// GalleryStats 相册整体统计
type GalleryStats struct {
	TotalPhotos         int64            `json:"total_photos"`
	TotalSizeBytes      int64            `json:"total_size_bytes"`
	Photographers       int              `json:"photographers"`
	CountByPhotographer map[string]int64 `json:"count_by_photographer"`
}

// QueryService 相册读取服务
type QueryService struct {
	repo     *photos.Repository
	cache    cache.Provider
	photoTTL time.Duration
	group    singleflight.Group
}

// NewQueryService 创建读取服务
func NewQueryService(repo *photos.Repository, cacheProvider cache.Provider, photoTTLSeconds int) *QueryService {
	if photoTTLSeconds <= 0 {
		photoTTLSeconds = 3600
	}
	return &QueryService{
		repo:     repo,
		cache:    cacheProvider,
		photoTTL: time.Duration(photoTTLSeconds) * time.Second,
	}
}

// ListPage 按上传时间倒序分页
// cursorToken 为空时返回第一页
func (s *QueryService) ListPage(ctx context.Context, pageSize int, cursorToken string) (*photos.Page, error) {
	after, err := photos.DecodeCursor(cursorToken)
	if err != nil {
		return nil, err
	}
	return s.repo.PageQuery(ctx, pageSize, after)
}

// Subscribe 订阅相册变化
// 先推送一次当前快照，之后每次数据变化都重新查询最新一页并整体替换
// 直到 ctx 取消或 fn 返回错误
func (s *QueryService) Subscribe(ctx context.Context, pageSize int, fn func([]*models.Photo) error) error {
	ch, cancel := s.repo.Watch()
	defer cancel()

	push := func() error {
		page, err := s.repo.PageQuery(ctx, pageSize, nil)
		if err != nil {
			return err
		}
		return fn(page.Items)
	}

	if err := push(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			if err := push(); err != nil {
				return err
			}
		}
	}
}

// SearchByPhotographer 按拍摄者名称搜索，匹配忽略大小写且支持子串
// 结果保持上传时间倒序
func (s *QueryService) SearchByPhotographer(ctx context.Context, query string) ([]*models.Photo, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*models.Photo{}, nil
	}

	all, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Photo, 0)
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Photographer), query) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Stats 全量扫描并聚合统计信息
func (s *QueryService) Stats(ctx context.Context) (*GalleryStats, error) {
	all, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &GalleryStats{
		CountByPhotographer: make(map[string]int64),
	}
	for _, p := range all {
		stats.TotalPhotos++
		stats.TotalSizeBytes += p.SizeBytes
		stats.CountByPhotographer[p.Photographer]++
	}
	stats.Photographers = len(stats.CountByPhotographer)

	return stats, nil
}

// GetPhoto 按 ID 获取照片元数据，带缓存和并发请求合并
func (s *QueryService) GetPhoto(ctx context.Context, id uint) (*models.Photo, error) {
	cacheKey := cache.PhotoMeta.BuildID(id)

	if s.cache != nil {
		var cached models.Photo
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !cache.IsCacheMiss(err) {
			log.Printf("Cache read failed for key '%s': %v", cacheKey, err)
		}
	}

	result, err, _ := s.group.Do(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		photo, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPhotoNotFound
			}
			return nil, fmt.Errorf("failed to load photo %d: %w", id, err)
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, photo, s.photoTTL); err != nil {
				log.Printf("Cache write failed for key '%s': %v", cacheKey, err)
			}
		}
		return photo, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Photo), nil
}

// InvalidatePhoto 删除照片的缓存条目
func (s *QueryService) InvalidatePhoto(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PhotoMeta.BuildID(id)); err != nil {
		log.Printf("Cache invalidation failed for photo %d: %v", id, err)
	}
}
