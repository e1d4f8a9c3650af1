package photos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anoixa/event-gallery/database/models"
	"gorm.io/gorm"
)

// Page 分页查询结果
type Page struct {
	Items      []*models.Photo
	NextCursor string
	HasMore    bool
}

// Repository 照片仓库 - 封装所有照片元数据的数据库操作
type Repository struct {
	db       *gorm.DB
	notifier *Notifier

	// 保证单进程内 UploadedAt 严格递增，并发上传不会产生同页可见的时间戳碰撞
	clockMu  sync.Mutex
	lastTime time.Time
}

// NewRepository 创建新的照片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		notifier: NewNotifier(),
	}
}

// nextUploadTime 分配单调递增的上传时间戳
func (r *Repository) nextUploadTime() time.Time {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(r.lastTime) {
		now = r.lastTime.Add(time.Microsecond)
	}
	r.lastTime = now
	return now
}

// Insert 插入照片记录，分配 ID 和 UploadedAt
// 提交成功后才广播变更，订阅方永远看不到未提交的记录
func (r *Repository) Insert(ctx context.Context, photo *models.Photo) error {
	photo.UploadedAt = r.nextUploadTime()

	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo record: %w", err)
	}

	r.notifier.Broadcast()
	return nil
}

// GetByID 通过 ID 获取照片
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// PageQuery 按 uploaded_at 降序的游标分页查询
// HasMore 的含义是“本页查满了”：集合大小恰为页大小整数倍时会多出一次空页，
// 调用方必须把零新增的页当作权威的数据结束信号
func (r *Repository) PageQuery(ctx context.Context, pageSize int, after *Cursor) (*Page, error) {
	if pageSize <= 0 {
		pageSize = 12
	}

	db := r.db.WithContext(ctx).Model(&models.Photo{})
	if after != nil {
		db = db.Where(
			"uploaded_at < ? OR (uploaded_at = ? AND id < ?)",
			after.UploadedAt, after.UploadedAt, after.ID,
		)
	}

	var items []*models.Photo
	err := db.Order("uploaded_at desc, id desc").Limit(pageSize).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query photo page: %w", err)
	}

	page := &Page{
		Items:   items,
		HasMore: len(items) == pageSize,
	}
	if len(items) > 0 {
		page.NextCursor = EncodeCursor(items[len(items)-1])
	}
	return page, nil
}

// ScanAll 全集合扫描，uploaded_at 降序
// 仅用于搜索和统计；复杂度 O(集合大小)，单场活动的照片量级可以接受
func (r *Repository) ScanAll(ctx context.Context) ([]*models.Photo, error) {
	var items []*models.Photo
	err := r.db.WithContext(ctx).Order("uploaded_at desc, id desc").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo collection: %w", err)
	}
	return items, nil
}

// DeleteByID 删除照片记录
// 幂等：记录不存在时返回 deleted=false 而不是错误
func (r *Repository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Photo{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete photo record: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	r.notifier.Broadcast()
	return true, nil
}

// Count 照片总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Count(&count).Error
	return count, err
}

// Watch 注册集合变更信号，见 Notifier
func (r *Repository) Watch() (<-chan struct{}, func()) {
	return r.notifier.Watch()
}
