package models

import "time"

// Photo 一次成功入库的照片记录
// 元数据记录是照片的唯一权威来源，二进制对象的生命周期跟随引用它的记录
// 不使用软删除：记录删除后照片即不存在
type Photo struct {
	ID uint `gorm:"primarykey"`

	FileName    string `gorm:"not null"`
	SizeBytes   int64  `gorm:"not null"`
	ContentType string

	Photographer string `gorm:"not null;index"`
	Caption      string

	// 存储对象路径，遵循 photos/original <-> photos/thumbnails 命名空间约定
	OriginalPath  string `gorm:"not null"`
	ThumbnailPath string

	// 对外可访问的定位符；缩略图派生失败时 ThumbnailURL 回退为 OriginalURL
	OriginalURL  string `gorm:"not null"`
	ThumbnailURL string `gorm:"not null"`

	// 服务端分配的上传时间，分页排序的唯一依据
	UploadedAt time.Time `gorm:"index:idx_photos_uploaded_at_id,priority:1;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
