package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// SaveOptions 保存对象时的附加信息
type SaveOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo 对象的基本属性
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了存储层的基本操作，所有存储实现必须遵循此接口
type Provider interface {
	// SaveWithContext 保存对象到存储，size 未知时传 -1
	SaveWithContext(ctx context.Context, objectPath string, file io.Reader, size int64, opts SaveOptions) error

	// GetWithContext 从存储获取对象，对象不存在时返回 ErrObjectNotFound
	GetWithContext(ctx context.Context, objectPath string) (io.ReadCloser, *ObjectInfo, error)

	// DeleteWithContext 从存储删除对象
	// ignoreNotFound 为 true 时删除不存在的对象不算错误
	DeleteWithContext(ctx context.Context, objectPath string, ignoreNotFound bool) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
