package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Provider 缓存后端抽象，内存和 Redis 实现可互换
// 值以 JSON 序列化存取，调用方传入可序列化的结构
type Provider interface {
	// Set 写入缓存项并设置过期时间
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get 读取缓存项到 dest，未命中返回 ErrCacheMiss
	Get(ctx context.Context, key string, dest interface{}) error

	// Delete 删除缓存项
	Delete(ctx context.Context, key string) error

	// Exists 检查缓存项是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Close 关闭缓存连接
	Close() error

	// Name 返回缓存后端名称
	Name() string
}

// IsCacheMiss 判断是否为缓存未命中
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
