package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/anoixa/event-gallery/config"
)

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg *config.Config) (*WebDAVStorage, error) {
	if cfg.WebDAVURL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.WebDAVRootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUsername, cfg.WebDAVPassword)

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := testWebDAVConnection(ctx, client, rootPath); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.WebDAVURL, "/"),
		rootPath: rootPath,
	}, nil
}

// testWebDAVConnection 测试 WebDAV 连接
func testWebDAVConnection(ctx context.Context, client *gowebdav.Client, rootPath string) error {
	done := make(chan error, 1)
	go func() {
		// 尝试读取根目录验证连接
		_, err := client.ReadDir(rootPath)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(objectPath string) string {
	objectPath = strings.TrimLeft(objectPath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + objectPath
	}
	return "/" + objectPath
}

// ensureParentDir 递归创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)

	// 根目录无需创建
	if parentDir == "/" || parentDir == "." {
		return nil
	}

	// 逐级分解路径
	parts := strings.Split(strings.Trim(parentDir, "/"), "/")
	currentPath := ""

	for _, part := range parts {
		if part == "" {
			continue
		}

		currentPath = currentPath + "/" + part

		done := make(chan error, 1)
		go func(p string) {
			done <- s.client.Mkdir(p, os.FileMode(0755))
		}(currentPath)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			if err != nil && !isCollectionExistsError(err) {
				return fmt.Errorf("failed to create directory %s: %w", currentPath, err)
			}
		}
	}

	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// 常见 WebDAV 服务器的 "目录已存在" 错误信息
	containsAny := []string{
		"already exists",
		"conflict",
		"Conflict",
		"409",
		"Method Not Allowed",
		"405",
	}
	for _, s := range containsAny {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// SaveWithContext 保存对象到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, objectPath string, file io.Reader, size int64, opts SaveOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath := s.fullPath(objectPath)

	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", objectPath, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.client.WriteStream(fullPath, file, 0644)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", objectPath, err)
		}
		return nil
	}
}

// GetWithContext 从 WebDAV 获取对象
func (s *WebDAVStorage) GetWithContext(ctx context.Context, objectPath string) (io.ReadCloser, *ObjectInfo, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	fullPath := s.fullPath(objectPath)

	type result struct {
		stream io.ReadCloser
		size   int64
		err    error
	}

	done := make(chan result, 1)
	go func() {
		stat, err := s.client.Stat(fullPath)
		if err != nil {
			done <- result{err: err}
			return
		}
		stream, err := s.client.ReadStream(fullPath)
		done <- result{stream: stream, size: stat.Size(), err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if gowebdav.IsErrNotFound(res.err) {
				return nil, nil, ErrObjectNotFound
			}
			return nil, nil, fmt.Errorf("failed to read file %s: %w", objectPath, res.err)
		}

		contentType := mime.TypeByExtension(path.Ext(fullPath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		return res.stream, &ObjectInfo{ContentType: contentType, Size: res.size}, nil
	}
}

// DeleteWithContext 从 WebDAV 删除对象
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, objectPath string, ignoreNotFound bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath := s.fullPath(objectPath)

	done := make(chan error, 1)
	go func() {
		done <- s.client.Remove(fullPath)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			if gowebdav.IsErrNotFound(err) {
				if ignoreNotFound {
					return nil
				}
				return ErrObjectNotFound
			}
			return fmt.Errorf("failed to delete file %s: %w", objectPath, err)
		}
		return nil
	}
}

// Exists 检查对象是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	fullPath := s.fullPath(objectPath)

	type result struct {
		exists bool
		err    error
	}

	done := make(chan result, 1)
	go func() {
		_, err := s.client.Stat(fullPath)
		if err == nil {
			done <- result{exists: true}
			return
		}
		if gowebdav.IsErrNotFound(err) {
			done <- result{exists: false}
			return
		}
		done <- result{exists: false, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-done:
		return res.exists, res.err
	}
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if s.client == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.client.ReadDir(s.rootPath)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
