package photo

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/anoixa/event-gallery/database/repo/photos"
	"github.com/anoixa/event-gallery/storage"
	"github.com/anoixa/event-gallery/utils"
	"github.com/anoixa/event-gallery/utils/generator"
	"github.com/anoixa/event-gallery/utils/pool"
)

// ErrBadObjectRef 对象引用既不是合法存储路径也不是可解析的下载 URL
var ErrBadObjectRef = errors.New("object reference is not a valid path or url")

// AdminService 管理员操作：级联删除、单张下载、打包导出
type AdminService struct {
	repo  *photos.Repository
	store storage.Provider
	query *QueryService
	paths *generator.PhotoPaths
}

// NewAdminService 创建管理员服务
func NewAdminService(repo *photos.Repository, store storage.Provider, query *QueryService) *AdminService {
	return &AdminService{
		repo:  repo,
		store: store,
		query: query,
		paths: generator.NewPhotoPaths(),
	}
}

// ResolveObjectRef 把调用方给的对象引用规范化为存储路径
// 直接路径和公开下载 URL 都接受，其他一律拒绝
func (s *AdminService) ResolveObjectRef(ref string) (string, error) {
	if ref == "" {
		return "", ErrBadObjectRef
	}
	if p, ok := generator.ParseObjectURL(ref); ok {
		ref = p
	}
	if !storage.IsValidStoragePath(ref) {
		return "", ErrBadObjectRef
	}
	return ref, nil
}

// Delete 级联删除照片
// 先删原图，再删同名缩略图，最后删元数据；二进制缺失不阻断删除
// 元数据已经不存在时依旧成功，保证重复删除幂等
func (s *AdminService) Delete(ctx context.Context, id uint, originalPath string) error {
	if err := s.store.DeleteWithContext(ctx, originalPath, true); err != nil {
		return fmt.Errorf("failed to delete original '%s': %w", utils.SanitizeLogFileName(originalPath), err)
	}

	// 只有位于原图命名空间的对象才有可推导的缩略图
	if s.paths.IsOriginal(originalPath) {
		thumbnailPath := s.paths.ThumbnailFor(originalPath)
		if err := s.store.DeleteWithContext(ctx, thumbnailPath, true); err != nil {
			// 缩略图清理失败不回滚，元数据删除优先
			log.Printf("Failed to delete thumbnail '%s': %v", utils.SanitizeLogFileName(thumbnailPath), err)
		}
	}

	// 元数据删除放在最后，二进制删除失败时记录不会丢
	if _, err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete photo metadata %d: %w", id, err)
	}

	if s.query != nil {
		s.query.InvalidatePhoto(ctx, id)
	}

	return nil
}

// Download 打开指定存储路径的对象数据流
// 对象不存在时返回 ErrPhotoNotFound
func (s *AdminService) Download(ctx context.Context, objectPath string) (io.ReadCloser, *storage.ObjectInfo, error) {
	stream, info, err := s.store.GetWithContext(ctx, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrPhotoNotFound
		}
		return nil, nil, fmt.Errorf("failed to open object '%s': %w", utils.SanitizeLogFileName(objectPath), err)
	}
	return stream, info, nil
}

// WriteZip 将给定路径的对象打包为 zip 流写入 w
// 保持传入顺序；缺失的对象静默跳过，归档始终正常收尾
func (s *AdminService) WriteZip(ctx context.Context, objectPaths []string, w io.Writer) error {
	zw := zip.NewWriter(w)
	defer func() { _ = zw.Close() }()

	nameCounts := make(map[string]int, len(objectPaths))

	for _, objectPath := range objectPaths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stream, _, err := s.store.GetWithContext(ctx, objectPath)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				log.Printf("Export skipping missing object '%s'", utils.SanitizeLogFileName(objectPath))
				continue
			}
			return fmt.Errorf("failed to open object '%s': %w", utils.SanitizeLogFileName(objectPath), err)
		}

		entryName := s.uniqueEntryName(nameCounts, s.paths.BaseName(objectPath))
		entry, err := zw.Create(entryName)
		if err != nil {
			_ = stream.Close()
			return fmt.Errorf("failed to create zip entry '%s': %w", entryName, err)
		}

		_, copyErr := pool.Copy(entry, stream)
		_ = stream.Close()
		if copyErr != nil {
			return fmt.Errorf("failed to write zip entry '%s': %w", entryName, copyErr)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip archive: %w", err)
	}
	return nil
}

// uniqueEntryName 处理同名文件，追加序号避免 zip 内路径冲突
func (s *AdminService) uniqueEntryName(counts map[string]int, name string) string {
	counts[name]++
	if counts[name] == 1 {
		return name
	}
	return fmt.Sprintf("%d_%s", counts[name]-1, name)
}
