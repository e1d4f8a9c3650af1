package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anoixa/event-gallery/database/models"
	"github.com/anoixa/event-gallery/database/repo/photos"
	"github.com/anoixa/event-gallery/storage"
	"github.com/anoixa/event-gallery/utils"
)

const testBaseURL = "http://localhost:8080"

// fakeStore 进程内存储实现，用于服务层测试
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// failSave 指定保存必定失败的路径
	failSave map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]byte),
		failSave: make(map[string]bool),
	}
}

func (f *fakeStore) SaveWithContext(ctx context.Context, objectPath string, file io.Reader, size int64, opts storage.SaveOptions) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave[objectPath] {
		return fmt.Errorf("simulated save failure for %s", objectPath)
	}
	f.objects[objectPath] = data
	return nil
}

func (f *fakeStore) GetWithContext(ctx context.Context, objectPath string) (io.ReadCloser, *storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[objectPath]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.ObjectInfo{ContentType: "image/jpeg", Size: int64(len(data))}, nil
}

func (f *fakeStore) DeleteWithContext(ctx context.Context, objectPath string, ignoreNotFound bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[objectPath]; !ok {
		if ignoreNotFound {
			return nil
		}
		return storage.ErrObjectNotFound
	}
	delete(f.objects, objectPath)
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, objectPath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objectPath]
	return ok, nil
}

func (f *fakeStore) Health(ctx context.Context) error { return nil }
func (f *fakeStore) Name() string                     { return "fake" }

func (f *fakeStore) has(objectPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objectPath]
	return ok
}

func (f *fakeStore) put(objectPath string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectPath] = data
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestRepo(t *testing.T) *photos.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Photo{}))
	return photos.NewRepository(db)
}

// seedPhoto 直接写入元数据和二进制对象，绕过上传服务
func seedPhoto(t *testing.T, repo *photos.Repository, store *fakeStore, key, photographer string) *models.Photo {
	t.Helper()

	originalPath := "photos/original/" + key
	thumbnailPath := "photos/thumbnails/" + key
	store.put(originalPath, []byte("original-"+key))
	store.put(thumbnailPath, []byte("thumb-"+key))

	photo := &models.Photo{
		FileName:      key,
		SizeBytes:     int64(len("original-" + key)),
		ContentType:   "image/jpeg",
		Photographer:  photographer,
		OriginalPath:  originalPath,
		ThumbnailPath: thumbnailPath,
		OriginalURL:   utils.BuildObjectURL(testBaseURL, originalPath),
		ThumbnailURL:  utils.BuildObjectURL(testBaseURL, thumbnailPath),
	}
	require.NoError(t, repo.Insert(context.Background(), photo))
	return photo
}
