package photo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/event-gallery/storage"
)

func newTestUploadService(t *testing.T, store *fakeStore) (*UploadService, *fakeStore) {
	t.Helper()

	if store == nil {
		store = newFakeStore()
	}
	repo := newTestRepo(t)
	return NewUploadService(repo, store, NewDeriver(800, 82), testBaseURL, 50), store
}

func TestUpload_ImageGetsThumbnail(t *testing.T) {
	svc, store := newTestUploadService(t, nil)

	img := encodePNG(t, 1600, 1200)
	photo, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "dsc_0042.png",
		ContentType:  "image/png",
		Photographer: "Alice",
		Caption:      "keynote",
		File:         img,
		Size:         int64(img.Len()),
	})
	require.NoError(t, err)

	assert.Contains(t, photo.OriginalPath, "photos/original/")
	assert.Contains(t, photo.ThumbnailPath, "photos/thumbnails/")
	assert.NotEqual(t, photo.OriginalURL, photo.ThumbnailURL)
	assert.Contains(t, photo.OriginalURL, "/o/photos%2Foriginal%2F")
	assert.Contains(t, photo.OriginalURL, "?alt=media")
	assert.False(t, photo.UploadedAt.IsZero())

	assert.True(t, store.has(photo.OriginalPath))
	assert.True(t, store.has(photo.ThumbnailPath))
}

func TestUpload_NonImageFallsBackToOriginal(t *testing.T) {
	svc, store := newTestUploadService(t, nil)

	content := "not an image at all"
	photo, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "notes.txt",
		Photographer: "Bob",
		File:         strings.NewReader(content),
		Size:         int64(len(content)),
	})
	require.NoError(t, err)

	// 缩略图退化为原图
	assert.Equal(t, photo.OriginalURL, photo.ThumbnailURL)
	assert.Equal(t, photo.OriginalPath, photo.ThumbnailPath)
	assert.True(t, store.has(photo.OriginalPath))
	assert.Equal(t, 1, store.count())
}

func TestUpload_ReportsProgress(t *testing.T) {
	svc, _ := newTestUploadService(t, nil)

	img := encodePNG(t, 400, 300)
	size := int64(img.Len())

	var last Progress
	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "a.png",
		Photographer: "Alice",
		File:         img,
		Size:         size,
		OnProgress: func(p Progress) {
			last = p
		},
	})
	require.NoError(t, err)

	assert.Equal(t, size, last.BytesTransferred)
	assert.InDelta(t, 100.0, last.Percent, 0.001)
}

func TestUpload_RequiresPhotographer(t *testing.T) {
	svc, _ := newTestUploadService(t, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName: "a.png",
		File:     strings.NewReader("x"),
		Size:     1,
	})
	assert.ErrorIs(t, err, ErrPhotographerRequired)

	_, err = svc.Upload(context.Background(), UploadInput{
		FileName:     "a.png",
		Photographer: "   ",
		File:         strings.NewReader("x"),
		Size:         1,
	})
	assert.ErrorIs(t, err, ErrPhotographerRequired)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	svc, _ := newTestUploadService(t, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "huge.png",
		Photographer: "Alice",
		File:         strings.NewReader("x"),
		Size:         51 << 20,
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUpload_RejectsEmptyFile(t *testing.T) {
	svc, _ := newTestUploadService(t, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "empty.png",
		Photographer: "Alice",
		File:         strings.NewReader(""),
		Size:         0,
	})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestUpload_OriginalSaveFailureLeavesNoMetadata(t *testing.T) {
	store := newFakeStore()
	repo := newTestRepo(t)
	svc := NewUploadService(repo, &failAllOriginals{fakeStore: store}, NewDeriver(800, 82), testBaseURL, 50)

	img := encodePNG(t, 400, 300)

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:     "a.png",
		Photographer: "Alice",
		File:         img,
		Size:         int64(img.Len()),
	})
	require.Error(t, err)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// 并发写入的缩略图也被清理
	assert.Zero(t, store.count())
}

// failAllOriginals 使所有原图命名空间的保存失败
type failAllOriginals struct {
	*fakeStore
}

func (f *failAllOriginals) SaveWithContext(ctx context.Context, objectPath string, file io.Reader, size int64, opts storage.SaveOptions) error {
	if strings.Contains(objectPath, "photos/original/") {
		return errors.New("simulated original save failure")
	}
	return f.fakeStore.SaveWithContext(ctx, objectPath, file, size, opts)
}
