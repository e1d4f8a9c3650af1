package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anoixa/event-gallery/database/models"
	"github.com/anoixa/event-gallery/database/repo/photos"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
	"github.com/anoixa/event-gallery/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *photos.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	repo := photos.NewRepository(db)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	uploadService := photoSvc.NewUploadService(repo, store, photoSvc.NewDeriver(800, 82), "http://localhost:8080", 50)
	queryService := photoSvc.NewQueryService(repo, nil, 3600)

	h := NewHandler(uploadService, queryService)

	router := gin.New()
	router.POST("/api/v1/photos/upload", h.UploadPhoto)
	router.GET("/api/v1/photos/:id", h.GetPhoto)
	router.GET("/api/v1/gallery", h.ListPhotos)
	router.GET("/api/v1/gallery/search", h.SearchPhotos)
	router.GET("/api/v1/gallery/stats", h.GalleryStats)
	return router, repo
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, photographer, caption string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "dsc_0042.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	if photographer != "" {
		require.NoError(t, mw.WriteField("photographer", photographer))
	}
	if caption != "" {
		require.NoError(t, mw.WriteField("caption", caption))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "Alice", "keynote", pngBytes(t)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID           uint   `json:"id"`
			Photographer string `json:"photographer"`
			OriginalURL  string `json:"original_url"`
			ThumbnailURL string `json:"thumbnail_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.NotZero(t, resp.Data.ID)
	assert.Equal(t, "Alice", resp.Data.Photographer)
	assert.Contains(t, resp.Data.OriginalURL, "/o/photos%2Foriginal%2F")
}

func TestUploadPhoto_MissingPhotographer(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "", "", pngBytes(t)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPhoto_MissingFile(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "Alice", "", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPhotos_Pagination(t *testing.T) {
	router, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, fmt.Sprintf("User%d", i), "", pngBytes(t)))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?page_size=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Items      []json.RawMessage `json:"items"`
			NextCursor string            `json:"next_cursor"`
			HasMore    bool              `json:"has_more"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 2)
	assert.True(t, resp.Data.HasMore)
	assert.NotEmpty(t, resp.Data.NextCursor)

	// 第二页
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?page_size=2&cursor="+resp.Data.NextCursor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 1)
}

func TestListPhotos_BadCursor(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?cursor=garbage", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchPhotos(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "Alice Chen", "", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery/search?photographer=alice", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Count)

	// 缺少查询参数
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGalleryStats(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "Alice", "", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gallery/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data photoSvc.GalleryStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.TotalPhotos)
	assert.Equal(t, 1, resp.Data.Photographers)
}

func TestGetPhoto(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "Alice", "", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/photos/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/photos/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/photos/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, parsePageSize(""))
	assert.Equal(t, DefaultPageSize, parsePageSize("0"))
	assert.Equal(t, DefaultPageSize, parsePageSize("-1"))
	assert.Equal(t, DefaultPageSize, parsePageSize("abc"))
	assert.Equal(t, 30, parsePageSize("30"))
	assert.Equal(t, MaxPageSize, parsePageSize("5000"))
}
