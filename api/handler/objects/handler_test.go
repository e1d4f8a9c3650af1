package objects

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/event-gallery/storage"
)

func newTestObjectRouter(t *testing.T) (*gin.Engine, *storage.LocalStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	h := NewHandler(store)
	router := gin.New()
	router.GET("/o/*object", h.GetObject)
	return router, store
}

func TestGetObject_EscapedLocator(t *testing.T) {
	router, store := newTestObjectRouter(t)

	require.NoError(t, store.SaveWithContext(context.Background(), "photos/original/1700000000000-a.jpg", strings.NewReader("jpeg-bytes"), -1, storage.SaveOptions{}))

	req := httptest.NewRequest(http.MethodGet, "/o/photos%2Foriginal%2F1700000000000-a.jpg?alt=media", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestGetObject_PlainPath(t *testing.T) {
	router, store := newTestObjectRouter(t)

	require.NoError(t, store.SaveWithContext(context.Background(), "photos/thumbnails/b.png", strings.NewReader("png-bytes"), -1, storage.SaveOptions{}))

	req := httptest.NewRequest(http.MethodGet, "/o/photos/thumbnails/b.png?alt=media", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestGetObject_NotFound(t *testing.T) {
	router, _ := newTestObjectRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/o/photos%2Foriginal%2Fmissing.jpg?alt=media", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetObject_RejectsTraversal(t *testing.T) {
	router, _ := newTestObjectRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/o/..%2F..%2Fetc%2Fpasswd?alt=media", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
