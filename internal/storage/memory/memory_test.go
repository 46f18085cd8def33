package memory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetone/api/internal/storage"
)

func TestStorage_UploadAndGetURL(t *testing.T) {
	s := New("http://localhost:8080/")
	ctx := context.Background()

	res, err := s.Upload(ctx, &storage.UploadInput{
		Key:         "saxophones/1700000000000_mark-vi.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Data:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "saxophones/1700000000000_mark-vi.jpg", res.Key)
	assert.Equal(t, "http://localhost:8080/media/saxophones/1700000000000_mark-vi.jpg", res.URL)

	url, err := s.GetURL(ctx, res.Key)
	require.NoError(t, err)
	assert.Equal(t, res.URL, url)
	assert.Equal(t, 1, s.Len())
}

func TestStorage_DeleteMissing(t *testing.T) {
	s := New("http://localhost")

	err := s.Delete(context.Background(), "nope")

	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStorage_ServeHTTP(t *testing.T) {
	s := New("http://localhost")
	_, err := s.Upload(context.Background(), &storage.UploadInput{
		Key:         "saxophones/a.png",
		ContentType: "image/png",
		Data:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saxophones/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saxophones/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
