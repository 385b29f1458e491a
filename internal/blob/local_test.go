package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndServe(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewLocal(fs, "uploads", "/uploads/")
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), []byte("png-bytes"), "png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	stored, err := afero.ReadFile(fs, filepath.Join("uploads", ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(stored))

	url, err := store.URLFor(ref)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+ref, url)
	assert.Equal(t, "/uploads", store.Prefix())

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "png-bytes", string(body))
}

func TestLocalRefsAreUnique(t *testing.T) {
	store, err := NewLocal(afero.NewMemMapFs(), "uploads", "/uploads")
	require.NoError(t, err)

	a, err := store.Put(context.Background(), []byte("a"), "bin")
	require.NoError(t, err)
	b, err := store.Put(context.Background(), []byte("b"), "bin")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewLocal(fs, "uploads", "/uploads")
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), []byte("a"), "png")
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), ref))

	exists, err := afero.Exists(fs, filepath.Join("uploads", ref))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.Delete(context.Background(), ref), "deleting a missing object")
}
