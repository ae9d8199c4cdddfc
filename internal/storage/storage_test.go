package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxSize int64) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/uploads", maxSize)
	require.NoError(t, err)
	return store
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func TestValidateImage(t *testing.T) {
	store := newTestStore(t, 10)

	assert.NoError(t, store.ValidateImage(fileHeader(t, "photo.jpg", []byte("123"))))
	assert.NoError(t, store.ValidateImage(fileHeader(t, "photo.PNG", []byte("123"))))

	err := store.ValidateImage(fileHeader(t, "evil.exe", []byte("123")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	err = store.ValidateImage(fileHeader(t, "big.jpg", bytes.Repeat([]byte("x"), 11)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadAndDelete(t *testing.T) {
	store := newTestStore(t, 0)

	path, err := store.Upload(BucketActionPhotos, "a.jpg", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "action-photos/a.jpg", path)

	onDisk := filepath.Join(store.BaseDir(), "action-photos", "a.jpg")
	content, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(content))

	require.NoError(t, store.Delete(path))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteRejectsTraversal(t *testing.T) {
	store := newTestStore(t, 0)

	assert.Error(t, store.Delete("../outside.txt"))
	assert.Error(t, store.Delete("/etc/passwd"))
}

func TestPublicURLRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)

	url := store.PublicURL("avatars/me.png")
	assert.Equal(t, "/uploads/avatars/me.png", url)

	path, ok := store.PathFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "avatars/me.png", path)

	_, ok = store.PathFromURL("https://elsewhere.example.com/x.png")
	assert.False(t, ok)
}
