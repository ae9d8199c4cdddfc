package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// Buckets used by the application
const (
	BucketActionPhotos = "action-photos"
	BucketAvatars      = "avatars"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ErrInvalidFileType is returned for uploads that are not images
var ErrInvalidFileType = errors.New("invalid file type, only JPG, PNG, GIF and WEBP are allowed")

// ErrFileTooLarge is returned when an upload exceeds the configured limit
var ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")

// LocalStore is a per-bucket file store on local disk with public URL
// retrieval and delete-by-path
type LocalStore struct {
	baseDir       string
	publicBaseURL string
	maxSizeBytes  int64
}

// NewLocalStore creates a local file store rooted at baseDir
func NewLocalStore(baseDir, publicBaseURL string, maxSizeBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxSizeBytes:  maxSizeBytes,
	}, nil
}

// BaseDir returns the root directory files are stored under
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// ValidateImage checks extension and size before any bytes are written
func (s *LocalStore) ValidateImage(header *multipart.FileHeader) error {
	if !allowedImageExts[strings.ToLower(filepath.Ext(header.Filename))] {
		return ErrInvalidFileType
	}
	if s.maxSizeBytes > 0 && header.Size > s.maxSizeBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Upload writes the file into the bucket and returns its storage path
// (bucket/filename), suitable for PublicURL and Delete
func (s *LocalStore) Upload(bucket, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.baseDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory: %w", err)
	}

	dst := filepath.Join(dir, filename)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		// best effort removal of the partial file
		os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return bucket + "/" + filename, nil
}

// PublicURL returns the URL a stored path is served under
func (s *LocalStore) PublicURL(storagePath string) string {
	return s.publicBaseURL + "/" + storagePath
}

// Delete removes a stored file by its storage path
func (s *LocalStore) Delete(storagePath string) error {
	clean := filepath.Clean(storagePath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return errors.New("invalid storage path")
	}
	return os.Remove(filepath.Join(s.baseDir, clean))
}

// PathFromURL converts a public URL back to a storage path, returning
// false when the URL was not produced by this store
func (s *LocalStore) PathFromURL(url string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
