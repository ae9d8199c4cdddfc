package utils

import (
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSecureToken returns a URL-safe random token of n bytes entropy.
// Used for invitation links.
func GenerateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateUploadFilename builds a collision-free filename for an uploaded
// file, preserving the original extension
func GenerateUploadFilename(ownerID uuid.UUID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return ownerID.String() + "_" + time.Now().UTC().Format("20060102150405") + "_" + uuid.New().String()[:8] + ext
}
