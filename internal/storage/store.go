// Package storage keeps uploaded documents. Backends are interchangeable so
// the verification and certificate services never know where bytes live.
package storage

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store writes objects under a folder and deletes them by the URL Put returned.
type Store interface {
	// Put stores data and returns its public URL.
	Put(ctx context.Context, data []byte, mimeType, folder string) (string, error)
	// Delete removes the object behind url. A missing object or a URL this
	// backend does not own reports false with a nil error.
	Delete(ctx context.Context, url string) (bool, error)
}

var knownExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// extensionFor maps a mime type to a file extension, empty when unknown.
func extensionFor(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if ext, ok := knownExtensions[mimeType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// objectKey is "<folder>/<uuid><ext>".
func objectKey(folder, mimeType string) (string, error) {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		return "", ErrInvalidFolder
	}
	return folder + "/" + uuid.NewString() + extensionFor(mimeType), nil
}
