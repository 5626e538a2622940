package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UploadsPath is the URL path prefix local files are served under.
const UploadsPath = "/uploads/"

// Local writes objects below a directory and serves them from
// BASE_URL/uploads/<folder>/<name>.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the root directory, for mounting a file server.
func (s *Local) Dir() string {
	return s.dir
}

func (s *Local) Put(ctx context.Context, data []byte, mimeType, folder string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectKey(folder, mimeType)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.baseURL + UploadsPath + key, nil
}

func (s *Local) Delete(_ context.Context, url string) (bool, error) {
	target, ok := s.pathFor(url)
	if !ok {
		return false, nil
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove object: %w", err)
	}
	return true, nil
}

// pathFor maps a URL back to a file, refusing anything outside dir.
func (s *Local) pathFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+UploadsPath)
	if !ok || key == "" {
		return "", false
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.dir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return target, true
}
