package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size
// cap, either declared up front or discovered while streaming.
var ErrTooLarge = errors.New("file exceeds size limit")

// StoredMedia describes a persisted media object.
type StoredMedia struct {
	URL      string
	Path     string
	Size     int64
	MIMEType string
}

// MediaStore persists uploaded class materials on disk under a base
// directory and hands back durable relative URLs.
type MediaStore struct {
	baseDir string
	maxSize int64
}

// NewMediaStore ensures the base directory exists and returns a handle.
func NewMediaStore(baseDir string, maxSize int64) (*MediaStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &MediaStore{baseDir: baseDir, maxSize: maxSize}, nil
}

// Save streams an upload to disk, naming it by a fresh UUID so uploads
// never collide. The original extension is kept for MIME detection.
func (s *MediaStore) Save(subjectID, filename string, size int64, r io.Reader) (*StoredMedia, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, s.maxSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	rel := filepath.Join(subjectID, uuid.NewString()+ext)
	path := s.resolve(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare media directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	written, err := io.Copy(file, r)
	if err != nil {
		return nil, fmt.Errorf("write media stream: %w", err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, s.maxSize)
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &StoredMedia{
		URL:      "/media/" + filepath.ToSlash(rel),
		Path:     rel,
		Size:     written,
		MIMEType: mimeType,
	}, nil
}

// Open returns a read-only handle for the stored file.
func (s *MediaStore) Open(rel string) (*os.File, error) {
	file, err := os.Open(s.resolve(rel))
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *MediaStore) Delete(rel string) error {
	if err := os.Remove(s.resolve(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *MediaStore) Path(rel string) string {
	return s.resolve(rel)
}

func (s *MediaStore) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.baseDir, rel)
}
