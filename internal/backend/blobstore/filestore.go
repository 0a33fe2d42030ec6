package blobstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const defaultFileName = "image"

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStore keeps uploaded images in a single directory. Files are named
// "<unix-millis>-<original name>", which avoids collisions between uploads
// that are at least a millisecond apart.
type FileStore struct {
	directory string
	now       func() time.Time
}

func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, fmt.Errorf("blob store directory must not be empty")
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob store directory %s: %w", directory, err)
	}
	return &FileStore{
		directory: directory,
		now:       time.Now,
	}, nil
}

func (s *FileStore) Directory() string {
	return s.directory
}

// Save writes src to a new file and returns its path. An existing file is never overwritten.
func (s *FileStore) Save(originalName string, src io.Reader) (string, error) {
	// Directory may have been removed out-of-band since startup
	if err := os.MkdirAll(s.directory, 0755); err != nil {
		return "", fmt.Errorf("failed to create blob store directory %s: %w", s.directory, err)
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFileName(originalName))
	path := filepath.Join(s.directory, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if _, err := io.Copy(file, src); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return path, nil
}

func (s *FileStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at path. A missing file is not an error.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// PublicName is the name under which the file is served below the static prefix.
func (s *FileStore) PublicName(path string) string {
	return filepath.Base(path)
}

func sanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeFileNameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return defaultFileName
	}
	return base
}
