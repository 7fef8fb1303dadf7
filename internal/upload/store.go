// Package upload stores user file attachments on local disk and serves them
// back by name. Filenames get a timestamp prefix so re-uploading the same
// file never overwrites an earlier attachment.
package upload

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize is the upload size cap in bytes.
const MaxFileSize = 5 << 20

// allowedTypes are the content types accepted for upload.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ErrFileTooLarge is returned when an upload exceeds MaxFileSize.
var ErrFileTooLarge = fmt.Errorf("file should be less than 5MB")

// ErrUnsupportedType is returned for content types other than JPEG and PNG.
var ErrUnsupportedType = fmt.Errorf("file type should be JPEG or PNG")

// StoredFile describes a persisted upload the way clients reference it.
type StoredFile struct {
	URL                string `json:"url"`
	Pathname           string `json:"pathname"`
	ContentType        string `json:"contentType"`
	ContentDisposition string `json:"contentDisposition"`
}

// Store writes uploads under a single directory and maps them to URLs below
// a fixed public prefix.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore creates the upload directory if needed. urlPrefix is the public
// path uploads are served under, e.g. "/uploads".
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Save validates and persists one upload. size is the client-declared length;
// the copy is capped at MaxFileSize regardless.
func (s *Store) Save(filename, contentType string, size int64, r io.Reader) (*StoredFile, error) {
	if size > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, ErrUnsupportedType
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if written > MaxFileSize {
		os.Remove(path)
		return nil, ErrFileTooLarge
	}

	return &StoredFile{
		URL:                s.urlPrefix + "/" + name,
		Pathname:           name,
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", name),
	}, nil
}

// Path resolves a stored filename to its on-disk location. Rejects names
// that escape the upload directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid file name")
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	return path, nil
}

// ContentTypeFor infers a content type from the stored file's extension.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sanitizeFilename keeps the base name and replaces path separators so a
// hostile filename cannot traverse out of the upload directory.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "" {
		return "upload"
	}
	return base
}
