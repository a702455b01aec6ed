package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"imushare/pkg/store"
)

const (
	dirPerm     = 0750
	tempPattern = ".upload-*"
)

// extPattern limits kept extensions to short alphanumeric suffixes.
var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// Store implements the store.Store interface on a local upload directory.
type Store struct {
	uploadDir   string
	maxFileSize int64
}

// New creates the upload directory if needed and returns a Store writing into it.
// A non-positive maxFileSize falls back to store.DefaultMaxFileSize.
func New(uploadDir string, maxFileSize int64) (*Store, error) {
	if maxFileSize <= 0 {
		maxFileSize = store.DefaultMaxFileSize
	}
	if err := os.MkdirAll(uploadDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", uploadDir, err)
	}

	return &Store{
		uploadDir:   uploadDir,
		maxFileSize: maxFileSize,
	}, nil
}

// MaxFileSize returns the configured size ceiling in bytes.
func (s *Store) MaxFileSize() int64 {
	return s.maxFileSize
}

// UploadDir returns the directory files are written to.
func (s *Store) UploadDir() string {
	return s.uploadDir
}

// storedName builds "<id><ext>" keeping the original extension when it is sane.
func storedName(id, originalName string) (string, error) {
	if !validName(id) {
		return "", store.InvalidNameError{Name: id}
	}

	ext := filepath.Ext(filepath.Base(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return id + ext, nil
}

// validName rejects anything that is not a plain, visible file name.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.uploadDir, name)
}
