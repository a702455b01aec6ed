package store

import (
	"fmt"
	"io"
)

// DefaultMaxFileSize is the upload ceiling in bytes (100 MB).
const DefaultMaxFileSize int64 = 100_000_000

// SaveResult describes a file written by Save.
type SaveResult struct {
	StoredName string `json:"stored_name"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
}

// Store defines the interface for upload storage operations.
type Store interface {
	// Save writes the reader's content under a name derived from id and the
	// extension of originalName. It fails with FileTooLargeError once the
	// content exceeds the size ceiling and leaves nothing behind.
	Save(id, originalName string, reader io.Reader) (*SaveResult, error)

	// Path resolves a stored name to the file on disk.
	// Returns FileNotFoundError if the file is gone.
	Path(storedName string) (string, error)

	// Delete removes a stored file.
	Delete(storedName string) error

	// MaxFileSize returns the configured size ceiling in bytes.
	MaxFileSize() int64
}

// FileTooLargeError is returned when an upload exceeds the size ceiling.
type FileTooLargeError struct {
	Limit int64
}

func (e FileTooLargeError) Error() string {
	return "File too large"
}

// FileNotFoundError is returned when a stored file doesn't exist.
type FileNotFoundError struct {
	Name string
}

func (e FileNotFoundError) Error() string {
	return "file not found"
}

// FileExistsError is returned when the target name is already taken.
type FileExistsError struct {
	Name string
}

func (e FileExistsError) Error() string {
	return fmt.Sprintf("file %s already exists", e.Name)
}

// InvalidNameError is returned for ids or stored names that could escape the upload directory.
type InvalidNameError struct {
	Name string
}

func (e InvalidNameError) Error() string {
	return "invalid file name"
}
