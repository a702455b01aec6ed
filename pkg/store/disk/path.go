package disk

import (
	"os"

	"imushare/pkg/log"
	"imushare/pkg/store"
)

// Path resolves a stored name to its location on disk.
func (s *Store) Path(storedName string) (string, error) {
	if !validName(storedName) {
		return "", store.InvalidNameError{Name: storedName}
	}

	filePath := s.filePath(storedName)
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return "", store.FileNotFoundError{Name: storedName}
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", store.FileNotFoundError{Name: storedName}
	}

	return filePath, nil
}

// Delete removes a stored file.
func (s *Store) Delete(storedName string) error {
	if !validName(storedName) {
		return store.InvalidNameError{Name: storedName}
	}

	filePath := s.filePath(storedName)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return store.FileNotFoundError{Name: storedName}
		}
		log.Error().Err(err).Str("file_path", filePath).Msg("Failed to delete file")
		return err
	}

	log.Info().Str("stored_name", storedName).Msg("File deleted")
	return nil
}
