package disk

import (
	"io"
	"os"

	"imushare/pkg/log"
	"imushare/pkg/store"
)

// Save streams reader into the upload directory as "<id><ext>".
// Content is written to a hidden temp file first and only renamed into place
// once it is complete and within the size ceiling.
func (s *Store) Save(id, originalName string, reader io.Reader) (*store.SaveResult, error) {
	name, err := storedName(id, originalName)
	if err != nil {
		return nil, err
	}

	targetPath := s.filePath(name)
	if _, err := os.Stat(targetPath); err == nil {
		return nil, store.FileExistsError{Name: name}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	tempFile, err := os.CreateTemp(s.uploadDir, tempPattern)
	if err != nil {
		log.Error().Err(err).Str("upload_dir", s.uploadDir).Msg("Failed to create temporary file")
		return nil, err
	}
	tempPath := tempFile.Name()

	written, copyErr := io.Copy(tempFile, io.LimitReader(reader, s.maxFileSize+1))
	closeErr := tempFile.Close()

	switch {
	case copyErr != nil:
		s.cleanupTempFile(tempPath)
		log.Error().Err(copyErr).Str("stored_name", name).Msg("Failed to write upload")
		return nil, copyErr
	case written > s.maxFileSize:
		s.cleanupTempFile(tempPath)
		log.Warn().Str("stored_name", name).Int64("limit", s.maxFileSize).Msg("Upload exceeds size limit")
		return nil, store.FileTooLargeError{Limit: s.maxFileSize}
	case closeErr != nil:
		s.cleanupTempFile(tempPath)
		return nil, closeErr
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		s.cleanupTempFile(tempPath)
		log.Error().Err(err).Str("target_path", targetPath).Msg("Failed to move upload into place")
		return nil, err
	}

	log.Info().Str("stored_name", name).Int64("size", written).Msg("File stored")
	return &store.SaveResult{
		StoredName: name,
		Path:       targetPath,
		Size:       written,
	}, nil
}

func (s *Store) cleanupTempFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Str("temp_path", path).Msg("Failed to remove temporary file")
	}
}
