package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"imushare/pkg/log"
	"imushare/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	uploadField   = "myfile"
	maxIDAttempts = 3
)

var (
	errMissingFile = errors.New("All fields are required")
	errIDExhausted = errors.New("could not generate an unused file identifier")
)

func (srv *ShareServer) uploadFile(ctx echo.Context) error {
	log.Info().Msg("File upload request received")

	reqCtx := ctx.Request().Context()
	record, err := srv.receiveUpload(reqCtx, ctx.Request())
	if err != nil {
		if errors.Is(err, errMissingFile) {
			log.Warn().Msg("Upload without file field")
			return ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errMissingFile.Error()})
		}
		log.Error().Err(err).Msg("Failed to store upload")
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	if err := srv.records.Create(reqCtx, record); err != nil {
		log.Error().Err(err).Str("uuid", record.ID).Msg("Failed to save file record")
		srv.discardStoredFile(record.StoredName)
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	log.Info().
		Str("uuid", record.ID).
		Str("stored_name", record.StoredName).
		Int64("size", record.SizeBytes).
		Msg("File uploaded successfully")

	return ctx.JSON(http.StatusOK, models.UploadResponse{File: srv.fileURL(record.ID)})
}

// receiveUpload streams the multipart body and stores the first file sent as
// uploadField. The missing-file decision is made only once the body is consumed.
func (srv *ShareServer) receiveUpload(ctx context.Context, req *http.Request) (*models.FileRecord, error) {
	reader, err := req.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errMissingFile
		}
		return nil, err
	}

	var record *models.FileRecord
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if record != nil {
				srv.discardStoredFile(record.StoredName)
			}
			return nil, err
		}

		if record != nil || part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		id, err := srv.newRecordID(ctx)
		if err != nil {
			_ = part.Close()
			return nil, err
		}

		result, err := srv.store.Save(id, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}

		record = &models.FileRecord{
			ID:           id,
			StoredName:   result.StoredName,
			StoragePath:  result.Path,
			OriginalName: part.FileName(),
			SizeBytes:    result.Size,
		}
	}

	if record == nil {
		return nil, errMissingFile
	}
	return record, nil
}

// newRecordID returns a fresh uuid that no record uses yet.
func (srv *ShareServer) newRecordID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := uuid.NewString()

		taken, err := srv.records.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
		log.Warn().Str("uuid", id).Msg("Generated identifier already in use")
	}
	return "", errIDExhausted
}

func (srv *ShareServer) discardStoredFile(storedName string) {
	if err := srv.store.Delete(storedName); err != nil {
		log.Error().Err(err).Str("stored_name", storedName).Msg("Failed to remove orphaned upload")
	}
}
