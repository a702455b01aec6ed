package server

import (
	"errors"
	"net/http"

	"imushare/pkg/log"
	"imushare/pkg/models"
	"imushare/pkg/records"
	"imushare/pkg/store"

	"github.com/labstack/echo/v4"
)

func (srv *ShareServer) downloadFile(ctx echo.Context) error {
	id := ctx.Param("uuid")
	log.Info().Str("uuid", id).Msg("File download request")

	record, err := srv.records.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Link has been expired."})
		}
		log.Error().Err(err).Str("uuid", id).Msg("Failed to look up download")
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Something went wrong.",
			Code:  errCodeStoreUnavailable,
		})
	}

	filePath, err := srv.store.Path(record.StoredName)
	if err != nil {
		var notFoundErr store.FileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Warn().Str("uuid", id).Str("stored_name", record.StoredName).Msg("Record points at a missing file")
			return ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Link has been expired."})
		}
		log.Error().Err(err).Str("uuid", id).Msg("Failed to resolve stored file")
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Something went wrong."})
	}

	log.Info().Str("uuid", id).Str("file_path", filePath).Msg("Serving file download")
	return ctx.Attachment(filePath, record.DisplayName())
}
