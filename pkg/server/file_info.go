package server

import (
	"errors"
	"net/http"

	"imushare/pkg/log"
	"imushare/pkg/models"
	"imushare/pkg/records"

	"github.com/labstack/echo/v4"
)

func (srv *ShareServer) getFileInfo(ctx echo.Context) error {
	id := ctx.Param("uuid")
	log.Info().Str("uuid", id).Msg("File info request")

	record, err := srv.records.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Link has been expired."})
		}
		log.Error().Err(err).Str("uuid", id).Msg("Failed to get file info")
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Something went wrong.",
			Code:  errCodeStoreUnavailable,
		})
	}

	return ctx.JSON(http.StatusOK, models.FileInfoResponse{
		UUID:         record.ID,
		FileName:     record.DisplayName(),
		FileSize:     record.SizeKB(),
		SizeBytes:    record.SizeBytes,
		DownloadLink: srv.downloadURL(record.ID),
	})
}
