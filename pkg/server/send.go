package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"imushare/pkg/log"
	"imushare/pkg/mail"
	"imushare/pkg/models"
	"imushare/pkg/records"

	"github.com/labstack/echo/v4"
)

const (
	errCodeNotFound         = "not_found"
	errCodeStoreUnavailable = "store_unavailable"
)

// sendRequest is the body of POST /send. An expiresIn field is accepted and ignored.
type sendRequest struct {
	UUID      string `json:"uuid" form:"uuid"`
	EmailTo   string `json:"emailTo" form:"emailTo"`
	EmailFrom string `json:"emailFrom" form:"emailFrom"`
}

func (srv *ShareServer) sendEmail(ctx echo.Context) error {
	var req sendRequest
	if err := ctx.Bind(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid send request body")
		return ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body."})
	}

	req.UUID = strings.TrimSpace(req.UUID)
	req.EmailTo = strings.TrimSpace(req.EmailTo)
	req.EmailFrom = strings.TrimSpace(req.EmailFrom)

	if req.UUID == "" || req.EmailTo == "" || req.EmailFrom == "" {
		return ctx.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "All fields are required except expiry."})
	}

	log.Info().Str("uuid", req.UUID).Str("to", req.EmailTo).Msg("Share email request")

	reqCtx := ctx.Request().Context()
	record, err := srv.records.Get(reqCtx, req.UUID)
	if err != nil {
		return srv.lookupFailed(ctx, req.UUID, err)
	}

	if srv.singleSend && record.Notified {
		return alreadySent(ctx, req.UUID)
	}

	record, err = srv.records.Notify(reqCtx, record.ID, req.EmailFrom, req.EmailTo, srv.singleSend)
	if err != nil {
		if errors.Is(err, records.ErrAlreadyNotified) {
			return alreadySent(ctx, req.UUID)
		}
		return srv.lookupFailed(ctx, req.UUID, err)
	}

	msg, err := mail.NewShareMessage(req.EmailFrom, req.EmailTo, mail.ShareData{
		EmailFrom:    req.EmailFrom,
		DownloadLink: srv.fileURL(record.ID) + "?source=email",
		Size:         record.SizeKB(),
		Expires:      mail.ShareExpiry,
	})
	if err == nil {
		err = srv.mailer.Send(reqCtx, msg)
	}
	if err != nil {
		log.Error().Err(err).Str("uuid", record.ID).Str("to", req.EmailTo).Msg("Failed to send share email")
		srv.releaseNotification(context.WithoutCancel(reqCtx), record.ID)
		return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	log.Info().Str("uuid", record.ID).Str("to", req.EmailTo).Msg("Share email sent")
	return ctx.JSON(http.StatusOK, models.SendResponse{Success: true})
}

// lookupFailed keeps one public message for every lookup failure and tells
// the kinds apart through the code field.
func (srv *ShareServer) lookupFailed(ctx echo.Context, id string, err error) error {
	code := errCodeStoreUnavailable
	if errors.Is(err, records.ErrRecordNotFound) {
		code = errCodeNotFound
		log.Warn().Str("uuid", id).Msg("Share requested for unknown file")
	} else {
		log.Error().Err(err).Str("uuid", id).Msg("Record lookup failed")
	}

	return ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: "Something went wrong.",
		Code:  code,
	})
}

func alreadySent(ctx echo.Context, id string) error {
	log.Warn().Str("uuid", id).Msg("Share email already sent")
	return ctx.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "Email already sent once."})
}

func (srv *ShareServer) releaseNotification(ctx context.Context, id string) {
	if err := srv.records.ReleaseNotification(ctx, id); err != nil {
		log.Error().Err(err).Str("uuid", id).Msg("Failed to release notification state")
	}
}
