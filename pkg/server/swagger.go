package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed swagger.yml
var swaggerSpec []byte

func (srv *ShareServer) serveSwaggerSpec(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, "application/yaml", swaggerSpec)
}
