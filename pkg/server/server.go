package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"imushare/pkg/log"
	"imushare/pkg/mail"
	"imushare/pkg/records"
	"imushare/pkg/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout = 10
)

// Options carries the settings the handlers need besides their collaborators.
type Options struct {
	// BaseURL prefixes every public link, without a trailing slash.
	BaseURL string
	Version string
	// SingleSend allows at most one successful share email per file.
	SingleSend bool
}

// ShareServer serves uploads, share emails and downloads.
type ShareServer struct {
	echo       *echo.Echo
	baseURL    string
	version    string
	singleSend bool
	store      store.Store
	records    records.Repository
	mailer     mail.Mailer
	routesOnce sync.Once
}

func NewShareServer(opts Options, storeImpl store.Store, recordRepo records.Repository, mailer mail.Mailer) *ShareServer {
	return &ShareServer{
		echo:       echo.New(),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		version:    opts.Version,
		singleSend: opts.SingleSend,
		store:      storeImpl,
		records:    recordRepo,
		mailer:     mailer,
	}
}

// Handler returns the routed HTTP handler without starting a listener.
func (srv *ShareServer) Handler() http.Handler {
	srv.routesOnce.Do(srv.setupRoutes)
	return srv.echo
}

func (srv *ShareServer) Start(addr string) error {
	srv.routesOnce.Do(srv.setupRoutes)

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("addr", addr).
			Str("base_url", srv.baseURL).
			Str("version", srv.version).
			Bool("single_send", srv.singleSend).
			Msg("Starting share server")

		if err := srv.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return srv.Shutdown()
}

func (srv *ShareServer) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := srv.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (srv *ShareServer) setupRoutes() {
	srv.echo.HideBanner = true
	srv.echo.HidePort = true

	srv.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request handled")
			return nil
		},
	}))
	srv.echo.Use(middleware.Recover())

	srv.echo.POST("/", srv.uploadFile)
	srv.echo.POST("/send", srv.sendEmail)
	srv.echo.GET("/files/:uuid", srv.getFileInfo)
	srv.echo.GET("/files/download/:uuid", srv.downloadFile)
	srv.echo.GET("/swagger.yml", srv.serveSwaggerSpec)
}

// fileURL is the public link of a record.
func (srv *ShareServer) fileURL(id string) string {
	return srv.baseURL + "/files/" + id
}

func (srv *ShareServer) downloadURL(id string) string {
	return srv.baseURL + "/files/download/" + id
}
