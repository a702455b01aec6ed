package main

import (
	_ "embed"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"imushare/pkg/config"
	"imushare/pkg/log"
	"imushare/pkg/mail"
	"imushare/pkg/records"
	"imushare/pkg/server"
	"imushare/pkg/store/disk"
)

const (
	dataDirPerm = 0750
)

//go:embed VERSION
var Version string

func main() {
	// Initialize logger first
	_ = log.Logger

	configPath := flag.String("config", "", "Path to config file (default: ./config/config.yaml or ./config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := log.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}
	if *debug {
		log.SetDebugMode()
	}

	files, err := disk.New(cfg.Storage.UploadDir, cfg.Storage.MaxFileSize)
	if err != nil {
		log.Fatal().Err(err).Str("upload_dir", cfg.Storage.UploadDir).Msg("Failed to create upload directory")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), dataDirPerm); err != nil {
		log.Fatal().Err(err).Str("database_path", cfg.Database.Path).Msg("Failed to create database directory")
	}

	recordStore, err := records.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("database_path", cfg.Database.Path).Msg("Failed to open record store")
	}

	share := server.NewShareServer(server.Options{
		BaseURL:    cfg.BaseURL,
		Version:    strings.TrimSpace(Version),
		SingleSend: cfg.Mail.SingleSend,
	}, files, recordStore, newMailer(cfg.Mail))

	err = share.Start(cfg.Server.Addr)
	if closeErr := recordStore.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to close record store")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	os.Exit(0)
}

func newMailer(cfg config.MailConfig) mail.Mailer {
	if !cfg.Enabled {
		log.Warn().Msg("Mail delivery disabled, share emails will only be logged")
		return mail.NewLogMailer()
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		EnvelopeFrom: cfg.EnvelopeFrom,
		Timeout:      cfg.Timeout,
	})
}
