package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"hirely/internal/engine/parsing"
	"hirely/internal/pkg/logger"
	"hirely/internal/platform/config"
	"hirely/internal/platform/database"
	"hirely/internal/platform/repositories"
	"hirely/internal/resumeparser"
	"hirely/internal/signing"
	"hirely/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	logger.Init("hirely-worker", cfg.Logging)
	log.Info().Msg("Starting Hirely Background Workers...")

	authenticator, err := signing.New(cfg.Signing.Secret, signing.WithTolerance(cfg.Signing.Tolerance))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create request authenticator")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	parserClient := resumeparser.NewClient(cfg.ResumeParser.BaseURL, authenticator, cfg.ResumeParser.Timeout)
	callbackURL := strings.TrimRight(cfg.Server.PublicURL, "/") + "/api/v1/callbacks/resume-parser"
	parseSvc := parsing.NewService(repositories.NewParseJobRepository(db), parserClient, callbackURL, cfg.Workers.MaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.RunRetryWorker(ctx, parseSvc, cfg.Workers)
}
