package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"hirely/internal/api"
	"hirely/internal/api/handlers"
	"hirely/internal/api/middleware"
	"hirely/internal/engine/parsing"
	"hirely/internal/pkg/logger"
	"hirely/internal/platform/auth"
	"hirely/internal/platform/config"
	"hirely/internal/platform/database"
	"hirely/internal/platform/repositories"
	"hirely/internal/resumeparser"
	"hirely/internal/signing"
)

const callbackPath = "/api/v1/callbacks/resume-parser"

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

	logger.Init("hirely-api", cfg.Logging)

	authenticator, err := signing.New(cfg.Signing.Secret, signing.WithTolerance(cfg.Signing.Tolerance))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create request authenticator")
	}

	// Database Connection
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Repositories
	parseJobRepo := repositories.NewParseJobRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.Auth)
	parserClient := resumeparser.NewClient(cfg.ResumeParser.BaseURL, authenticator, cfg.ResumeParser.Timeout)
	callbackURL := strings.TrimRight(cfg.Server.PublicURL, "/") + callbackPath
	parseSvc := parsing.NewService(parseJobRepo, parserClient, callbackURL, cfg.Workers.MaxAttempts)

	// Middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go rateLimiter.Run(ctx)

	// Router
	deps := &api.Dependencies{
		ParseHandler:        handlers.NewParseHandler(parseSvc),
		CallbackHandler:     handlers.NewCallbackHandler(parseSvc),
		HealthHandler:       handlers.NewHealthHandler(db),
		AuthMiddleware:      middleware.NewAuthMiddleware(tokenSvc),
		SignatureMiddleware: middleware.NewSignatureMiddleware(authenticator, cfg.Signing.MaxBodyBytes),
		RateLimiter:         rateLimiter,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Str("callback_url", callbackURL).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
