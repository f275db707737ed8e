// Command devtoken mints an access token for local testing against the API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"hirely/internal/platform/auth"
	"hirely/internal/platform/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	userID := flag.String("user", "usr_dev", "Subject of the token")
	email := flag.String("email", "dev@hirely.local", "Email claim")
	role := flag.String("role", auth.RoleJobSeeker, "Role claim: job_seeker or recruiter")
	ttl := flag.Duration("ttl", 0, "Token lifetime (defaults to auth.dev_token_ttl)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("auth.jwt_secret (AUTH_JWT_SECRET) is required")
	}
	if *role != auth.RoleJobSeeker && *role != auth.RoleRecruiter {
		log.Fatal().Str("role", *role).Msg("Unknown role")
	}

	token, err := auth.NewTokenService(cfg.Auth).GenerateAccessToken(*userID, *email, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Println(token)
}
