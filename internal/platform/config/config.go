package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Signing      SigningConfig      `mapstructure:"signing"`
	ResumeParser ResumeParserConfig `mapstructure:"resume_parser"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Workers      WorkersConfig      `mapstructure:"workers"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	PublicURL    string        `mapstructure:"public_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// AuthConfig holds the shared secret of the managed auth provider's HS256 tokens.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	DevTTL    time.Duration `mapstructure:"dev_token_ttl"`
}

type SigningConfig struct {
	Secret       string        `mapstructure:"secret"`
	Tolerance    time.Duration `mapstructure:"tolerance"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type ResumeParserConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	ParseSubmitPerMinute int `mapstructure:"parse_submit_per_minute"`
	CallbackPerMinute    int `mapstructure:"callback_per_minute"`
	APIReadPerMinute     int `mapstructure:"api_read_per_minute"`
}

type WorkersConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BatchSize     int           `mapstructure:"batch_size"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.url", "file:data/hirely.db")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.dev_token_ttl", time.Hour)

	v.SetDefault("signing.secret", "")
	v.SetDefault("signing.tolerance", 5*time.Minute)
	v.SetDefault("signing.max_body_bytes", 1<<20)

	v.SetDefault("resume_parser.base_url", "")
	v.SetDefault("resume_parser.timeout", 10*time.Second)

	v.SetDefault("rate_limit.parse_submit_per_minute", 30)
	v.SetDefault("rate_limit.callback_per_minute", 600)
	v.SetDefault("rate_limit.api_read_per_minute", 1000)

	v.SetDefault("workers.retry_interval", time.Minute)
	v.SetDefault("workers.retry_backoff", 2*time.Minute)
	v.SetDefault("workers.max_attempts", 5)
	v.SetDefault("workers.batch_size", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
}

// Load reads the YAML file at path, if it exists, and overlays environment
// variables such as SIGNING_SECRET or RESUME_PARSER_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &config, nil
}

// Validate reports the first setting the server cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Signing.Secret == "":
		return errors.New("signing.secret (SIGNING_SECRET) is required")
	case c.Signing.Tolerance <= 0:
		return errors.New("signing.tolerance must be positive")
	case c.Auth.JWTSecret == "":
		return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is required")
	case c.ResumeParser.BaseURL == "":
		return errors.New("resume_parser.base_url (RESUME_PARSER_BASE_URL) is required")
	}
	return nil
}
