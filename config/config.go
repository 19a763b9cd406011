package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string
	Port           string
	LogLevel       slog.Level
	DBUrl          string
	DBDriver       string
	JWTSecret      string
	JWTExpiry      time.Duration
	ContextTimeout time.Duration
	AllowedOrigins []string
	Simulation     SimulationConfig
	Email          EmailConfig
}

// SimulationConfig bounds admin-triggered simulation runs.
type SimulationConfig struct {
	Timeout    time.Duration
	MaxUsers   int
	MaxWorkers int
}

// EmailConfig selects and configures the notification mailer.
type EmailConfig struct {
	Provider           string
	FromAddress        string
	FromName           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	InsecureSkipVerify bool
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UseDatabase reports whether a DATABASE_URL was configured. Without one the
// in-memory store is used.
func (c *Config) UseDatabase() bool {
	return c.DBUrl != ""
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production the environment is the only source.
	if env != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn(".env file couldn't be loaded", "err", err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Environment:    env,
		Port:           p.str("PORT", "8080"),
		LogLevel:       p.level("LOG_LEVEL", slog.LevelInfo),
		DBUrl:          os.Getenv("DATABASE_URL"),
		DBDriver:       p.str("DB_DRIVER", "postgres"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      p.duration("JWT_EXPIRY", 24*time.Hour),
		ContextTimeout: p.duration("CONTEXT_TIMEOUT", 5*time.Second),
		AllowedOrigins: p.list("ALLOWED_ORIGINS"),
		Simulation: SimulationConfig{
			Timeout:    p.duration("SIMULATION_TIMEOUT", 30*time.Second),
			MaxUsers:   p.positiveInt("SIMULATION_MAX_USERS", 10000),
			MaxWorkers: p.positiveInt("SIMULATION_MAX_WORKERS", 1000),
		},
		Email: EmailConfig{
			Provider:           p.str("EMAIL_PROVIDER", "noop"),
			FromAddress:        os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:           os.Getenv("EMAIL_FROM_NAME"),
			AWSRegion:          p.str("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			InsecureSkipVerify: p.boolean("SES_INSECURE_SKIP_VERIFY"),
		},
	}

	switch cfg.DBDriver {
	case "postgres", "pgx":
	default:
		p.fail("DB_DRIVER", cfg.DBDriver, errors.New("must be postgres or pgx"))
	}
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		p.errs = append(p.errs, errors.New("JWT_SECRET is required in production"))
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

// parser reads typed values and collects every malformed variable so Load can
// report them together.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		p.fail(key, s, err)
		return fallback
	}
	if d <= 0 {
		p.fail(key, s, errors.New("must be positive"))
		return fallback
	}
	return d
}

func (p *parser) positiveInt(key string, fallback int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, s, err)
		return fallback
	}
	if n < 1 {
		p.fail(key, s, errors.New("must be a positive integer"))
		return fallback
	}
	return n
}

func (p *parser) boolean(key string) bool {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, s, err)
	}
	return b
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		p.fail(key, s, err)
		return fallback
	}
	return l
}

func (p *parser) list(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
