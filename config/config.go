package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"

	defaultJWTSecret = "change-me-in-production"
	minAdminSecret   = 12
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DBName      string `env:"MONGODB_DB" envDefault:"shelf"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"shelf.db"`

	JWTSecret   string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	TokenTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`
	AdminSecret string        `env:"ADMIN_SECRET"`

	S3Bucket      string `env:"AWS_S3_BUCKET"`
	S3Region      string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	MaxUploadMB   int64  `env:"MAX_UPLOAD_MB" envDefault:"50"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	AI AIConfig

	LoginRatePerMin int `env:"LOGIN_RATE_PER_MIN" envDefault:"10"`

	SMTP SMTPConfig

	MetadataBaseURL string `env:"METADATA_BASE_URL" envDefault:"https://www.googleapis.com/books/v1/volumes"`
}

// AIConfig points the reading companion at an OpenAI-compatible endpoint (Groq by default).
type AIConfig struct {
	APIKey        string        `env:"AI_API_KEY"`
	BaseURL       string        `env:"AI_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model         string        `env:"AI_MODEL" envDefault:"llama-3.1-8b-instant"`
	Timeout       time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	MaxPageChars  int           `env:"AI_MAX_PAGE_CHARS" envDefault:"6000"`
	MaxHistory    int           `env:"AI_MAX_HISTORY" envDefault:"20"`
	RatePerMinute int           `env:"AI_RATE_PER_MIN" envDefault:"20"`
}

// SMTPConfig is optional; suspension notices are skipped when Host is empty.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MaxUploadBytes is the multipart limit for book uploads.
func (c *Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return c.MaxUploadMB << 20
}

// Validate reports every problem at once so a misconfigured deploy fails with one message.
func (c *Config) Validate() error {
	var problems []error
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" || c.DBName == "" {
			problems = append(problems, errors.New("MONGODB_URI and MONGODB_DB are required for the mongo driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		problems = append(problems, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverSQLite, c.StoreDriver))
	}
	if c.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		problems = append(problems, errors.New("JWT_SECRET must be set to a strong secret in production"))
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, errors.New("JWT_TTL must be positive"))
	}
	if c.AdminSecret != "" && len(c.AdminSecret) < minAdminSecret {
		problems = append(problems, fmt.Errorf("ADMIN_SECRET must be at least %d characters", minAdminSecret))
	}
	if c.AI.MaxPageChars <= 0 || c.AI.MaxHistory < 0 {
		problems = append(problems, errors.New("AI_MAX_PAGE_CHARS must be positive and AI_MAX_HISTORY non-negative"))
	}
	return errors.Join(problems...)
}

// LogSummary logs which optional integrations are enabled. Secrets are never logged.
func (c *Config) LogSummary(logger *slog.Logger) {
	logger.Info("config loaded",
		"environment", c.Environment,
		"port", c.Port,
		"store", c.StoreDriver,
		"s3", c.S3Bucket != "",
		"ai", c.AI.APIKey != "",
		"ai_model", c.AI.Model,
		"smtp", c.SMTP.Host != "",
		"admin_registration", c.AdminSecret != "",
	)
}
