package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"mentors-mantra"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Database Database
	Redis    Redis
	Security Security
	Test     Test
	SMTP     SMTP
	Chat     Chat
	CORS     CORS
}

// Database selects the SQL backend. sqlite is the local default.
type Database struct {
	Driver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"mentors_mantra.db"`
	Postgres   Postgres
}

// Postgres captures connection info when DB_DRIVER=postgres.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis is optional; without an address sessions live in process memory.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret  string        `env:"JWT_SECRET,notEmpty"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"4h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`
}

// Test groups test session limits and timeouts.
type Test struct {
	DefaultQuestionCount int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"10"`
	MaxQuestionCount     int           `env:"MAX_QUESTION_COUNT" envDefault:"50"`
	DefaultDuration      time.Duration `env:"DEFAULT_TEST_DURATION" envDefault:"30m"`
	MaxDuration          time.Duration `env:"MAX_TEST_DURATION" envDefault:"3h"`
	PointsPerCorrect     int           `env:"POINTS_PER_CORRECT" envDefault:"4"`
	FetchTimeout         time.Duration `env:"QUESTION_FETCH_TIMEOUT" envDefault:"5s"`
	SideEffectTimeout    time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"10s"`
	LockWait             time.Duration `env:"SESSION_LOCK_WAIT" envDefault:"3s"`
	SessionRetention     time.Duration `env:"SESSION_RETENTION" envDefault:"24h"`
	ExpirySweepInterval  time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"15s"`
	QuestionPoolTTL      time.Duration `env:"QUESTION_POOL_TTL" envDefault:"5m"`
}

// SMTP holds email server configuration. Notifications are disabled without a host.
type SMTP struct {
	Host             string   `env:"SMTP_HOST"`
	Port             int      `env:"SMTP_PORT" envDefault:"587"`
	Username         string   `env:"SMTP_USERNAME"`
	Password         string   `env:"SMTP_PASSWORD"`
	FromEmail        string   `env:"SMTP_FROM_EMAIL"`
	InstructorEmails []string `env:"INSTRUCTOR_EMAILS" envSeparator:","`
}

// Chat configures the OpenAI-compatible chat completion endpoint.
type Chat struct {
	BaseURL string        `env:"CHAT_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	APIKey  string        `env:"CHAT_API_KEY"`
	Model   string        `env:"CHAT_MODEL" envDefault:"llama-3.1-70b-versatile"`
	Timeout time.Duration `env:"CHAT_TIMEOUT" envDefault:"30s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// DSN returns the driver name and data source for the configured backend.
func (d Database) DSN() (string, string, error) {
	switch d.Driver {
	case "sqlite":
		return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", d.SQLitePath), nil
	case "postgres":
		p := d.Postgres
		if p.User == "" || p.Database == "" {
			return "", "", fmt.Errorf("PG_USER and PG_DATABASE are required when DB_DRIVER=postgres")
		}
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, _, err := cfg.Database.DSN(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Test.PointsPerCorrect < 1 {
		return nil, fmt.Errorf("parse config: POINTS_PER_CORRECT must be positive")
	}
	return cfg, nil
}

// ParseInto fills a single config section, for tools that do not need the
// full App (e.g. the migrator has no JWT secret).
func ParseInto(section any) error {
	if err := env.Parse(section); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
