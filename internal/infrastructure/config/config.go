package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Sweep     SweepConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	SessionSecret   string        `env:"SESSION_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,            default=720h"`
	SessionTTL      time.Duration `env:"SESSION_TTL,          default=24h"`
	RememberTTL     time.Duration `env:"SESSION_REMEMBER_TTL, default=720h"`
	CookieSecure    bool          `env:"COOKIE_SECURE,        default=false"`
	LoginRatePerMin int           `env:"LOGIN_RATE_PER_MIN,   default=10"`
}

type MongoConfig struct {
	URI          string `env:"MONGO_URI,          default=mongodb://localhost:27017"`
	Database     string `env:"MONGO_DB,           default=lugayetu"`
	Transactions bool   `env:"MONGO_TRANSACTIONS, default=true"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type StorageConfig struct {
	Backend        string `env:"STORAGE_BACKEND,  default=local"`
	UploadDir      string `env:"UPLOAD_DIR,       default=uploads"`
	LanguagesDir   string `env:"LANGUAGES_DIR,    default=languages"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=52428800"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION,   default=us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Prefix    string `env:"S3_PREFIX,   default=audio"`
}

type SweepConfig struct {
	// Schedule is a cron expression; empty disables the sweeper.
	Schedule string        `env:"SWEEP_SCHEDULE, default=@daily"`
	Grace    time.Duration `env:"SWEEP_GRACE,    default=1h"`
}

type BootstrapConfig struct {
	AdminEmail          string `env:"ADMIN_EMAIL,           default=admin@lugayetu.org"`
	AdminPassword       string `env:"ADMIN_PASSWORD"`
	DefaultLanguageCode string `env:"DEFAULT_LANGUAGE_CODE, default=rund"`
	DefaultLanguageName string `env:"DEFAULT_LANGUAGE_NAME, default=Kirundi"`
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// ValidateServe checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND %q is not one of local, s3", c.Storage.Backend))
	}
	return errors.Join(errs...)
}
