package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type CacheProvider string

const (
	CacheProviderRedis  CacheProvider = "redis"
	CacheProviderMemory CacheProvider = "memory"
)

type CacheConfig struct {
	Provider      CacheProvider `env:"CACHE_PROVIDER" env-default:"memory"`
	RedisHost     string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     uint16        `env:"REDIS_PORT" env-default:"6379"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	RedisUsername string        `env:"REDIS_USERNAME"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisTLS      bool          `env:"REDIS_TLS" env-default:"false"`
}

// RedisAddr returns host:port for the redis client.
func (c CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DefaultJwtSecret is the development fallback for APP_SECRET. Load refuses it in production.
const DefaultJwtSecret = "very-secure-jwt-secret"

type JwtConfig struct {
	Secret      string `env:"APP_SECRET" env-default:"very-secure-jwt-secret"`
	TokenExpiry string `env:"TOKEN_EXPIRY" env-default:"P1D"`
}

type OtpConfig struct {
	Issuer                string `env:"OTP_ISSUER" env-default:"simple-account"`
	EmailTimeoutInMinutes int    `env:"OTP_TIMEOUT_IN_MINUTES" env-default:"5"`
}

// EmailTimeout is the lifetime of an emailed passcode.
func (o OtpConfig) EmailTimeout() time.Duration {
	return time.Duration(o.EmailTimeoutInMinutes) * time.Minute
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	// RecaptchaSecretKey enables reCAPTCHA on register, login and forgot-password.
	RecaptchaSecretKey string `env:"GOOGLE_RECAPTCHA_SECRET_KEY"`
}

type S3Config struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	Bucket          string `env:"AWS_BUCKET_NAME"`
	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `env:"AWS_S3_ENDPOINT"`
}

// Enabled reports whether avatar uploads can go to S3.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type Config struct {
	Env                         string `env:"APP_ENV" env-default:"development"`
	AppName                     string `env:"APP_NAME" env-default:"Simple Account"`
	AppURL                      string `env:"APP_URL" env-default:"http://localhost:5173"`
	CdnURL                      string `env:"CDN_URL" env-default:""`
	MinAttemptsToBlockUserLogin int    `env:"MIN_ATTEMPTS_TO_BLOCK_USER_LOGIN" env-default:"3"`
	DatabaseConfig              DatabaseConfig
	CacheConfig                 CacheConfig
	JwtConfig                   JwtConfig
	OtpConfig                   OtpConfig
	EmailConfig                 EmailConfig
	GoogleConfig                GoogleConfig
	S3Config                    S3Config
}

// Environment returns the parsed APP_ENV.
func (c Config) Environment() Environment {
	return ParseEnvironment(c.Env)
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	loadEnvFile()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from env: %w", err)
	}
	if cfg.MinAttemptsToBlockUserLogin < 1 {
		return Config{}, fmt.Errorf("MIN_ATTEMPTS_TO_BLOCK_USER_LOGIN must be >= 1, got %d", cfg.MinAttemptsToBlockUserLogin)
	}
	if cfg.Environment() == Production && cfg.JwtConfig.Secret == DefaultJwtSecret {
		return Config{}, fmt.Errorf("APP_SECRET must be set in production")
	}
	if _, err := ParseDuration(cfg.JwtConfig.TokenExpiry); err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY %q: %w", cfg.JwtConfig.TokenExpiry, err)
	}
	return cfg, nil
}

// loadEnvFile loads .env from the working directory, or next to the executable.
func loadEnvFile() {
	candidates := []string{}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}

	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			slog.Error("Failed to load .env file", "error", err, "path", envFile)
			return
		}
		slog.Info("Configuration loaded from .env file", "path", envFile)
		return
	}
	slog.Debug("No .env file found")
}
