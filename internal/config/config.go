package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const devJWTSecret = "dev-only-secret-change-me-please-0123456789"

type Config struct {
	Env      string
	LogLevel string
	Port     int
	DBURL    string
	Storage  string // postgres|memory

	DBMaxConns int

	// token signing
	JWTSecret           string
	JWTAlgorithm        string
	JWTAccessTTLMinutes int

	BcryptCost       int
	AuthAdminBypass  bool
	MaxBodyBytes     int64
	CORSAllowOrigins []string

	// seeded admin account, skipped when username or password is empty
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	OTLPEndpoint    string
	OTLPSampleRatio float64
}

var (
	ErrMissingSecret    = errors.New("JWT_SECRET must be set outside dev")
	ErrWeakSecret       = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrUnknownAlgorithm = errors.New("JWT_ALGORITHM must be one of HS256, HS384, HS512")
	ErrUnknownStorage   = errors.New("STORAGE_DRIVER must be postgres or memory")
)

func Load() Config {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" && env == "dev" {
		secret = devJWTSecret
	}

	return Config{
		Env:                 env,
		LogLevel:            strings.ToLower(os.Getenv("LOG_LEVEL")),
		Port:                getEnvInt("PORT", 8080),
		DBURL:               buildDBURL(),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),
		Storage:             strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		JWTSecret:           secret,
		JWTAlgorithm:        strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
		JWTAccessTTLMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		BcryptCost:          getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		AuthAdminBypass:     getEnvBool("AUTH_ADMIN_BYPASS", false),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		CORSAllowOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AdminUsername:       os.Getenv("ADMIN_USERNAME"),
		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds:     getEnvInt("CACHE_TTL_SECONDS", 30),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPSampleRatio:     getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
	}
}

// Validate checks the values the auth core cannot run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}

	if c.Env == "prod" && len(c.JWTSecret) < 32 {
		return ErrWeakSecret
	}

	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAlgorithm, c.JWTAlgorithm)
	}

	if c.Storage != "" && c.Storage != "postgres" && c.Storage != "memory" {
		return fmt.Errorf("%w: got %q", ErrUnknownStorage, c.Storage)
	}

	if c.JWTAccessTTLMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "todohub")
	pass := getEnv("DB_PASSWORD", "todohub")
	name := getEnv("DB_NAME", "todohub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a storage call. parent carries the request's trace and identity; nil means Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
