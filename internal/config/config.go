package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TokenTTL is fixed by the login contract: tokens expire two hours after
// issuance and there is no refresh mechanism.
const TokenTTL = 2 * time.Hour

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret string
	TokenTTL  time.Duration

	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	AWSBucket    string

	AllowedOrigins []string
	OTLPEndpoint   string
	MaxUploadBytes int64
}

// Load builds the config from the environment and fails fast when a required
// value is missing, instead of limping along until the first request.
func Load() (Config, error) {
	var missing []string

	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 3000),
		DBURL:          buildDBURL(),
		JWTSecret:      require("JWT_SECRET"),
		TokenTTL:       TokenTTL,
		AWSRegion:      require("AWS_REGION"),
		AWSAccessKey:   require("AWS_ACCESS_KEY"),
		AWSSecretKey:   require("AWS_SECRET_KEY"),
		AWSBucket:      require("AWS_BUCKET_NAME"),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		MaxUploadBytes: 10 << 20,
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func buildDBURL() string {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "cadastro")
	pass := getEnv("PGPASSWORD", "cadastro")
	name := getEnv("PGDATABASE", "cadastro")
	ssl := getEnv("PGSSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
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
