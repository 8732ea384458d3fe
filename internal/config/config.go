package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at process start and passed by reference into the
// pieces that need it. There is no ambient global access to any of these
// values.
type Config struct {
	Env  string
	Port int

	MongoURI string
	MongoDB  string

	JWTSecret    string
	TokenTTLDays int

	BcryptCost  int
	HashWorkers int

	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGO_DB", "userhub"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTLDays: getEnvInt("TOKEN_TTL_DAYS", 7),

		BcryptCost:  getEnvInt("BCRYPT_COST", 12),
		HashWorkers: getEnvInt("HASH_WORKERS", 0), // 0 = one per CPU

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

// TokenTTL is the fixed validity window of issued bearer tokens.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLDays) * 24 * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
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

func splitCSV(s string) []string {
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
