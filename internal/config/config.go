package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver string
	DBDSN    string
	DBDebug  bool

	HTTPAddr          string
	BaseURL           string
	CORSOrigins       []string
	AllowRegistration bool
	PrometheusEnabled bool

	JWTSecret string
	JWTTTL    time.Duration

	// Empty RedisURL keeps carts in process memory.
	RedisURL string
	CartTTL  time.Duration

	// Empty RabbitMQURL disables the outbox relay.
	RabbitMQURL    string
	OutboxInterval time.Duration

	GeminiAPIKey string

	// Location decides where a register's calendar day starts and ends.
	Location *time.Location
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		DBDriver:          getOr(getenv, "DB_DRIVER", "mysql"),
		DBDSN:             getenv("DB_DSN"),
		DBDebug:           getenv("DB_DEBUG") == "true",
		HTTPAddr:          getOr(getenv, "HTTP_ADDR", ":8080"),
		BaseURL:           getOr(getenv, "BASE_URL", "http://localhost:8080"),
		CORSOrigins:       splitList(getOr(getenv, "CORS_ORIGINS", "http://localhost:5173")),
		AllowRegistration: getenv("ALLOW_REGISTRATION") == "true",
		PrometheusEnabled: getenv("PROMETHEUS_ENABLED") == "true",
		JWTSecret:         getenv("JWT_SECRET"),
		RedisURL:          getenv("REDIS_URL"),
		RabbitMQURL:       getenv("RABBITMQ_URL"),
		GeminiAPIKey:      getenv("GEMINI_API_KEY"),
		Location:          time.Local,
	}

	var err error
	if cfg.JWTTTL, err = durationOr(getenv, "JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CartTTL, err = durationOr(getenv, "CART_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxInterval, err = durationOr(getenv, "OUTBOX_INTERVAL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if tz := getenv("BUSINESS_TZ"); tz != "" {
		if cfg.Location, err = time.LoadLocation(tz); err != nil {
			return Config{}, fmt.Errorf("BUSINESS_TZ: %w", err)
		}
	}

	switch cfg.DBDriver {
	case "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return Config{}, errors.New("DB_DSN not found in environment. Please configure your database")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET not found in environment")
	}
	return cfg, nil
}

func getOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
