package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	TxLockTimeout   time.Duration
	TxTimeout       time.Duration
	TxRetryAttempts int
	TxRetryBackoff  time.Duration

	CORSAllowedOrigins []string

	IdempotencyDBPath string
	IdempotencyTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string

	CloudinaryURL string

	SweepSchedule string

	TraceExporter string
}

// LoadEnv reads .env when present, then the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[CONFIG] .env not loaded: %v", err)
	}

	return Env{
		AppAddr: getStr("APP_ADDR", ":8080"),
		GinMode: getStr("GIN_MODE", ""),

		DBUser:     getStr("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getStr("DB_HOST", "127.0.0.1:3306"),
		DBName:     getStr("DB_NAME", "tourbook"),

		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		TxLockTimeout:   getDuration("TX_LOCK_TIMEOUT", 3*time.Second),
		TxTimeout:       getDuration("TX_TIMEOUT", 5*time.Second),
		TxRetryAttempts: getInt("TX_RETRY_ATTEMPTS", 3),
		TxRetryBackoff:  getDuration("TX_RETRY_BACKOFF", 25*time.Millisecond),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		IdempotencyDBPath: getStr("IDEMPOTENCY_DB_PATH", "data/idempotency.db"),
		IdempotencyTTL:    getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getStr("KAFKA_TOPIC", "tourbook.events"),

		BrevoAPIKey:     strings.TrimSpace(os.Getenv("BREVO_API_KEY")),
		EmailSender:     strings.TrimSpace(os.Getenv("EMAIL_SENDER")),
		EmailSenderName: getStr("EMAIL_SENDER_NAME", "Tourbook"),

		CloudinaryURL: strings.TrimSpace(os.Getenv("CLOUDINARY_URL")),

		SweepSchedule: getStr("SWEEP_SCHEDULE", "@every 15m"),

		TraceExporter: strings.ToLower(getStr("TRACE_EXPORTER", "none")),
	}
}

// Validate reports every configuration problem at once.
func (e Env) Validate() error {
	var problems []string

	if e.JWTSecret == "" && e.GinMode != "debug" {
		problems = append(problems, "JWT_SECRET is required unless GIN_MODE=debug")
	}
	if e.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if e.TxLockTimeout < time.Second {
		problems = append(problems, fmt.Sprintf("TX_LOCK_TIMEOUT must be at least 1s, got %s", e.TxLockTimeout))
	}
	if e.TxTimeout <= 0 {
		problems = append(problems, "TX_TIMEOUT must be positive")
	}
	if e.TxRetryAttempts < 1 || e.TxRetryAttempts > 10 {
		problems = append(problems, fmt.Sprintf("TX_RETRY_ATTEMPTS must be between 1 and 10, got %d", e.TxRetryAttempts))
	}
	if e.TxRetryBackoff < 0 {
		problems = append(problems, "TX_RETRY_BACKOFF must not be negative")
	}
	if e.DBHost == "" || e.DBName == "" {
		problems = append(problems, "DB_HOST and DB_NAME are required")
	}
	if e.BrevoAPIKey != "" && e.EmailSender == "" {
		problems = append(problems, "EMAIL_SENDER is required when BREVO_API_KEY is set")
	}
	if len(e.KafkaBrokers) > 0 && e.KafkaTopic == "" {
		problems = append(problems, "KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch e.TraceExporter {
	case "", "none", "stdout":
	default:
		problems = append(problems, fmt.Sprintf("TRACE_EXPORTER must be none or stdout, got %q", e.TraceExporter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[CONFIG] %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[CONFIG] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
