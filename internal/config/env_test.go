package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "TX_LOCK_TIMEOUT", "TX_RETRY_ATTEMPTS", "KAFKA_BROKERS", "SWEEP_SCHEDULE", "TRACE_EXPORTER"} {
		t.Setenv(k, "")
	}
	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("app addr default: %q", env.AppAddr)
	}
	if env.TxLockTimeout != 3*time.Second || env.TxRetryAttempts != 3 || env.TxRetryBackoff != 25*time.Millisecond {
		t.Fatalf("tx defaults: %+v", env)
	}
	if len(env.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", env.KafkaBrokers)
	}
	if env.SweepSchedule != "@every 15m" {
		t.Fatalf("sweep default: %q", env.SweepSchedule)
	}
	if env.TraceExporter != "none" {
		t.Fatalf("trace exporter default: %q", env.TraceExporter)
	}
}

func TestLoadEnvParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("TX_TIMEOUT", "2s")
	t.Setenv("TX_RETRY_ATTEMPTS", "nope")

	env := LoadEnv()
	if len(env.KafkaBrokers) != 2 || env.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", env.KafkaBrokers)
	}
	if env.TxTimeout != 2*time.Second {
		t.Fatalf("tx timeout: %s", env.TxTimeout)
	}
	if env.TxRetryAttempts != 3 {
		t.Fatalf("invalid number should fall back to default, got %d", env.TxRetryAttempts)
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	env := Env{
		GinMode:         "release",
		JWTTTL:          time.Hour,
		TxLockTimeout:   100 * time.Millisecond,
		TxTimeout:       time.Second,
		TxRetryAttempts: 0,
		DBHost:          "db:3306",
		DBName:          "tourbook",
		BrevoAPIKey:     "key",
		TraceExporter:   "jaeger",
	}
	err := env.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"JWT_SECRET", "TX_LOCK_TIMEOUT", "TX_RETRY_ATTEMPTS", "EMAIL_SENDER", "TRACE_EXPORTER"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}

func TestValidateAcceptsDebugWithoutSecret(t *testing.T) {
	env := Env{
		GinMode:         "debug",
		JWTTTL:          time.Hour,
		TxLockTimeout:   3 * time.Second,
		TxTimeout:       5 * time.Second,
		TxRetryAttempts: 3,
		DBHost:          "127.0.0.1:3306",
		DBName:          "tourbook",
	}
	if err := env.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDSNCarriesConnectionSettings(t *testing.T) {
	dsn := Env{DBUser: "app", DBPassword: "pw", DBHost: "db:3306", DBName: "tourbook"}.DSN()
	for _, want := range []string{"app:pw@tcp(db:3306)/tourbook", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}
