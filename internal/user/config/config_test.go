package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_LocalDefaults(t *testing.T) {
	// Очищаем env
	os.Clearenv()
	os.Setenv("APP_ENV", "local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != EnvLocal {
		t.Errorf("Expected AppEnv=local, got %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8082" {
		t.Errorf("Expected HTTPAddr=:8082, got %s", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:19092" {
		t.Errorf("Expected KafkaBrokers=[localhost:19092], got %v", cfg.KafkaBrokers)
	}
	if cfg.SizeDeletedTopic != "catalog.size.deleted" {
		t.Errorf("Expected SizeDeletedTopic=catalog.size.deleted, got %s", cfg.SizeDeletedTopic)
	}
	if cfg.DLQTopic != "user.cascade.dlq" {
		t.Errorf("Expected DLQTopic=user.cascade.dlq, got %s", cfg.DLQTopic)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected RetryMaxAttempts=3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBackoffBase != time.Second {
		t.Errorf("Expected RetryBackoffBase=1s, got %s", cfg.RetryBackoffBase)
	}
	if cfg.PaymentEnabled {
		t.Error("Expected PaymentEnabled=false by default")
	}
}

func TestLoad_DockerDefaults(t *testing.T) {
	// Очищаем env
	os.Clearenv()
	os.Setenv("APP_ENV", "docker")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != EnvDocker {
		t.Errorf("Expected AppEnv=docker, got %s", cfg.AppEnv)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "kafka:9092" {
		t.Errorf("Expected KafkaBrokers=[kafka:9092], got %v", cfg.KafkaBrokers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "local")
	os.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	os.Setenv("USER_KAFKA_RETRY_MAX_ATTEMPTS", "5")
	os.Setenv("KAFKA_USER_DLQ_TOPIC", "custom.dlq")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.KafkaBrokers) != 2 {
		t.Errorf("Expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Errorf("Expected RetryMaxAttempts=5, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.DLQTopic != "custom.dlq" {
		t.Errorf("Expected DLQTopic=custom.dlq, got %s", cfg.DLQTopic)
	}
}

func TestLoad_PaymentEnabledRequiresAPIKey(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "local")
	os.Setenv("PAYMENT_ENABLED", "true")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error when PAYMENT_ENABLED=true without PAYMENT_API_KEY")
	}
}

func TestLoad_InvalidAppEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for invalid APP_ENV")
	}
}
