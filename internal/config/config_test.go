package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ALERT_WINDOW", "")
	t.Setenv("WRITE_BATCH_SIZE", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", cfg.DBDriver)
	}
	if cfg.AlertWindow != 3*time.Second {
		t.Errorf("Expected 3s alert window, got %s", cfg.AlertWindow)
	}
	if cfg.WriteBatchSize != MaxWriteBatchSize {
		t.Errorf("Expected batch size %d, got %d", MaxWriteBatchSize, cfg.WriteBatchSize)
	}
}

func TestLoad_CollectsInvalidValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "abc")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("ALERT_WINDOW", "-1s")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for invalid values")
	}

	for _, key := range []string{"HTTP_PORT", "DB_DRIVER", "ALERT_WINDOW"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected error to mention %s, got %v", key, err)
		}
	}
}

func TestLoad_BatchSizeIsClamped(t *testing.T) {
	t.Setenv("WRITE_BATCH_SIZE", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.WriteBatchSize != MaxWriteBatchSize {
		t.Errorf("Expected clamp to %d, got %d", MaxWriteBatchSize, cfg.WriteBatchSize)
	}
}

func TestLoad_AdminHashNeedsSecret(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("Expected JWT_SECRET error, got %v", err)
	}
}
