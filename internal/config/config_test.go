package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("SESSION_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"SessionTTL", cfg.Auth.SessionTTL, 30 * time.Minute},
		{"LockoutDuration", cfg.Auth.LockoutDuration, 15 * time.Minute},
		{"RememberTokenTTL", cfg.Auth.RememberTokenTTL, 7 * 24 * time.Hour},
		{"CleanupInterval", cfg.Auth.CleanupInterval, 1 * time.Hour},
	}
	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Auth.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts: got %d, want 5", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Booking.EnforceCapacity {
		t.Error("EnforceCapacity: got true, want false by default")
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port: got %s, want 8080", cfg.Server.Port)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	os.Setenv("LOCKOUT_DURATION", "5m")
	os.Setenv("BOOKING_ENFORCE_CAPACITY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxLoginAttempts != 3 {
		t.Errorf("MaxLoginAttempts: got %d, want 3", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Auth.LockoutDuration != 5*time.Minute {
		t.Errorf("LockoutDuration: got %v, want 5m", cfg.Auth.LockoutDuration)
	}
	if !cfg.Booking.EnforceCapacity {
		t.Error("EnforceCapacity: got false, want true")
	}
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing SESSION_SECRET")
	}
}

func TestLoad_RejectsShortSecretInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_SECRET", "short-but-over-16-chars")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for short production SESSION_SECRET")
	}
}

func TestLoad_RequiresFromAddressWhenEmailEnabled(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("EMAIL_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error when EMAIL_ENABLED without EMAIL_FROM_ADDRESS")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "tourbook",
		Password: "pw",
		Name:     "tourbook",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=tourbook password=pw dbname=tourbook sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
