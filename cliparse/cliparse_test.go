// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "file:test.db")
	os.Setenv("SESSION_SECRET", "test-secret")
	os.Setenv("RATELIMIT_SALT", "test-salt")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %q", cfg.DatabaseType)
	}
	if cfg.CaptchaMode != CaptchaMonitor {
		t.Errorf("expected monitor default, got %q", cfg.CaptchaMode)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-session-secret", "s1", "-ratelimit-salt", "s2"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingSecret(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{"-d", "file:test.db"})
	if err == nil {
		t.Error("expected error when SESSION_SECRET is missing")
	}
}

func TestParseFlags_InvalidCaptchaMode(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{
		"-d", "file:test.db",
		"-session-secret", "s1",
		"-ratelimit-salt", "s2",
		"-captcha-mode", "block",
	})
	if err == nil {
		t.Error("expected error for unknown captcha mode")
	}
}
