package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("OTP_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.Port)
	}
	if cfg.Production() {
		t.Fatalf("expected non-production by default")
	}
	if cfg.TokenTTLHours != 24 || cfg.OTPTTLMinutes != 5 {
		t.Fatalf("unexpected TTL defaults: %d %d", cfg.TokenTTLHours, cfg.OTPTTLMinutes)
	}
}

func TestLoadIgnoresGarbageTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "banana")
	t.Setenv("OTP_TTL_MINUTES", "-3")

	cfg := Load()
	if cfg.TokenTTLHours != 24 {
		t.Fatalf("expected fallback token TTL, got %d", cfg.TokenTTLHours)
	}
	if cfg.OTPTTLMinutes != 5 {
		t.Fatalf("expected fallback OTP TTL, got %d", cfg.OTPTTLMinutes)
	}
}

func TestProductionFlag(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()
	if !cfg.Production() {
		t.Fatalf("expected production flag for ENVIRONMENT=Production")
	}
}
