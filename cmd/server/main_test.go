package main

import (
	"testing"

	"oshudkini/backend/internal/config"
)

func TestValidateSecurityConfigRejectsShortProductionSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{Environment: "production", AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected short production secret to be rejected")
	}
}

func TestValidateSecurityConfigAllowsDevDefaults(t *testing.T) {
	err := validateSecurityConfig(config.Config{Environment: "development"})
	if err != nil {
		t.Fatalf("expected dev config to pass, got %v", err)
	}
}

func TestValidateSecurityConfigAcceptsStrongProductionSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{Environment: "production", AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
