package internal

import (
	"testing"
	"time"

	"github.com/mjott/hackshelf/internal/replicate"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Catalog.FlushDelay() != 2*time.Second {
		t.Errorf("flush delay = %v", cfg.Catalog.FlushDelay())
	}
	if !cfg.Library.MultiType.Enabled || cfg.Library.MultiType.Mode != replicate.ModeCopyAll {
		t.Errorf("multi_type = %+v", cfg.Library.MultiType)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should default to disabled")
	}
}

func TestHTTPConfig_Validate(t *testing.T) {
	c := HTTPConfig{Port: 0}
	if err := c.Validate(); err == nil {
		t.Error("port 0 should fail")
	}
	c.Port = 70000
	if err := c.Validate(); err == nil {
		t.Error("port 70000 should fail")
	}
	c.Port = 8080
	if err := c.Validate(); err != nil {
		t.Errorf("port 8080: %v", err)
	}
	if c.Address() != ":8080" {
		t.Errorf("Address = %q", c.Address())
	}
}

func TestCatalogConfig_Validate(t *testing.T) {
	c := CatalogConfig{}
	if err := c.Validate(); err == nil {
		t.Error("empty path should fail")
	}
	c = CatalogConfig{Path: "./hackshelf.json", FlushDelaySeconds: -1}
	if err := c.Validate(); err == nil {
		t.Error("negative delay should fail")
	}
	c.FlushDelaySeconds = 0
	if err := c.Validate(); err != nil {
		t.Errorf("zero delay: %v", err)
	}
}

func TestMultiTypeConfig_EmptyModeNormalizes(t *testing.T) {
	c := MultiTypeConfig{Enabled: true}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Mode != replicate.ModePrimaryOnly {
		t.Errorf("mode = %q, want %q", c.Mode, replicate.ModePrimaryOnly)
	}

	c = MultiTypeConfig{Mode: "mirror_everything"}
	if err := c.Validate(); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	c := AuthConfig{Mode: AuthModeDisabled}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if c.AuthEnabled() {
		t.Error("disabled mode reports enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsToDisabled(t *testing.T) {
	c := AuthConfig{}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if c.Mode != AuthModeDisabled {
		t.Errorf("mode = %q", c.Mode)
	}
}

func TestAuthConfig_TokenModeRequiresToken(t *testing.T) {
	c := AuthConfig{Mode: AuthModeToken}
	if err := c.Validate(); err == nil {
		t.Error("token mode without token should fail")
	}
	c.Token = "secret"
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !c.AuthEnabled() {
		t.Error("token mode reports disabled")
	}
}

func TestAuthConfig_UnknownMode(t *testing.T) {
	c := AuthConfig{Mode: "basic"}
	if err := c.Validate(); err == nil {
		t.Error("unknown mode should fail")
	}
}
