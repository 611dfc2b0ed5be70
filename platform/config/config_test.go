package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:         "postgres://localhost/crm",
		JWTAccessSecret:     "secret",
		VisitDispatchMode:   DispatchModeInline,
		VisitWebhookTimeout: 30 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTAccessSecret = "" }, wantErr: true},
		{name: "cors wildcard with credentials", mutate: func(c *Config) { c.CORSAllowAll = true; c.CORSAllowCreds = true }, wantErr: true},
		{name: "queue without redis", mutate: func(c *Config) { c.VisitDispatchMode = DispatchModeQueue }, wantErr: true},
		{name: "queue with redis", mutate: func(c *Config) { c.VisitDispatchMode = DispatchModeQueue; c.RedisURL = "redis://localhost:6379" }},
		{name: "unknown mode", mutate: func(c *Config) { c.VisitDispatchMode = "kafka" }, wantErr: true},
		{name: "webhook without token", mutate: func(c *Config) { c.VisitWebhookURL = "https://visits.example.com" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.VisitWebhookTimeout = 0 }, wantErr: true},
		{name: "negative retry", mutate: func(c *Config) { c.VisitDispatchMaxRetry = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/crm")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.example.com, http://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VisitDispatchMode != DispatchModeInline {
		t.Errorf("VisitDispatchMode = %q, want %q", cfg.VisitDispatchMode, DispatchModeInline)
	}
	if cfg.VisitWebhookTimeout != 30*time.Second {
		t.Errorf("VisitWebhookTimeout = %v, want 30s", cfg.VisitWebhookTimeout)
	}
	if cfg.PhoneDefaultRegion != "PE" {
		t.Errorf("PhoneDefaultRegion = %q, want PE", cfg.PhoneDefaultRegion)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.IsVisitDispatchEnabled() {
		t.Error("dispatch should be disabled without a webhook URL")
	}
}
