package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RealtimeModel != defaultRealtimeModel {
		t.Errorf("RealtimeModel = %q", cfg.RealtimeModel)
	}
	if cfg.Voice != "ash" {
		t.Errorf("Voice = %q, want ash", cfg.Voice)
	}
	if cfg.UpstreamTimeout != 15*time.Second {
		t.Errorf("UpstreamTimeout = %s, want 15s", cfg.UpstreamTimeout)
	}
	if cfg.MemoryContextLimit != 10 {
		t.Errorf("MemoryContextLimit = %d, want 10", cfg.MemoryContextLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REALTIME_VOICE", "coral")
	t.Setenv("REALTIME_TURN_THRESHOLD", "0.5")
	t.Setenv("REALTIME_UPSTREAM_TIMEOUT", "3s")
	t.Setenv("REALTIME_TURN_PREFIX_MS", "not-a-number")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Voice != "coral" {
		t.Errorf("Voice = %q, want coral", cfg.Voice)
	}
	if cfg.TurnThreshold != 0.5 {
		t.Errorf("TurnThreshold = %f, want 0.5", cfg.TurnThreshold)
	}
	if cfg.UpstreamTimeout != 3*time.Second {
		t.Errorf("UpstreamTimeout = %s, want 3s", cfg.UpstreamTimeout)
	}
	// Unparseable values fall back to the default.
	if cfg.TurnPrefixMs != defaultTurnPrefixMs {
		t.Errorf("TurnPrefixMs = %d, want default %d", cfg.TurnPrefixMs, defaultTurnPrefixMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"threshold too high", func(c *Config) { c.TurnThreshold = 1.5 }, true},
		{"negative prefix", func(c *Config) { c.TurnPrefixMs = -1 }, true},
		{"negative silence", func(c *Config) { c.TurnSilenceMs = -1 }, true},
		{"zero memory limit", func(c *Config) { c.MemoryContextLimit = 0 }, true},
		{"zero upstream timeout", func(c *Config) { c.UpstreamTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
