// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestDefaults verifies that the default configuration is valid and matches
// the documented command-line defaults.
func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Port != 3001 || cfg.Iterations != 5 || cfg.Path != "/" || cfg.Headed {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TargetURL() != "http://localhost:3001/" {
		t.Fatalf("unexpected target url %s", cfg.TargetURL())
	}
	if cfg.StepTimeoutDuration() != 60*time.Second {
		t.Fatalf("expected 60s step timeout, got %v", cfg.StepTimeoutDuration())
	}
	if cfg.LogFilePath() != "modebench.log" {
		t.Fatalf("expected default log path, got %s", cfg.LogFilePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 0 }, "port 0 out of range"},
		{"path", func(c *Config) { c.Path = "pricing" }, "must start with /"},
		{"iterations", func(c *Config) { c.Iterations = 0 }, "iterations must be at least 1"},
		{"warmup", func(c *Config) { c.Warmup = -1 }, "warmup must not be negative"},
		{"frameCap", func(c *Config) { c.FrameCap = 1 }, "frameCap must be at least 2"},
		{"jank", func(c *Config) { c.JankThreshold = 0 }, "jankThreshold must be positive"},
		{"resultsDir", func(c *Config) { c.ResultsDir = " " }, "resultsDir must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTargetURL(t *testing.T) {
	cfg := Defaults()
	cfg.Host = "127.0.0.1"
	cfg.Port = 8080
	cfg.Path = "/dashboard/regions"
	if got := cfg.TargetURL(); got != "http://127.0.0.1:8080/dashboard/regions" {
		t.Fatalf("unexpected target url %s", got)
	}
	if got := cfg.BaseURL(); got != "http://127.0.0.1:8080/" {
		t.Fatalf("unexpected base url %s", got)
	}

	cfg.Host = ""
	if got := cfg.HostName(); got != "localhost" {
		t.Fatalf("expected localhost fallback, got %s", got)
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := Defaults()
	cfg.Iterations = 10
	ShowConfig(&buf, "config/config.json", &cfg)

	out := buf.String()
	for _, want := range []string{"Config file: config/config.json", "Iterations:      10 (+ 1 warmup)", "http://localhost:3001/"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowConfig(&buf, "", nil)
	if !strings.Contains(buf.String(), "No config file loaded") {
		t.Fatalf("expected defaults notice, got %s", buf.String())
	}
}
