package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "query string in base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "https://example.test/list?page=3"
			},
			wantErr: "query string",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -1 * time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "empty user agent",
			mutate: func(cfg *Config) {
				cfg.UserAgent = ""
			},
			wantErr: "user agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if err := DefaultAnalysisConfig().Validate(); err != nil {
		t.Fatalf("default analysis config should validate, got %v", err)
	}
}

func TestAnalysisConfigValidate(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.Bins = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bins") {
		t.Fatalf("expected bins error, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOOKLIST_MAX_PAGES", "7")
	t.Setenv("BOOKLIST_DELAY", "250ms")
	t.Setenv("BOOKLIST_FORMAT", "DUAL")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPages != 7 {
		t.Fatalf("max pages = %d, want 7", cfg.MaxPages)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Fatalf("delay = %v, want 250ms", cfg.Delay)
	}
	if cfg.OutputFormat != "dual" {
		t.Fatalf("format = %q, want dual", cfg.OutputFormat)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("base url = %q, want default", cfg.BaseURL)
	}
}

func TestLoadAnalysisFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booklist.yaml")
	content := "input: data/books.csv\ntop-n: 5\nchart-dpi: 72\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadAnalysis(viper.New(), path)
	if err != nil {
		t.Fatalf("load analysis: %v", err)
	}
	if cfg.InputFile != "data/books.csv" || cfg.TopN != 5 || cfg.ChartDPI != 72 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReportTopN != 3 {
		t.Fatalf("report top n = %d, want default 3", cfg.ReportTopN)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
