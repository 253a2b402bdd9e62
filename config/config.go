package config

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultBaseURL is the list page collected when no base URL is configured.
const DefaultBaseURL = "https://www.goodreads.com/list/show/17956.Best_Movie_Adaptations"

// Config holds collector configuration.
type Config struct {
	BaseURL          string        `mapstructure:"base-url"`
	MaxPages         int           `mapstructure:"max-pages"`
	Delay            time.Duration `mapstructure:"delay"`
	Timeout          time.Duration `mapstructure:"timeout"`
	OutputFile       string        `mapstructure:"output"`
	OutputFormat     string        `mapstructure:"format"` // csv, json, or dual
	UserAgent        string        `mapstructure:"user-agent"`
	DedupeMaxSize    int           `mapstructure:"dedupe-max-size"`
	MetricsAddr      string        `mapstructure:"metrics-addr"`
	Progress         bool          `mapstructure:"progress"`
	Verbose          bool          `mapstructure:"verbose"`
	LogFile          string        `mapstructure:"log-file"`
	RespectRobotsTxt bool          `mapstructure:"respect-robots"`
}

// DefaultConfig returns polite defaults for the list page.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		MaxPages:         1000,
		Delay:            time.Second,
		Timeout:          30 * time.Second,
		OutputFile:       "best_movie_adaptations.csv",
		OutputFormat:     "csv",
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		DedupeMaxSize:    100000,
		MetricsAddr:      "",
		Progress:         false,
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("base URL must not carry a query string, pages are addressed with ?page=N")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

// AnalysisConfig holds analyzer configuration.
type AnalysisConfig struct {
	InputFile   string  `mapstructure:"input"`
	ChartFile   string  `mapstructure:"chart"`
	ChartWidth  float64 `mapstructure:"chart-width"`  // inches
	ChartHeight float64 `mapstructure:"chart-height"` // inches
	ChartDPI    int     `mapstructure:"chart-dpi"`
	Bins        int     `mapstructure:"bins"`
	TopN        int     `mapstructure:"top-n"`
	ReportTopN  int     `mapstructure:"report-top-n"`
	Verbose     bool    `mapstructure:"verbose"`
	LogFile     string  `mapstructure:"log-file"`
}

// DefaultAnalysisConfig mirrors the collector's default output file.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		InputFile:   "best_movie_adaptations.csv",
		ChartFile:   "eda_analysis.png",
		ChartWidth:  20,
		ChartHeight: 25,
		ChartDPI:    100,
		Bins:        30,
		TopN:        10,
		ReportTopN:  3,
	}
}

// Validate ensures all analyzer values are coherent.
func (c *AnalysisConfig) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file cannot be empty")
	}
	if c.ChartFile == "" {
		return fmt.Errorf("chart file cannot be empty")
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart width and height must be positive")
	}
	if c.ChartDPI <= 0 {
		return fmt.Errorf("chart dpi must be positive")
	}
	if c.Bins <= 0 {
		return fmt.Errorf("bins must be positive")
	}
	if c.TopN <= 0 || c.ReportTopN <= 0 {
		return fmt.Errorf("top-n and report-top-n must be positive")
	}
	return nil
}
