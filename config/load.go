package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOOKLIST_MAX_PAGES.
const EnvPrefix = "BOOKLIST"

// Load resolves the collector configuration from defaults, an optional config
// file, BOOKLIST_* environment variables and any flags bound to v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, map[string]any{
		"base-url":        cfg.BaseURL,
		"max-pages":       cfg.MaxPages,
		"delay":           cfg.Delay,
		"timeout":         cfg.Timeout,
		"output":          cfg.OutputFile,
		"format":          cfg.OutputFormat,
		"user-agent":      cfg.UserAgent,
		"dedupe-max-size": cfg.DedupeMaxSize,
		"metrics-addr":    cfg.MetricsAddr,
		"progress":        cfg.Progress,
		"verbose":         cfg.Verbose,
		"log-file":        cfg.LogFile,
		"respect-robots":  cfg.RespectRobotsTxt,
	})
	if err := readFile(v, configFile); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

// LoadAnalysis resolves the analyzer configuration the same way as Load.
func LoadAnalysis(v *viper.Viper, configFile string) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	setDefaults(v, map[string]any{
		"input":        cfg.InputFile,
		"chart":        cfg.ChartFile,
		"chart-width":  cfg.ChartWidth,
		"chart-height": cfg.ChartHeight,
		"chart-dpi":    cfg.ChartDPI,
		"bins":         cfg.Bins,
		"top-n":        cfg.TopN,
		"report-top-n": cfg.ReportTopN,
		"verbose":      cfg.Verbose,
		"log-file":     cfg.LogFile,
	})
	if err := readFile(v, configFile); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, defaults map[string]any) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func readFile(v *viper.Viper, configFile string) error {
	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file %q not found", configFile)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}
