package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aluiziolira/go-scrape-booklist/analysis"
	"github.com/aluiziolira/go-scrape-booklist/chart"
	"github.com/aluiziolira/go-scrape-booklist/config"
	"github.com/aluiziolira/go-scrape-booklist/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAnalyzeCmd() *cobra.Command {
	defaults := config.DefaultAnalysisConfig()

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize the interchange file into a chart and a console report",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("bind flags: %w", err)
			}
			cfg, err := config.LoadAnalysis(v, configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			closer := setupLogger(cfg.Verbose, cfg.LogFile)
			defer closer.Close()

			out := cmd.OutOrStdout()
			if err := runAnalyze(cfg, out); err != nil {
				slog.Error("analysis failed", slog.Any("error", err))
				report.WriteError(out, err)
				return errReported
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", defaults.InputFile, "interchange file written by collect")
	flags.String("chart", defaults.ChartFile, "PNG chart output path")
	flags.Float64("chart-width", defaults.ChartWidth, "chart width in inches")
	flags.Float64("chart-height", defaults.ChartHeight, "chart height in inches")
	flags.Int("chart-dpi", defaults.ChartDPI, "chart resolution")
	flags.Int("bins", defaults.Bins, "rating histogram bins")
	flags.Int("top-n", defaults.TopN, "books per chart ranking")
	flags.Int("report-top-n", defaults.ReportTopN, "books per report ranking")
	return cmd
}

func runAnalyze(cfg *config.AnalysisConfig, out io.Writer) error {
	f, err := os.Open(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	records, err := analysis.Load(f)
	f.Close()
	if err != nil {
		return err
	}
	slog.Info("loaded records", slog.String("input", cfg.InputFile), slog.Int("rows", len(records)))

	result, err := analysis.Analyze(records, analysis.Options{
		TopN:       cfg.TopN,
		ReportTopN: cfg.ReportTopN,
	})
	if err != nil {
		return err
	}

	if err := chart.RenderFile(cfg.ChartFile, result.Records, result, chart.Options{
		Width:  cfg.ChartWidth,
		Height: cfg.ChartHeight,
		DPI:    cfg.ChartDPI,
		Bins:   cfg.Bins,
	}); err != nil {
		return err
	}
	slog.Info("chart written", slog.String("path", cfg.ChartFile))

	return report.Write(out, result)
}
