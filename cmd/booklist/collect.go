package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-booklist/config"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/aluiziolira/go-scrape-booklist/pipeline"
	"github.com/aluiziolira/go-scrape-booklist/report"
	"github.com/aluiziolira/go-scrape-booklist/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCollectCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch every list page and write the records to the interchange file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("bind flags: %w", err)
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			closer := setupLogger(cfg.Verbose, cfg.LogFile)
			defer closer.Close()

			return runCollect(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("base-url", defaults.BaseURL, "first page of the list")
	flags.Int("max-pages", defaults.MaxPages, "stop after this many pages even if the list continues")
	flags.Duration("delay", defaults.Delay, "pause between page fetches")
	flags.Duration("timeout", defaults.Timeout, "per-request timeout")
	flags.StringP("output", "o", defaults.OutputFile, "output file path")
	flags.String("format", defaults.OutputFormat, "output format: csv, json, or dual")
	flags.String("user-agent", defaults.UserAgent, "User-Agent header sent with every request")
	flags.Int("dedupe-max-size", defaults.DedupeMaxSize, "capacity of the duplicate tracker")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.Bool("progress", defaults.Progress, "show a page progress indicator on stderr")
	flags.Bool("respect-robots", defaults.RespectRobotsTxt, "respect robots.txt directives")
	return cmd
}

func runCollect(ctx context.Context, cfg *config.Config, out io.Writer) error {
	slog.Info("starting collection",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Duration("delay", cfg.Delay),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = newProgressBar()
		s.OnPage = func(page, items int) {
			bar.Describe(fmt.Sprintf("page %d", page))
			_ = bar.Add(items)
		}
	}

	result, err := s.Run(ctx, p)
	if bar != nil {
		_ = bar.Finish()
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "Collection cancelled; nothing was written.")
		slog.Warn("collection cancelled", slog.Int("pages", result.PageCount))
		return errReported
	}
	if err != nil {
		fmt.Fprintf(out, "Error fetching the webpage: %v\n", err)
		slog.Error("collection failed", slog.Any("error", err))
		return errReported
	}

	metrics := p.GetMetrics()
	if err := p.Close(); err != nil {
		if errors.Is(err, pipeline.ErrNoRecords) {
			fmt.Fprintln(out, "No books were successfully processed.")
			printSummary(out, result, cfg.OutputFile, metrics)
			return errReported
		}
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Fprintf(out, "\nSuccessfully scraped %d books and saved to %s\n", result.TotalCount, cfg.OutputFile)
	if err := report.WritePreview(out, p.Records(), previewRows); err != nil {
		return err
	}
	printSummary(out, result, cfg.OutputFile, metrics)
	return nil
}

const previewRows = 5

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("collecting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("books"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(out io.Writer, result *models.ScraperResult, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(out, "\n"+separator)
	fmt.Fprintln(out, "Collection complete")

	totalItems := int64(0)
	if processed, ok := metrics["processed_records"].(int64); ok {
		totalItems = processed
	}
	fmt.Fprintf(out, "  Records:       %d\n", totalItems)
	fmt.Fprintf(out, "  Skipped items: %d", result.SkippedCount)
	if len(result.SkippedByReason) > 0 {
		fmt.Fprintf(out, " (%s)", formatCounts(result.SkippedByReason))
	}
	fmt.Fprintln(out)
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok {
		fmt.Fprintf(out, "  Duplicates:    %d\n", valErrors["duplicate_record"])
		if invalid := valErrors["invalid_record"]; invalid > 0 {
			fmt.Fprintf(out, "  Invalid:       %d\n", invalid)
		}
	}
	fmt.Fprintf(out, "  Pages:         %d\n", result.PageCount)
	fmt.Fprintf(out, "  Requests:      %d\n", result.RequestCount)
	fmt.Fprintf(out, "  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(out, "  Error types:   %s\n", formatCounts(result.ErrorsByType))
	}
	if result.Truncated {
		fmt.Fprintln(out, "  Truncated:     max pages reached before the list ended")
	}
	fmt.Fprintf(out, "  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	if totalItems > 0 {
		fmt.Fprintf(out, "  Output file:   %s\n", outputFile)
	}
	fmt.Fprintln(out, separator)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
