package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aluiziolira/go-scrape-booklist/logging"
	"github.com/spf13/cobra"
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("reported")

var (
	configFile string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "booklist",
	Short: "Collect a ranked book list and analyze it",
	Long: `booklist walks the pages of a ranked book list, writes every entry to an
escaped CSV file, and analyzes that file into a chart and a console report.

  booklist collect --output best_movie_adaptations.csv
  booklist analyze --input best_movie_adaptations.csv --chart eda_analysis.png`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this rotated file")

	rootCmd.AddCommand(newCollectCmd(), newAnalyzeCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// setupLogger installs the process-wide logger for a command run.
func setupLogger(verbose bool, logFile string) io.Closer {
	logger, closer := logging.New(os.Stdout, logging.Options{
		Verbose: verbose,
		LogFile: logFile,
	})
	slog.SetDefault(logger)
	return closer
}
