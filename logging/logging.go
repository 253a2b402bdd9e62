// Package logging builds the slog logger shared by both commands.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Verbose bool
	// LogFile, when set, receives a JSON copy of every record, rotated by size.
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
}

// New returns a logger writing to out and, optionally, a rotated log file.
// The returned closer releases the log file and is never nil.
func New(out *os.File, opts Options) (*slog.Logger, io.Closer) {
	level := &slog.LevelVar{}
	if opts.Verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if isTerminal(out) {
		console = slog.NewTextHandler(out, handlerOpts)
	} else {
		console = slog.NewJSONHandler(out, handlerOpts)
	}

	if opts.LogFile == "" {
		return slog.New(console), nopCloser{}
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	file := &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(file, handlerOpts))), file
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
