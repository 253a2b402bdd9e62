package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-booklist/interchange"
	"github.com/aluiziolira/go-scrape-booklist/models"
)

// CSVWriter writes records in the interchange format. The file is created on
// the first Write, so a run that collects nothing leaves no file behind.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *interchange.Writer
	mu       sync.Mutex
}

// NewCSVWriter prepares a writer for filename and its parent directory.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &CSVWriter{filename: filename}, nil
}

// Write writes the header on first use, then one row per record.
func (cw *CSVWriter) Write(records []*models.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.file == nil {
		f, err := os.Create(cw.filename)
		if err != nil {
			return fmt.Errorf("create csv file: %w", err)
		}
		cw.file = f
		cw.writer = interchange.NewWriter(f)
		if err := cw.writer.WriteHeader(); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	for _, record := range records {
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	return nil
}

// Close closes the file handle, if one was opened.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.file == nil {
		return nil
	}
	err := cw.file.Close()
	cw.file = nil
	return err
}

// Validate ensures the file exists and has content.
func (cw *CSVWriter) Validate() error {
	return validateFile(cw.filename, "csv")
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	filename string
	file     *os.File
	writer   *bufio.Writer
	encoder  *json.Encoder
	mu       sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []*models.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file == nil {
		f, err := os.Create(jw.filename)
		if err != nil {
			return fmt.Errorf("create json file: %w", err)
		}
		jw.file = f
		jw.writer = bufio.NewWriter(f)
		jw.encoder = json.NewEncoder(jw.writer)
	}

	for _, record := range records {
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file == nil {
		return nil
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	err := jw.file.Close()
	jw.file = nil
	return err
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateFile(jw.filename, "json")
}

func validateFile(filename, kind string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
