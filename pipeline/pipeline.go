package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aluiziolira/go-scrape-booklist/config"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/aluiziolira/go-scrape-booklist/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrPipelineClosed is returned when Process is called after Close.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrNoRecords is returned by Close when nothing was collected.
	ErrNoRecords = errors.New("pipeline: no records collected")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.Record) error
	Close() error
	Validate() error
}

// Pipeline validates records, keeps them in production order, and hands the
// whole set to the writer once on Close.
//
// Duplicate (Name, Author) pairs are counted but kept; removing them is the
// analyzer's job.
type Pipeline struct {
	writer  OutputWriter
	records []*models.Record
	seen    *lru.Cache[models.RecordKey, struct{}]

	metrics metrics

	mu     sync.Mutex
	closed bool
}

// NewPipeline builds a pipeline writing to writer on Close.
func NewPipeline(writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	size := cfg.DedupeMaxSize
	if size <= 0 {
		size = config.DefaultConfig().DedupeMaxSize
	}
	seen, err := lru.New[models.RecordKey, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create duplicate tracker: %w", err)
	}
	return &Pipeline{
		writer:  writer,
		seen:    seen,
		metrics: newMetrics(),
	}, nil
}

// Process appends records to the in-memory set.
func (p *Pipeline) Process(records ...*models.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if err := parser.ValidateRecord(record); err != nil {
			p.metrics.addValidation("invalid_record")
			slog.Debug("dropping invalid record", slog.Any("error", err))
			continue
		}
		if _, dup, _ := p.seen.PeekOrAdd(record.Key(), struct{}{}); dup {
			p.metrics.addValidation("duplicate_record")
		}
		p.records = append(p.records, record)
		p.metrics.incrementProcessed()
	}
	return nil
}

// Len returns the number of accepted records.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// Records returns a copy of the accepted records in production order.
func (p *Pipeline) Records() []*models.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.Record, len(p.records))
	copy(out, p.records)
	return out
}

// Close writes every accepted record in a single pass and closes the writer.
// With no records nothing is written and ErrNoRecords is returned.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	p.closed = true
	records := p.records
	p.mu.Unlock()

	if len(records) == 0 {
		return ErrNoRecords
	}

	if err := p.writer.Write(records); err != nil {
		p.writer.Close()
		return fmt.Errorf("write records: %w", err)
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if err := p.writer.Validate(); err != nil {
		return fmt.Errorf("validate output: %w", err)
	}
	return nil
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"validation_errors": copyValidation,
	}
}
