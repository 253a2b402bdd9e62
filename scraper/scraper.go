package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-booklist/config"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/aluiziolira/go-scrape-booklist/pipeline"
	"github.com/gocolly/colly/v2"
)

// Scraper walks the list pages one at a time and feeds records to a pipeline.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	// OnPage, when set, is called after every page that yielded items.
	OnPage func(page, items int)

	// Collector callbacks run synchronously on the Run goroutine, so the
	// fields below need no locking.
	pipeline        *pipeline.Pipeline
	pageItems       int
	lastStatus      int
	rejected        bool
	requestCount    int
	pageCount       int
	errorCount      int
	skippedCount    int
	skippedByReason map[string]int
	errorsByType    map[string]int

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	// Status codes are judged in OnResponse; colly would otherwise fail
	// every response from 203 up, including valid 2xx ones.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:             cfg,
		collector:       collector,
		Metrics:         NewMetrics(),
		skippedByReason: make(map[string]int),
		errorsByType:    make(map[string]int),
	}, nil
}

// PageURL maps a page number to the URL to fetch. Page 1 is the bare base
// URL; later pages append ?page=N.
func PageURL(baseURL string, page int) string {
	if page <= 1 {
		return baseURL
	}
	return fmt.Sprintf("%s?page=%d", baseURL, page)
}

// Run fetches pages starting at 1 until a page yields no items. Any transport
// failure ends the run with an error; the partial result is still returned.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.pipeline = p
	s.configureHandlers()

	start := time.Now()
	truncated := false
	var runErr error

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		items, err := s.fetchPage(page)
		if err != nil {
			runErr = err
			break
		}
		if items == 0 {
			slog.Info("no items on page, collection finished", slog.Int("page", page))
			break
		}

		s.pageCount++
		s.Metrics.PageDone(page)
		slog.Info("completed page", slog.Int("page", page), slog.Int("items", items))
		if s.OnPage != nil {
			s.OnPage(page, items)
		}

		if page >= s.cfg.MaxPages {
			truncated = true
			slog.Warn("max pages reached, stopping before the list ended",
				slog.Int("max_pages", s.cfg.MaxPages),
			)
			break
		}
		if err := s.wait(ctx); err != nil {
			runErr = err
			break
		}
	}

	result := &models.ScraperResult{
		StartTime:       start,
		EndTime:         time.Now(),
		SkippedCount:    s.skippedCount,
		SkippedByReason: copyCounts(s.skippedByReason),
		ErrorCount:      s.errorCount,
		ErrorsByType:    copyCounts(s.errorsByType),
		RequestCount:    s.requestCount,
		PageCount:       s.pageCount,
		Truncated:       truncated,
	}
	if metrics := p.GetMetrics(); metrics != nil {
		if processed, ok := metrics["processed_records"].(int64); ok {
			result.TotalCount = int(processed)
		}
	}
	return result, runErr
}

func (s *Scraper) fetchPage(page int) (int, error) {
	pageURL := PageURL(s.cfg.BaseURL, page)
	s.pageItems = 0
	s.lastStatus = 0
	s.rejected = false

	err := s.collector.Visit(pageURL)
	if err == nil && s.rejected {
		err = fmt.Errorf("unexpected status %d", s.lastStatus)
	}
	if err != nil {
		classified := classifyError(err, s.lastStatus)
		category := errorTypeLabel(classified)
		s.errorCount++
		s.errorsByType[category]++
		s.Metrics.IncError(category)
		slog.Error("request error",
			slog.String("url", pageURL),
			slog.Int("status", s.lastStatus),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return 0, fmt.Errorf("fetch page %d (%s): %w", page, pageURL, classified)
	}
	return s.pageItems, nil
}

func (s *Scraper) wait(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			s.requestCount++
			s.Metrics.IncRequest("started")
			slog.Debug("fetching page", slog.String("url", r.URL.String()))
		})

		s.collector.OnResponse(func(r *colly.Response) {
			s.lastStatus = r.StatusCode
			if !successStatus(r.StatusCode) {
				s.rejected = true
				return
			}
			s.Metrics.IncRequest("completed")
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			if r != nil {
				s.lastStatus = r.StatusCode
			}
		})

		s.collector.OnHTML(itemSelector, s.handleItem)
	})
}

func (s *Scraper) handleItem(e *colly.HTMLElement) {
	if s.rejected {
		return
	}
	s.pageItems++

	record, title, err := extractRecord(e.DOM)
	if err != nil {
		reason := skipReason(err)
		s.skippedCount++
		s.skippedByReason[reason]++
		s.Metrics.IncSkipped(reason)
		if title == "" {
			title = "unknown"
		}
		slog.Warn("skipping item",
			slog.String("title", title),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
		return
	}

	if err := s.pipeline.Process(record); err != nil {
		slog.Error("pipeline process error", slog.Any("error", err))
		return
	}
	s.Metrics.IncItems()
	slog.Debug("processed", slog.String("name", record.Name))
}

func successStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
