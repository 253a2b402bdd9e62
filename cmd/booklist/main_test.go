package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-booklist/config"
	"github.com/aluiziolira/go-scrape-booklist/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPage = `<html><body><table>
<tr itemtype="http://schema.org/Book"><td>
<a class="bookTitle"><span>"Gone Girl"</span></a>
<span itemprop="author"><a><span>Gillian Flynn</span></a></span>
<span class="greyText"><span class="minirating">4.12 avg rating — 3,012,456 ratings</span></span>
<span>score: 9,876</span> and <a>102 people voted</a>
</td></tr>
<tr itemtype="http://schema.org/Book"><td>
<a class="bookTitle">Dune, Deluxe Edition</a>
<span itemprop="author"><a>Frank Herbert</a></span>
<span class="greyText">4.25 avg rating — 1,200 ratings</span>
</td></tr>
<tr itemtype="http://schema.org/Book"><td>no title</td></tr>
</table></body></html>`

func newListServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, listPage)
			return
		}
		fmt.Fprint(w, "<html><body><table></table></body></html>")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollectThenAnalyze(t *testing.T) {
	srv := newListServer(t)
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/list/show/1"
	cfg.Delay = 0
	cfg.OutputFile = filepath.Join(dir, "books.csv")
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	require.NoError(t, runCollect(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "Successfully scraped 2 books")
	assert.Contains(t, out.String(), "Skipped items: 1 (missing_title=1)")
	assert.Contains(t, out.String(), "First few entries:")
	assert.Contains(t, out.String(), "3,012,456")

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t,
		"Name,Author,Avg Rating,Rating Count,Score,Vote Count\r\n"+
			"Gone Girl,Gillian Flynn,4.12,3012456,9876.0,102\r\n"+
			"Dune\\, Deluxe Edition,Frank Herbert,4.25,1200,0.0,0\r\n",
		string(data))

	acfg := config.DefaultAnalysisConfig()
	acfg.InputFile = cfg.OutputFile
	acfg.ChartFile = filepath.Join(dir, "eda.png")
	acfg.ChartWidth, acfg.ChartHeight, acfg.ChartDPI = 4, 5, 30

	out.Reset()
	require.NoError(t, runAnalyze(acfg, &out))
	assert.Contains(t, out.String(), "Dune, Deluxe Edition")
	assert.True(t, strings.HasSuffix(out.String(), report.Completed+"\n"))

	info, err := os.Stat(acfg.ChartFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestCollectFailsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/list/show/1"
	cfg.Delay = 0
	cfg.OutputFile = filepath.Join(t.TempDir(), "books.csv")

	var out bytes.Buffer
	err := runCollect(context.Background(), cfg, &out)
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, out.String(), "Error fetching the webpage")

	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr), "no file is written after a fatal error")
}

func TestAnalyzeMissingInput(t *testing.T) {
	acfg := config.DefaultAnalysisConfig()
	acfg.InputFile = filepath.Join(t.TempDir(), "missing.csv")

	err := runAnalyze(acfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollectCancelled(t *testing.T) {
	srv := newListServer(t)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/list/show/1"
	cfg.OutputFile = filepath.Join(t.TempDir(), "books.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runCollect(ctx, cfg, &out)
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, out.String(), "Collection cancelled")
	assert.NotContains(t, out.String(), "Error fetching the webpage")

	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr))
}
