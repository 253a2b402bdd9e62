package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-scrape-booklist/analysis"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func smallOptions() Options {
	return Options{Width: 4, Height: 5, DPI: 40, Bins: 5}
}

func sampleRecords() []models.Record {
	return []models.Record{
		{Name: "Gone Girl", Author: "Gillian Flynn", AvgRating: 4.12, RatingCount: 3012456, Score: 9876, VoteCount: 102},
		{Name: "Dune", Author: "Frank Herbert", AvgRating: 4.25, RatingCount: 1200000, Score: 5400, VoteCount: 60},
		{Name: "Emma", Author: "Jane Austen", AvgRating: 4.01, RatingCount: 800000, Score: 3000, VoteCount: 31},
		{Name: "Unrated", Author: "Nobody", AvgRating: 0, RatingCount: 0, Score: 0, VoteCount: 0},
	}
}

func TestRender(t *testing.T) {
	records := sampleRecords()
	report, err := analysis.Analyze(records, analysis.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report.Records, report, smallOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature), "output is not a PNG")
}

func TestRenderEmptyPanels(t *testing.T) {
	records := []models.Record{{Name: "Unrated", Author: "Nobody"}}
	report, err := analysis.Analyze(records, analysis.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, report.TopRated)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, report, smallOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestRenderRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, nil, nil, smallOptions()))
	assert.Error(t, Render(&buf, nil, &analysis.Report{}, Options{Width: 1, Height: 1, DPI: 0, Bins: 1}))
}

func TestRenderFile(t *testing.T) {
	records := sampleRecords()
	report, err := analysis.Analyze(records, analysis.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "charts", "eda_analysis.png")
	require.NoError(t, RenderFile(path, report.Records, report, smallOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
