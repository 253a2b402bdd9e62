// Package report prints the analyzer's console summary.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-booklist/analysis"
	"github.com/aluiziolira/go-scrape-booklist/interchange"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/aluiziolira/go-scrape-booklist/parser"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Completed is the final line of a successful report.
const Completed = "Analysis completed successfully!"

const notAvailable = "n/a"

// Write renders r as text to w in a single write.
func Write(w io.Writer, r *analysis.Report) error {
	if r == nil {
		return fmt.Errorf("write report: nil report")
	}

	var b strings.Builder
	b.WriteString("\n=== Detailed EDA Analysis ===\n")
	fmt.Fprintf(&b, "\nRecords analyzed: %s (%s duplicates removed)\n",
		humanize.Comma(int64(len(r.Records))), humanize.Comma(int64(r.Duplicates)))

	d := r.Rating
	b.WriteString("\n1. Rating Distribution:\n")
	fmt.Fprintf(&b, "- Distribution type: %s\n", d.Shape)
	fmt.Fprintf(&b, "- Skewness: %s\n", rounded(d.Skewness, 3))
	fmt.Fprintf(&b, "- Most books rate between: %s stars\n", span(d.P05, d.P95, 2))
	fmt.Fprintf(&b, "- Mean rating: %s\n", rounded(d.Mean, 2))
	fmt.Fprintf(&b, "- Standard deviation: %s\n", rounded(d.StdDev, 2))

	p := r.Popularity
	b.WriteString("\n2. Popularity Metrics:\n")
	fmt.Fprintf(&b, "- Correlation between rating count and score: %s\n", rounded(p.Correlation, 3))
	if p.Count == 0 {
		fmt.Fprintf(&b, "- Rating count range: %s\n", notAvailable)
		fmt.Fprintf(&b, "- Score range: %s\n", notAvailable)
	} else {
		fmt.Fprintf(&b, "- Rating count range: %s - %s\n",
			humanize.Comma(int64(p.MinRatingCount)), humanize.Comma(int64(p.MaxRatingCount)))
		fmt.Fprintf(&b, "- Score range: %s\n", span(p.MinScore, p.MaxScore, 1))
	}

	b.WriteString("\n3. Top Books by Rating:\n")
	b.WriteString(rankingTable(r.ReportTopRated, "Rating", func(rec models.Record) string {
		return strconv.FormatFloat(rec.AvgRating, 'f', 2, 64)
	}))

	b.WriteString("\n4. Top Books by Popularity (Rating Count):\n")
	b.WriteString(rankingTable(r.ReportMostRated, "Ratings", func(rec models.Record) string {
		return humanize.Comma(int64(rec.RatingCount))
	}))

	b.WriteString("\n" + Completed + "\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteError prints a failed analysis with a remediation hint.
func WriteError(w io.Writer, err error) {
	fmt.Fprintf(w, "An error occurred during analysis: %v\n", err)
	fmt.Fprintln(w, "Please ensure the input file exists and was produced by the collect command:")
	fmt.Fprintln(w, "booklist collect --output best_movie_adaptations.csv")
}

// WritePreview prints the first n collected records as a table.
func WritePreview(w io.Writer, records []*models.Record, n int) error {
	if len(records) == 0 || n <= 0 {
		return nil
	}
	if len(records) > n {
		records = records[:n]
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	header := make(table.Row, len(interchange.Header))
	for i, name := range interchange.Header {
		header[i] = name
	}
	t.AppendHeader(header)
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Name,
			rec.Author,
			strconv.FormatFloat(rec.AvgRating, 'f', 2, 64),
			humanize.Comma(int64(rec.RatingCount)),
			interchange.FormatFloat(rec.Score),
			humanize.Comma(int64(rec.VoteCount)),
		})
	}

	if _, err := io.WriteString(w, "\nFirst few entries:\n"+t.Render()+"\n"); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}

func rankingTable(records []models.Record, valueHeader string, value func(models.Record) string) string {
	if len(records) == 0 {
		return "(none)\n"
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Author", valueHeader})
	for i, rec := range records {
		t.AppendRow(table.Row{i + 1, rec.Name, rec.Author, value(rec)})
	}
	return t.Render() + "\n"
}

func rounded(x float64, places int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return notAvailable
	}
	return strconv.FormatFloat(parser.Round(x, places), 'f', -1, 64)
}

func span(lo, hi float64, places int) string {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return notAvailable
	}
	return fmt.Sprintf("%.*f - %.*f", places, lo, places, hi)
}
