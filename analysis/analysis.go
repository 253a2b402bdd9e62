// Package analysis computes the summary statistics printed and charted by the
// analyzer. Every function is pure over the record slice it is given.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"

	"github.com/aluiziolira/go-scrape-booklist/interchange"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyTable is returned when there is nothing to analyze.
var ErrEmptyTable = errors.New("no records to analyze")

// Distribution shapes, chosen by the sign of the skewness.
const (
	PositivelySkewed = "positively skewed"
	NegativelySkewed = "negatively skewed"
	NotSkewed        = "not skewed"
)

// Metric selects the column a ranking is ordered by.
type Metric int

const (
	ByRating Metric = iota
	ByRatingCount
)

func (m Metric) String() string {
	switch m {
	case ByRating:
		return "Avg Rating"
	case ByRatingCount:
		return "Rating Count"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Value returns r's value for the metric.
func (m Metric) Value(r models.Record) float64 {
	switch m {
	case ByRatingCount:
		return float64(r.RatingCount)
	default:
		return r.AvgRating
	}
}

// Distribution summarizes the non-zero average ratings.
type Distribution struct {
	Count    int
	Mean     float64
	StdDev   float64
	Skewness float64
	P05      float64
	P95      float64
	Shape    string
}

// PopularityStats relates rating count to score over rows where both are set.
type PopularityStats struct {
	Count          int
	Correlation    float64
	MinRatingCount int
	MaxRatingCount int
	MinScore       float64
	MaxScore       float64
}

// Options sizes the rankings.
type Options struct {
	TopN       int // rows per chart ranking
	ReportTopN int // rows per report ranking
}

// DefaultOptions matches the chart and report layout.
func DefaultOptions() Options {
	return Options{TopN: 10, ReportTopN: 3}
}

// Report is the full result of one analysis pass.
type Report struct {
	Loaded     int
	Duplicates int
	Records    []models.Record

	Rating     Distribution
	Popularity PopularityStats

	TopRated  []models.Record
	MostRated []models.Record

	ReportTopRated  []models.Record
	ReportMostRated []models.Record
}

// Load reads an interchange file.
func Load(r io.Reader) ([]models.Record, error) {
	records, err := interchange.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return records, nil
}

// Analyze deduplicates records and computes every statistic in Report.
func Analyze(records []models.Record, opts Options) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	if opts.TopN <= 0 || opts.ReportTopN <= 0 {
		return nil, fmt.Errorf("ranking sizes must be positive, got %d and %d", opts.TopN, opts.ReportTopN)
	}

	unique := Dedupe(records)
	report := &Report{
		Loaded:     len(records),
		Duplicates: len(records) - len(unique),
		Records:    unique,
		Rating:     RatingDistribution(unique),
		Popularity: Popularity(unique),
		TopRated:   TopN(unique, opts.TopN, ByRating),
		MostRated:  TopN(unique, opts.TopN, ByRatingCount),
	}
	report.ReportTopRated = distinctRanked(TopN(unique, opts.ReportTopN, ByRating), ByRating)
	report.ReportMostRated = distinctRanked(TopN(unique, opts.ReportTopN, ByRatingCount), ByRatingCount)

	slog.Debug("analysis complete",
		slog.Int("loaded", report.Loaded),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("rated", report.Rating.Count),
		slog.Int("popularity_rows", report.Popularity.Count),
	)
	return report, nil
}

// Dedupe keeps the first record for each (Name, Author), in input order.
func Dedupe(records []models.Record) []models.Record {
	seen := make(map[models.RecordKey]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RatingDistribution describes the average ratings above zero. With no such
// rating every statistic is NaN.
func RatingDistribution(records []models.Record) Distribution {
	var ratings []float64
	for _, r := range records {
		if r.AvgRating > 0 {
			ratings = append(ratings, r.AvgRating)
		}
	}

	d := Distribution{Count: len(ratings)}
	if len(ratings) == 0 {
		nan := math.NaN()
		d.Mean, d.StdDev, d.Skewness, d.P05, d.P95 = nan, nan, nan, nan, nan
		d.Shape = NotSkewed
		return d
	}

	d.Mean = stat.Mean(ratings, nil)
	d.StdDev = stat.StdDev(ratings, nil)
	d.Skewness = Skewness(ratings)
	d.P05 = Quantile(ratings, 0.05)
	d.P95 = Quantile(ratings, 0.95)
	d.Shape = Shape(d.Skewness)
	return d
}

// Skewness is the population (biased) skewness m3 / m2^1.5.
func Skewness(x []float64) float64 {
	m2 := stat.Moment(2, x, nil)
	m3 := stat.Moment(3, x, nil)
	return m3 / math.Pow(m2, 1.5)
}

// Shape names the distribution by the sign of skew. NaN is not skewed.
func Shape(skew float64) string {
	switch {
	case skew > 0:
		return PositivelySkewed
	case skew < 0:
		return NegativelySkewed
	default:
		return NotSkewed
	}
}

// Quantile interpolates linearly between the closest ranks at (n-1)p.
// x does not need to be sorted.
func Quantile(x []float64, p float64) float64 {
	if len(x) == 0 || p < 0 || p > 1 {
		return math.NaN()
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Popularity correlates rating count with score over rows where both are
// above zero.
func Popularity(records []models.Record) PopularityStats {
	var counts, scores []float64
	ps := PopularityStats{}
	for _, r := range records {
		if r.RatingCount <= 0 || r.Score <= 0 {
			continue
		}
		if ps.Count == 0 || r.RatingCount < ps.MinRatingCount {
			ps.MinRatingCount = r.RatingCount
		}
		if ps.Count == 0 || r.RatingCount > ps.MaxRatingCount {
			ps.MaxRatingCount = r.RatingCount
		}
		if ps.Count == 0 || r.Score < ps.MinScore {
			ps.MinScore = r.Score
		}
		if ps.Count == 0 || r.Score > ps.MaxScore {
			ps.MaxScore = r.Score
		}
		counts = append(counts, float64(r.RatingCount))
		scores = append(scores, r.Score)
		ps.Count++
	}

	if ps.Count < 2 {
		ps.Correlation = math.NaN()
		return ps
	}
	ps.Correlation = stat.Correlation(counts, scores, nil)
	return ps
}

// TopN returns up to n records with the largest metric value above zero,
// largest first. Ties keep input order.
func TopN(records []models.Record, n int, metric Metric) []models.Record {
	var ranked []models.Record
	for _, r := range records {
		if metric.Value(r) > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric.Value(ranked[i]) > metric.Value(ranked[j])
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

type rankedKey struct {
	models.RecordKey
	value float64
}

// distinctRanked drops rows repeating (Name, Author, metric value).
func distinctRanked(records []models.Record, metric Metric) []models.Record {
	seen := make(map[rankedKey]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		key := rankedKey{RecordKey: r.Key(), value: metric.Value(r)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
