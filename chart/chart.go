// Package chart renders the analyzer's five panel overview image.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/aluiziolira/go-scrape-booklist/analysis"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options sizes the rendered image.
type Options struct {
	Width  float64 // inches
	Height float64 // inches
	DPI    int
	Bins   int
}

// DefaultOptions returns a 20x25 inch canvas at 100 dpi with 30 histogram bins.
func DefaultOptions() Options {
	return Options{Width: 20, Height: 25, DPI: 100, Bins: 30}
}

const maxLabelRunes = 40

var (
	skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	coral   = color.NRGBA{R: 255, G: 127, B: 80, A: 153}
	green   = color.NRGBA{R: 0, G: 128, B: 0, A: 153}
	purple  = color.RGBA{R: 128, G: 0, B: 128, A: 255}
	orange  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

// RenderFile writes the chart to path as a PNG.
func RenderFile(path string, records []models.Record, report *analysis.Report, opts Options) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Render(f, records, report, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}
	return nil
}

// Render draws five panels on a 3x2 grid and encodes the result as PNG:
// the rating histogram, rating count against score, vote count against
// rating, and the two top-N rankings held by report.
func Render(w io.Writer, records []models.Record, report *analysis.Report, opts Options) error {
	if report == nil {
		return fmt.Errorf("render chart: nil report")
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.DPI <= 0 || opts.Bins <= 0 {
		return fmt.Errorf("render chart: invalid options %+v", opts)
	}

	panels := make([]*plot.Plot, 0, 5)
	builders := []func() (*plot.Plot, error){
		func() (*plot.Plot, error) { return ratingHistogram(records, opts.Bins) },
		func() (*plot.Plot, error) { return countVsScore(records) },
		func() (*plot.Plot, error) { return votesVsRating(records) },
		func() (*plot.Plot, error) {
			return ranking(report.TopRated, analysis.ByRating,
				fmt.Sprintf("Top %d Highest Rated Books", len(report.TopRated)), "Average Rating", purple)
		},
		func() (*plot.Plot, error) {
			return ranking(report.MostRated, analysis.ByRatingCount,
				fmt.Sprintf("Top %d Most Rated Books", len(report.MostRated)), "Number of Ratings", orange)
		},
	}
	for _, build := range builders {
		p, err := build()
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		panels = append(panels, p)
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      3,
		Cols:      2,
		PadX:      vg.Inch / 2,
		PadY:      vg.Inch / 2,
		PadTop:    vg.Inch / 4,
		PadBottom: vg.Inch / 4,
		PadLeft:   vg.Inch / 4,
		PadRight:  vg.Inch / 4,
	}
	for i, p := range panels {
		p.Draw(tiles.At(dc, i%tiles.Cols, i/tiles.Cols))
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = vg.Points(20)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.Add(plotter.NewGrid())
	return p
}

func ratingHistogram(records []models.Record, bins int) (*plot.Plot, error) {
	p := newPlot("Distribution of Average Ratings", "Average Rating", "Count")
	if len(records) == 0 {
		return p, nil
	}
	values := make(plotter.Values, len(records))
	for i, r := range records {
		values[i] = r.AvgRating
	}
	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, fmt.Errorf("rating histogram: %w", err)
	}
	h.FillColor = skyBlue
	p.Add(h)
	return p, nil
}

func countVsScore(records []models.Record) (*plot.Plot, error) {
	p := newPlot("Rating Count vs Score", "Rating Count (log scale)", "Score")
	var xys plotter.XYs
	for _, r := range records {
		if r.RatingCount > 0 {
			xys = append(xys, plotter.XY{X: float64(r.RatingCount), Y: r.Score})
		}
	}
	if len(xys) == 0 {
		return p, nil
	}
	// Log scale panics on an empty axis, so it is only set once points exist.
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	s, err := scatter(xys, coral)
	if err != nil {
		return nil, fmt.Errorf("rating count scatter: %w", err)
	}
	p.Add(s)
	return p, nil
}

func votesVsRating(records []models.Record) (*plot.Plot, error) {
	p := newPlot("Vote Count vs Average Rating", "Vote Count", "Average Rating")
	var xys plotter.XYs
	for _, r := range records {
		if r.VoteCount > 0 {
			xys = append(xys, plotter.XY{X: float64(r.VoteCount), Y: r.AvgRating})
		}
	}
	if len(xys) == 0 {
		return p, nil
	}
	s, err := scatter(xys, green)
	if err != nil {
		return nil, fmt.Errorf("vote count scatter: %w", err)
	}
	p.Add(s)
	return p, nil
}

func scatter(xys plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(3)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// ranking draws horizontal bars with the first record on top.
func ranking(records []models.Record, metric analysis.Metric, title, xLabel string, c color.Color) (*plot.Plot, error) {
	p := newPlot(title, xLabel, "")
	if len(records) == 0 {
		return p, nil
	}

	ordered := slices.Clone(records)
	slices.Reverse(ordered)

	values := make(plotter.Values, len(ordered))
	names := make([]string, len(ordered))
	for i, r := range ordered {
		values[i] = metric.Value(r)
		names[i] = truncate(r.Name, maxLabelRunes)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("%s ranking: %w", metric, err)
	}
	bars.Horizontal = true
	bars.Color = c
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
