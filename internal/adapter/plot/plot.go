// Package plot renders rainfall series to PNG images.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

const (
	width  = 8 * vg.Inch
	height = 4 * vg.Inch
)

// YearPath is where the daily series for year is rendered inside dir.
func YearPath(dir string, year int) string {
	return filepath.Join(dir, fmt.Sprintf("rainfall_%d.png", year))
}

// AnnualPath is where the annual mean series for r is rendered inside dir.
func AnnualPath(dir string, r domain.YearRange) string {
	return filepath.Join(dir, fmt.Sprintf("rainfall_mean_%d_%d.png", r.Start, r.End))
}

// colours maps matplotlib-style single-letter codes and their names.
var colours = map[string]color.RGBA{
	"r": {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"g": {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"b": {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"c": {R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
	"m": {R: 0xbf, G: 0x00, B: 0xbf, A: 0xff},
	"y": {R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	"k": {A: 0xff},
}

var colourNames = map[string]string{
	"red": "r", "green": "g", "blue": "b", "cyan": "c", "magenta": "m", "yellow": "y", "black": "k",
}

// ParseColour resolves a colour code such as "r" or "red". Empty selects blue.
func ParseColour(s string) (color.Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		key = "b"
	}
	if code, ok := colourNames[key]; ok {
		key = code
	}
	c, ok := colours[key]
	if !ok {
		return nil, fmt.Errorf("unknown colour %q", s)
	}
	return c, nil
}

// YearSeries renders one year's daily rainfall as a line, days ascending.
func YearSeries(t domain.YearTable, year int, colour, path string) error {
	if len(t) == 0 {
		return fmt.Errorf("plot year %d: %w", year, domain.ErrEmptyYear)
	}
	c, err := ParseColour(colour)
	if err != nil {
		return fmt.Errorf("plot year %d: %w", year, err)
	}

	days := t.Days()
	pts := make(plotter.XYs, len(days))
	for i, d := range days {
		pts[i].X = float64(d)
		pts[i].Y = t[d]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Daily rainfall measurement in %d", year)
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "Rainfall (mm/day)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot year %d: %w", year, err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)

	return save(p, path)
}

// AnnualMeanSeries renders the mean annual rainfall as a line with point markers.
func AnnualMeanSeries(means []domain.AnnualMean, path string) error {
	if len(means) == 0 {
		return fmt.Errorf("plot annual means: no years to plot")
	}

	pts := make(plotter.XYs, len(means))
	for i, m := range means {
		pts[i].X = float64(m.Year)
		pts[i].Y = m.Mean
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mean Annual Rainfall measurements, %d - %d", means[0].Year, means[len(means)-1].Year)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Mean Annual Rainfall (mm/day)"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("plot annual means: %w", err)
	}
	blue := colours["b"]
	line.LineStyle.Color = blue
	points.GlyphStyle.Color = blue
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Radius = vg.Points(3)
	p.Add(line, points)

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
