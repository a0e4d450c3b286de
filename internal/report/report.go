// Package report renders demo time series as PNG plots or HTML charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
)

// Format selects the output renderer.
type Format string

const (
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ErrInvalidSeries is returned for series that cannot be drawn.
var ErrInvalidSeries = errors.New("invalid series")

// Series is one named line.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Chart is a titled set of series sharing axes.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

// Validate checks that every series is non-empty with matching lengths and
// finite values.
func (c Chart) Validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("%w: chart %q has no series", ErrInvalidSeries, c.Title)
	}
	for _, s := range c.Series {
		if len(s.X) == 0 {
			return fmt.Errorf("%w: %q is empty", ErrInvalidSeries, s.Name)
		}
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("%w: %q has %d x values and %d y values", ErrInvalidSeries, s.Name, len(s.X), len(s.Y))
		}
		for i := range s.X {
			if !finite(s.X[i]) || !finite(s.Y[i]) {
				return fmt.Errorf("%w: %q has a non-finite point at index %d", ErrInvalidSeries, s.Name, i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseFormat accepts "png" or "html", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown plot format %q (want png or html)", s)
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Write renders c to path. PNG output goes straight to disk; HTML is
// written through w when w is non-nil, otherwise to path.
func Write(path string, format Format, c Chart, w io.Writer) error {
	switch format {
	case FormatPNG:
		return WritePNG(path, c)
	case FormatHTML:
		if w != nil {
			return WriteHTML(w, c)
		}
		return writeHTMLFile(path, c)
	}
	return fmt.Errorf("unknown plot format %q", format)
}
