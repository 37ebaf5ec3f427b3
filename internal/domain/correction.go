package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownStyle is returned for a correction style other than loop or functional.
var ErrUnknownStyle = errors.New("unknown correction style")

// CorrectionFactor is the fixed gauge correction, 1.2^√2.
var CorrectionFactor = math.Pow(1.2, math.Sqrt2)

// CorrectionStyle selects how a correction is computed. Both styles produce
// identical output.
type CorrectionStyle string

const (
	StyleLoop       CorrectionStyle = "loop"
	StyleFunctional CorrectionStyle = "functional"
)

// ParseCorrectionStyle maps a user-supplied name to a CorrectionStyle.
// An empty string selects StyleLoop.
func ParseCorrectionStyle(s string) (CorrectionStyle, error) {
	switch CorrectionStyle(s) {
	case "", StyleLoop:
		return StyleLoop, nil
	case StyleFunctional:
		return StyleFunctional, nil
	default:
		return "", fmt.Errorf("%w %q (want %q or %q)", ErrUnknownStyle, s, StyleLoop, StyleFunctional)
	}
}

// ApplyCorrection scales a single rainfall value by CorrectionFactor.
func ApplyCorrection(v float64) float64 {
	return v * CorrectionFactor
}

// CorrectLoop corrects every value of the table with an explicit loop,
// ordered by ascending day.
func CorrectLoop(t YearTable) []float64 {
	days := t.Days()
	corrected := make([]float64, 0, len(days))
	for _, d := range days {
		corrected = append(corrected, ApplyCorrection(t[d]))
	}
	return corrected
}

// CorrectFunctional corrects every value of the table by mapping
// ApplyCorrection over the ordered values.
func CorrectFunctional(t YearTable) []float64 {
	return mapSlice(t.Values(), ApplyCorrection)
}

// Corrected looks up a year and corrects its values using the given style.
func (d Dataset) Corrected(year int, style CorrectionStyle) ([]float64, error) {
	t, err := d.Year(year)
	if err != nil {
		return nil, err
	}
	switch style {
	case StyleFunctional:
		return CorrectFunctional(t), nil
	case StyleLoop, "":
		return CorrectLoop(t), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStyle, style)
	}
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
