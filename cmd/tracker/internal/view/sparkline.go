package view

import (
	"strconv"
	"strings"
)

type Rand interface {
	Float64() float64
}

// Sparkline is placeholder chart data, values in [0, 100).
type Sparkline []float64

// MockChart draws n random values. There is no price history behind it.
func MockChart(rnd Rand, n int) Sparkline {
	s := make(Sparkline, n)
	for i := range s {
		s[i] = rnd.Float64() * 100
	}
	return s
}

// Points projects the values onto a w×h box as an SVG polyline attribute.
// Higher values sit closer to the top.
func (s Sparkline) Points(w, h float64) string {
	if len(s) == 0 {
		return ""
	}
	step := 0.0
	if len(s) > 1 {
		step = w / float64(len(s)-1)
	}

	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		x := float64(i) * step
		y := h - v/100*h
		b.WriteString(strconv.FormatFloat(x, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
	}
	return b.String()
}
