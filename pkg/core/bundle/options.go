package bundle

import (
	"fmt"
	"strings"
)

// DefaultTension is the bundling strength used when none is given.
const DefaultTension = 0.85

// Spline selects how the straightened control points are smoothed.
type Spline string

const (
	// SplineCatmullRom interpolates every control point with a uniform
	// Catmull-Rom spline converted to cubic Bézier segments.
	SplineCatmullRom Spline = "catmull-rom"
	// SplineBasis approximates the control points with a uniform cubic
	// B-spline clamped to both endpoints.
	SplineBasis Spline = "basis"
)

// Splines lists the supported spline kinds.
var Splines = []Spline{SplineCatmullRom, SplineBasis}

// ParseSpline returns the spline named s. The empty string selects
// [SplineCatmullRom].
func ParseSpline(s string) (Spline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catmull-rom", "catmullrom", "cardinal":
		return SplineCatmullRom, nil
	case "basis", "bspline", "b-spline":
		return SplineBasis, nil
	}
	return "", fmt.Errorf("unknown spline %q (want catmull-rom or basis)", s)
}

// Option configures [Bundle].
type Option func(*options)

type options struct {
	tension float64
	spline  Spline
	lenient bool
	workers int
}

func defaultOptions() options {
	return options{tension: DefaultTension, spline: SplineCatmullRom, workers: 1}
}

// WithTension sets the bundling strength β in [0, 1].
func WithTension(beta float64) Option {
	return func(o *options) { o.tension = beta }
}

// WithSpline selects the smoothing spline.
func WithSpline(s Spline) Option {
	return func(o *options) {
		if s != "" {
			o.spline = s
		}
	}
}

// Lenient collects per-edge failures in [Result.Failures] instead of
// aborting on the first one.
func Lenient() Option {
	return func(o *options) { o.lenient = true }
}

// WithWorkers computes up to n edges concurrently. Values below 2 run
// sequentially.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}
