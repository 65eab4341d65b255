package signal

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/llp-detector/hnlsens/internal/pipeline"
)

// GridPoint is one evaluated |U|^2 scan point.
type GridPoint struct {
	USq  float64
	NSig float64
}

// Exclusion is the dominant island the solver found: the contiguous
// |U|^2 interval where N_sig >= threshold (spec.md §4.5.2). Found is false
// when the peak yield never reaches threshold anywhere on the grid — a
// kinematic-infeasibility result, not a failure (spec.md §4.5.2, §7:
// "report 'no exclusion' without error"); PeakNSig/PeakUSq/Grid are still
// populated in that case so callers can report the peak yield reached.
type Exclusion struct {
	Found         bool
	U2Min         float64
	U2Max         float64
	PeakNSig      float64
	PeakUSq       float64
	IslandDecades float64
	Grid          []GridPoint
}

// LogSpacedGrid builds n log-spaced |U|^2 values from min to max inclusive
// (spec.md §4.5.2's default: 100 points, 10^-12 to 10^-2).
func LogSpacedGrid(min, max float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	logMin, logMax := math.Log10(min), math.Log10(max)
	step := (logMax - logMin) / float64(n-1)
	grid := make([]float64, n)
	for i := 0; i < n; i++ {
		grid[i] = math.Pow(10, logMin+step*float64(i))
	}
	return grid
}

// Solve evaluates kernel at every point of grid and finds the dominant
// contiguous island where N_sig >= threshold. Per spec.md §4.5.2's
// physics expectation, N_sig is single-peaked in log|U|^2 so in practice
// there is at most one island; if evaluation ever produces several, the
// one containing the global peak is reported as dominant.
//
// kernel is called once per grid point; the caller is responsible for
// passing logDiagnostics=true only on the first call if it wants
// missing-coverage diagnostics logged once per scan.
func Solve(ctx context.Context, grid []float64, threshold float64, kernel func(ctx context.Context, uSq float64, first bool) (Result, error), log zerolog.Logger) (Exclusion, error) {
	points := make([]GridPoint, len(grid))
	for i, uSq := range grid {
		select {
		case <-ctx.Done():
			return Exclusion{}, pipeline.Wrap(pipeline.KindTheoryFailure, "signal.Solve", ctx.Err())
		default:
		}
		res, err := kernel(ctx, uSq, i == 0)
		if err != nil {
			return Exclusion{}, err
		}
		points[i] = GridPoint{USq: uSq, NSig: res.NSig}
	}

	peakIdx := 0
	for i, p := range points {
		if p.NSig > points[peakIdx].NSig {
			peakIdx = i
		}
	}
	peak := points[peakIdx]

	if peak.NSig < threshold {
		return Exclusion{PeakNSig: peak.NSig, PeakUSq: peak.USq, Grid: points}, nil
	}

	lo, hi, ok := dominantIsland(points, threshold, peakIdx)
	if !ok {
		return Exclusion{PeakNSig: peak.NSig, PeakUSq: peak.USq, Grid: points}, nil
	}

	decades := math.Log10(points[hi].USq) - math.Log10(points[lo].USq)

	return Exclusion{
		Found:         true,
		U2Min:         points[lo].USq,
		U2Max:         points[hi].USq,
		PeakNSig:      peak.NSig,
		PeakUSq:       peak.USq,
		IslandDecades: decades,
		Grid:          points,
	}, nil
}

// dominantIsland walks outward from peakIdx (the global maximum) to find
// the contiguous run of grid points with N_sig >= threshold that contains
// it — the "dominant interval" spec.md §4.5.2 asks for, with the edge
// tie-break reporting the grid point closest to but not violating the
// threshold (i.e. the last point still >= threshold, not the first point
// that dips below it).
func dominantIsland(points []GridPoint, threshold float64, peakIdx int) (lo, hi int, ok bool) {
	if points[peakIdx].NSig < threshold {
		return 0, 0, false
	}
	lo, hi = peakIdx, peakIdx
	for lo > 0 && points[lo-1].NSig >= threshold {
		lo--
	}
	for hi < len(points)-1 && points[hi+1].NSig >= threshold {
		hi++
	}
	return lo, hi, true
}
