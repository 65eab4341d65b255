package geometry

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/llp-detector/hnlsens/internal/events"
)

// ComputeGeometry ray-traces every record through mesh and returns a new
// slice with hits_tube, entry_distance, path_length, and beta_gamma
// populated (spec.md §4.2). nominalMassGeV substitutes for a row's own
// mass if that mass is non-positive — the "guard, warn, retain" edge case
// from spec.md §4.2 step 4; internal/events.Load already enforces mass>0
// upstream, so this path is defence-in-depth rather than the common case.
func ComputeGeometry(records []events.Record, mesh Mesh, nominalMassGeV float64, log zerolog.Logger) []events.Record {
	out := make([]events.Record, len(records))
	badMassRows := 0

	for i, r := range records {
		mass := r.Mass
		if mass <= 0 {
			mass = nominalMassGeV
			badMassRows++
		}
		r.BetaGamma = r.P / mass

		origin := prodVertexMetres(r)
		dir := directionVector(r)

		tEntry, tExit, hit := mesh.Intersect(origin, dir)
		if !hit {
			r.HitsTube = false
			r.EntryDistance = 0
			r.PathLength = 0
			out[i] = r
			continue
		}

		pathLength := tExit - tEntry
		if pathLength < pathLengthFloor {
			pathLength = 0
		}

		r.HitsTube = pathLength > 0
		r.EntryDistance = tEntry
		r.PathLength = pathLength
		out[i] = r
	}

	if badMassRows > 0 {
		log.Warn().
			Int("rows", badMassRows).
			Float64("nominal_mass_gev", nominalMassGeV).
			Msg("substituted nominal mass for non-positive row mass during geometry computation")
	}

	return out
}

// prodVertexMetres converts the millimetre production vertex to metres.
func prodVertexMetres(r events.Record) mat.Vector {
	return mat.NewVecDense(3, []float64{
		r.ProdXMm / 1000.0,
		r.ProdYMm / 1000.0,
		r.ProdZMm / 1000.0,
	})
}

// directionVector builds the unit direction from (pt, eta, phi) using the
// polar-angle mapping spec.md §4.2 step 1 specifies: theta = 2*atan(e^-eta).
func directionVector(r events.Record) mat.Vector {
	theta := 2 * math.Atan(math.Exp(-r.Eta))
	sinT, cosT := math.Sincos(theta)
	sinP, cosP := math.Sincos(r.Phi)
	return mat.NewVecDense(3, []float64{
		sinT * cosP,
		sinT * sinP,
		cosT,
	})
}
