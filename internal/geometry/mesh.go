package geometry

import (
	"hash/fnv"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/llp-detector/hnlsens/internal/config"
)

// Mesh is the single "intersect ray with detector volume" primitive
// spec.md §6 requires every detector representation to expose, whatever
// its underlying surface format. origin and dir are in metres, dir need
// not be normalised.
type Mesh interface {
	// Intersect returns the entry/exit ray parameters of the detector
	// volume along origin + t*dir. hit is false if no valid (t_entry,
	// t_exit) pair exists with t_entry > 0.
	Intersect(origin, dir mat.Vector) (tEntry, tExit float64, hit bool)
	// Hash identifies this mesh's parameters for geometry-cache keying;
	// changing any geometric parameter must change the hash.
	Hash() string
}

// CurvedTube is the analytic detector surface from spec.md §6: a tube
// running horizontally above the interaction point, offset in height by
// ZOffsetM, with circular cross-section of EffectiveRadiusM and finite
// horizontal extent. It stands in for the triangulated mesh the real
// pipeline would load from disk; any future triangulated importer can
// implement the same Mesh interface without touching callers.
type CurvedTube struct {
	det config.Detector
}

// NewCurvedTube builds the analytic tube detector from the named geometry
// parameters in cfg (never from magic numbers inlined in this package).
func NewCurvedTube(det config.Detector) (*CurvedTube, error) {
	if det.EffectiveRadiusM() <= 0 || det.HorizontalExtentM <= 0 {
		return nil, ErrNoMesh
	}
	return &CurvedTube{det: det}, nil
}

// Intersect solves the ray/finite-cylinder intersection as the
// intersection of an infinite circular cylinder (axis parallel to the
// detector's horizontal extent, i.e. the x axis, offset to height
// ZOffsetM) with the horizontal slab 0 <= x <= HorizontalExtentM — the
// standard slab-clipped-quadric technique used for bounded-cylinder ray
// tracing.
func (c *CurvedTube) Intersect(origin, dir mat.Vector) (tEntry, tExit float64, hit bool) {
	ox, oy, oz := origin.AtVec(0), origin.AtVec(1), origin.AtVec(2)
	dx, dy, dz := dir.AtVec(0), dir.AtVec(1), dir.AtVec(2)

	r := c.det.EffectiveRadiusM()

	// Cylinder axis is parallel to x; work in the (y,z) cross-section
	// centred on the tube's axis, which sits at height ZOffsetM above IP.
	oyp := oy
	ozp := oz - c.det.ZOffsetM

	a := dy*dy + dz*dz
	b := 2 * (oyp*dy + ozp*dz)
	cc := oyp*oyp + ozp*ozp - r*r

	var cylT0, cylT1 float64
	var cylHit bool
	if math.Abs(a) < 1e-15 {
		// Ray parallel to the tube axis: never crosses the cylindrical
		// wall (spec.md §4.2: "ray parallel to / missing the mesh").
		cylHit = false
	} else {
		disc := b*b - 4*a*cc
		if disc < 0 {
			cylHit = false
		} else {
			sq := math.Sqrt(disc)
			t0 := (-b - sq) / (2 * a)
			t1 := (-b + sq) / (2 * a)
			if t0 > t1 {
				t0, t1 = t1, t0
			}
			cylT0, cylT1, cylHit = t0, t1, true
		}
	}
	if !cylHit {
		return 0, 0, false
	}

	// Slab test: 0 <= x(t) <= HorizontalExtentM.
	slabT0, slabT1, slabHit := slabIntersect(ox, dx, 0, c.det.HorizontalExtentM)
	if !slabHit {
		return 0, 0, false
	}

	tEntry = math.Max(cylT0, slabT0)
	tExit = math.Min(cylT1, slabT1)
	if tExit <= tEntry || tEntry <= 0 {
		return 0, 0, false
	}
	return tEntry, tExit, true
}

// slabIntersect finds the t-range for which ox+t*dx lies in [lo, hi].
func slabIntersect(ox, dx, lo, hi float64) (t0, t1 float64, ok bool) {
	if math.Abs(dx) < 1e-15 {
		if ox < lo || ox > hi {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	a := (lo - ox) / dx
	b := (hi - ox) / dx
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

// Hash fingerprints the tube's named parameters so the geometry cache
// invalidates automatically whenever the safety factor, z offset, or
// horizontal extent changes.
func (c *CurvedTube) Hash() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "curved_tube|r=%.6f|z=%.6f|ext=%.6f",
		c.det.EffectiveRadiusM(), c.det.ZOffsetM, c.det.HorizontalExtentM)
	return fmt.Sprintf("%x", h.Sum64())
}
