package geometry

import "errors"

var (
	// ErrNoMesh indicates the detector mesh could not be built from the
	// supplied configuration — fatal, matches the "mesh file missing"
	// failure mode from spec.md §4.2.
	ErrNoMesh = errors.New("geometry: detector mesh unavailable")
)

// pathLengthFloor is the numerical tolerance below which a path length is
// treated as exactly zero (spec.md §4.2 edge case).
const pathLengthFloor = 1e-9
