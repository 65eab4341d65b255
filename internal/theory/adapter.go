package theory

import (
	"context"
	"math"

	"github.com/llp-detector/hnlsens/internal/pipeline"
)

// CouplingVector is the 3-vector (U_e, U_mu, U_tau) of coupling
// magnitudes, matching spec.md §4.4's interface signature.
type CouplingVector struct {
	UE, UMu, UTau float64
}

// MagnitudeSquared is |U_ref|^2 = U_e^2 + U_mu^2 + U_tau^2, the quantity
// the scaling laws are defined relative to.
func (c CouplingVector) MagnitudeSquared() float64 {
	return c.UE*c.UE + c.UMu*c.UMu + c.UTau*c.UTau
}

// AnchorResult is the theory calculator's output at one reference
// coupling: proper decay length, per-parent inclusive BR(parent -> lepton
// N), and BR(tau -> N X) for fromTau weighting (spec.md §3).
type AnchorResult struct {
	Ctau0RefM    float64
	BRPerParent  map[int]float64 // keyed by absolute parent PDG
	BRTauToN     float64
}

// Adapter hides the opaque theory calculator. Implementations must be
// safe to call from a single goroutine at a time; use SerializedAdapter to
// enforce that for implementations that aren't internally synchronized.
type Adapter interface {
	Anchor(ctx context.Context, massGeV float64, uRef CouplingVector) (AnchorResult, error)
}

// ctau0Floor/ctau0Ceiling bound the scaled lifetime to a representable
// range (spec.md §7: "scaling degeneracy... clamp to a representable
// floor/ceiling with diagnostic").
const (
	ctau0FloorM   = 1e-12
	ctau0CeilingM = 1e12
)

// ScaleCtau0 applies spec.md §4.4's inverse-proportionality scaling law:
// ctau0(|U|^2) = ctau0_ref * |U_ref|^2 / |U|^2.
func ScaleCtau0(ctau0RefM, uRefSq, uSq float64) (float64, error) {
	if uSq <= 0 {
		return 0, pipeline.Wrap(pipeline.KindDegenerate, "theory.ScaleCtau0", nil)
	}
	v := ctau0RefM * uRefSq / uSq
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pipeline.Wrap(pipeline.KindDegenerate, "theory.ScaleCtau0", nil)
	}
	if v < ctau0FloorM {
		v = ctau0FloorM
	}
	if v > ctau0CeilingM {
		v = ctau0CeilingM
	}
	return v, nil
}

// ScaleBR applies spec.md §4.4's direct-proportionality scaling law:
// BR(|U|^2) = BR_ref * |U|^2 / |U_ref|^2.
func ScaleBR(brRef, uRefSq, uSq float64) float64 {
	if uRefSq <= 0 {
		return 0
	}
	return brRef * uSq / uRefSq
}
