package theory

import (
	"context"
	"math"
)

// AnalyticAdapter is a closed-form stand-in for the real theory
// calculator: BR and ctau0 follow simple power laws in mass, scaled by
// the reference coupling's magnitude. It exists so this module is
// independently testable without the external calculator; production
// deployments substitute a different Adapter behind the same interface.
type AnalyticAdapter struct {
	// BRNormAt1GeV is BR(parent -> lepton N) per unit |U_ref|^2 at 1 GeV,
	// per covered parent PDG.
	BRNormAt1GeV map[int]float64
	// Ctau0NormAt1GeV is ctau0 (metres) per unit 1/|U_ref|^2 at 1 GeV.
	Ctau0NormAt1GeV float64
	// BRTauToNNormAt1GeV is BR(tau -> N X) per unit |U_ref|^2 at 1 GeV.
	BRTauToNNormAt1GeV float64
}

// NewAnalyticAdapter returns an AnalyticAdapter seeded with representative
// values for the parents internal/xsecreg covers.
func NewAnalyticAdapter() *AnalyticAdapter {
	return &AnalyticAdapter{
		BRNormAt1GeV: map[int]float64{
			511:  1e-7,
			521:  1e-7,
			531:  8e-8,
			5122: 5e-8,
			421:  6e-8,
			411:  6e-8,
			431:  9e-8,
			4122: 4e-8,
			321:  2e-9,
			24:   1e-9,
			23:   1e-9,
		},
		Ctau0NormAt1GeV:    10.0,
		BRTauToNNormAt1GeV: 5e-7,
	}
}

// Anchor implements Adapter using simple mass power laws: BR rises as
// m^3, ctau0 falls as 1/m (heavier HNLs are shorter
// lived at fixed coupling) — illustrative, not a physics claim, since the
// real calculator is an opaque external collaborator (spec.md §4.4).
func (a *AnalyticAdapter) Anchor(_ context.Context, massGeV float64, uRef CouplingVector) (AnchorResult, error) {
	uRefSq := uRef.MagnitudeSquared()

	brPerParent := make(map[int]float64, len(a.BRNormAt1GeV))
	for pdg, norm := range a.BRNormAt1GeV {
		brPerParent[pdg] = norm * uRefSq * math.Pow(massGeV, 3)
	}

	ctau0 := a.Ctau0NormAt1GeV / uRefSq / (massGeV)
	if math.IsInf(ctau0, 0) || math.IsNaN(ctau0) {
		ctau0 = ctau0CeilingM
	}

	brTauToN := a.BRTauToNNormAt1GeV * uRefSq * math.Pow(massGeV, 3)

	return AnchorResult{
		Ctau0RefM:   ctau0,
		BRPerParent: brPerParent,
		BRTauToN:    brTauToN,
	}, nil
}
