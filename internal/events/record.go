package events

import (
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/llp-detector/hnlsens/internal/pipeline"
)

// HNLPDG is the PDG code every surviving row must carry in hnl_id; rows
// with any other id must already have been filtered upstream by the
// generator tooling (spec.md §6).
const HNLPDG = 9900012

// Record is one simulated HNL — one row per particle, not per collision
// (spec.md §3). Field order and csv tags match the external CSV schema
// exactly:
//
//	event,weight,hnl_id,parent_pdg,tau_parent_id,pt,eta,phi,p,E,mass,
//	prod_x_mm,prod_y_mm,prod_z_mm,beta_gamma
type Record struct {
	EventID      int     `csv:"event"`
	Weight       float64 `csv:"weight"`
	HNLID        int     `csv:"hnl_id"`
	ParentPDG    int     `csv:"parent_pdg"`
	TauParentID  int     `csv:"tau_parent_id"`
	Pt           float64 `csv:"pt"`
	Eta          float64 `csv:"eta"`
	Phi          float64 `csv:"phi"`
	P            float64 `csv:"p"`
	E            float64 `csv:"E"`
	Mass         float64 `csv:"mass"`
	ProdXMm      float64 `csv:"prod_x_mm"`
	ProdYMm      float64 `csv:"prod_y_mm"`
	ProdZMm      float64 `csv:"prod_z_mm"`
	BetaGamma    float64 `csv:"beta_gamma"`

	// Geometry columns, populated by internal/geometry (C2). Zero-valued
	// until ComputeGeometry has run over this row.
	HitsTube      bool    `csv:"-"`
	EntryDistance float64 `csv:"-"`
	PathLength    float64 `csv:"-"`
}

// AbsParentPDG is |parent_pdg|, the physical species identity used for
// per-parent accumulation regardless of particle/antiparticle sign.
func (r Record) AbsParentPDG() int {
	if r.ParentPDG < 0 {
		return -r.ParentPDG
	}
	return r.ParentPDG
}

// IsFromTau reports whether this HNL was produced via a tau-decay cascade
// (parent_pdg == +/-15), per spec.md §3's invariants.
func (r Record) IsFromTau() bool {
	return r.AbsParentPDG() == 15
}

// finite reports whether every numeric field a downstream reduction
// touches is finite; NaN/Inf rows are the data-corruption class from
// spec.md §7 and must be dropped, not silently propagated.
func (r Record) finite() bool {
	vals := []float64{r.Weight, r.Pt, r.Eta, r.Phi, r.P, r.E, r.Mass, r.ProdXMm, r.ProdYMm, r.ProdZMm, r.BetaGamma}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// valid enforces the per-event invariants from spec.md §3 beyond simple
// finiteness: mass > 0, p >= 0, beta_gamma >= 0, and the fromTau
// grandparent constraint.
func (r Record) valid() bool {
	if !r.finite() {
		return false
	}
	if r.Mass <= 0 || r.P < 0 || r.BetaGamma < 0 {
		return false
	}
	if r.HNLID != HNLPDG {
		return false
	}
	if r.IsFromTau() {
		switch r.TauParentID {
		case 431, 511, 521, 531, 541:
		default:
			return false
		}
	} else if r.TauParentID != 0 {
		return false
	}
	return true
}

// Load reads one event CSV file, drops invalid/non-finite rows (logging
// one aggregated warning, per the data-corruption policy), and returns the
// surviving rows sorted by EventID for deterministic downstream reduction
// (spec.md §5's determinism requirement).
func Load(path string, log zerolog.Logger) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindConfiguration, "events.Load", err)
	}
	defer f.Close()

	var all []Record
	if err := gocsv.Unmarshal(f, &all); err != nil {
		return nil, pipeline.Wrap(pipeline.KindDataCorruption, "events.Load", err)
	}

	out := make([]Record, 0, len(all))
	dropped := 0
	for _, r := range all {
		if !r.valid() {
			dropped++
			continue
		}
		out = append(out, r)
	}
	if dropped > 0 {
		log.Warn().
			Str("file", path).
			Int("dropped_rows", dropped).
			Int("kept_rows", len(out)).
			Msg("dropped invalid/non-finite event rows")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}
