package signal

import (
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/llp-detector/hnlsens/internal/events"
	"github.com/llp-detector/hnlsens/internal/theory"
	"github.com/llp-detector/hnlsens/internal/xsecreg"
)

// ParentYield is one physical parent species' (or, for fromTau rows, one
// grandparent meson's) independent contribution to N_sig — the per-parent
// decomposition spec.md §4.5.1 and §8's multi-parent scenario require be
// inspectable, not just summed away.
type ParentYield struct {
	ParentPDG  int
	FromTau    bool
	EventCount int
	Epsilon    float64 // weighted geometric*decay acceptance
	NSig       float64
}

// Result is the signal kernel's output at one |U|^2 point.
type Result struct {
	NSig     float64
	ByParent []ParentYield
}

// EvalInput bundles everything the per-coupling kernel needs. It is built
// once per (mass, flavour) unit and reused unchanged across every grid
// point; the |U|^2 the solver varies is passed to Evaluate separately.
type EvalInput struct {
	LuminosityFb float64
	Direct       []events.Record
	FromTau      []events.Record
	Anchor       theory.AnchorResult
	URefSq       float64
	Registry     *xsecreg.Registry
}

// decayProbability implements spec.md §4.5.1's numerically stable form
// P_decay = exp(A) * (-expm1(B)), A = -entryDistance/lambda,
// B = -pathLength/lambda, valid for hitsTube && betaGamma > 0 rows only.
func decayProbability(hitsTube bool, betaGamma, ctau0M, entryDistanceM, pathLengthM float64) float64 {
	if !hitsTube || betaGamma <= 0 {
		return 0
	}
	lambda := betaGamma * ctau0M
	if lambda < lambdaFloorM {
		lambda = lambdaFloorM
	}
	a := -entryDistanceM / lambda
	b := -pathLengthM / lambda
	p := math.Exp(a) * (-math.Expm1(b))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// parentGroup is the accumulator for one unique (parent, fromTau-grandparent)
// channel. pDecays/weights are built in row order (rows arrive pre-sorted
// by event_id, per spec.md §5's determinism requirement) and reduced via
// gonum/stat once the group is complete.
type parentGroup struct {
	pdg      int
	fromTau  bool
	pDecays  []float64
	weights  []float64
}

func (g *parentGroup) eventCount() int { return len(g.pDecays) }

// epsilon is the weighted geometric*decay acceptance spec.md §4.5.1
// defines as eps_p = sum(weight_i * P_decay_i) / sum(weight_i) — exactly
// gonum/stat's weighted mean.
func (g *parentGroup) epsilon() float64 {
	if floats.Sum(g.weights) <= 0 {
		return 0
	}
	return stat.Mean(g.pDecays, g.weights)
}

// Evaluate computes N_sig at one |U|^2, implementing the per-parent
// accumulation spec.md §4.5.1 singles out as "the critical design
// decision": each physical parent species (and, for fromTau rows, each
// grandparent meson) is an independent production channel, never
// collapsed into a single per-event probability.
//
// logDiagnostics, when true, logs missing-coverage rows once (the caller
// passes true only for the first grid point of a scan, per spec.md
// §4.5.1's diagnostics requirement).
func Evaluate(in EvalInput, uSq float64, log zerolog.Logger, logDiagnostics bool) (Result, error) {
	ctau0, err := theory.ScaleCtau0(in.Anchor.Ctau0RefM, in.URefSq, uSq)
	if err != nil {
		return Result{}, err
	}

	direct := accumulateDirect(in.Direct, ctau0)
	fromTau := accumulateFromTau(in.FromTau, ctau0)

	groups := make([]*parentGroup, 0, len(direct)+len(fromTau))
	for _, g := range direct {
		groups = append(groups, g)
	}
	for _, g := range fromTau {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].fromTau != groups[j].fromTau {
			return !groups[i].fromTau
		}
		return groups[i].pdg < groups[j].pdg
	})

	var (
		total            float64
		byParent         []ParentYield
		missingBR        []int
		missingSigma     []int
		missingBRRows    int
		missingSigmaRows int
	)

	for _, g := range groups {
		epsilon := g.epsilon()

		var sigmaPb, br, contribution float64
		if g.fromTau {
			sigmaPb = in.Registry.Sigma(g.pdg)
			brTauNu := in.Registry.BRToTauNu(g.pdg)
			brTauToN := theory.ScaleBR(in.Anchor.BRTauToN, in.URefSq, uSq)
			br = brTauNu * brTauToN
			if sigmaPb == 0 {
				missingSigma = append(missingSigma, g.pdg)
				missingSigmaRows += g.eventCount()
			}
			if brTauNu == 0 {
				missingBR = append(missingBR, g.pdg)
				missingBRRows += g.eventCount()
			}
			contribution = in.LuminosityFb * sigmaPb * br * epsilon * pbToFbFactor
		} else {
			sigmaPb = in.Registry.Sigma(g.pdg)
			brRef, known := in.Anchor.BRPerParent[g.pdg]
			if sigmaPb == 0 {
				missingSigma = append(missingSigma, g.pdg)
				missingSigmaRows += g.eventCount()
			}
			if !known {
				missingBR = append(missingBR, g.pdg)
				missingBRRows += g.eventCount()
			}
			br = theory.ScaleBR(brRef, in.URefSq, uSq)
			contribution = in.LuminosityFb * sigmaPb * br * epsilon * pbToFbFactor
		}

		total += contribution
		byParent = append(byParent, ParentYield{
			ParentPDG:  g.pdg,
			FromTau:    g.fromTau,
			EventCount: g.eventCount(),
			Epsilon:    epsilon,
			NSig:       contribution,
		})
	}

	if logDiagnostics && (len(missingBR) > 0 || len(missingSigma) > 0) {
		log.Warn().
			Ints("parents_missing_br", missingBR).
			Ints("parents_missing_sigma", missingSigma).
			Int("rows_missing_br", missingBRRows).
			Int("rows_missing_sigma", missingSigmaRows).
			Msg("some parent species have no theory or cross-section coverage; their rows contribute zero")
	}

	return Result{NSig: total, ByParent: byParent}, nil
}

// accumulateDirect groups non-fromTau rows by absolute parent PDG.
func accumulateDirect(rows []events.Record, ctau0M float64) map[int]*parentGroup {
	out := make(map[int]*parentGroup)
	for _, r := range rows {
		pdg := r.AbsParentPDG()
		g, ok := out[pdg]
		if !ok {
			g = &parentGroup{pdg: pdg}
			out[pdg] = g
		}
		p := decayProbability(r.HitsTube, r.BetaGamma, ctau0M, r.EntryDistance, r.PathLength)
		g.pDecays = append(g.pDecays, p)
		g.weights = append(g.weights, r.Weight)
	}
	return out
}

// accumulateFromTau groups fromTau rows by grandparent PDG (tau_parent_id),
// per spec.md §4.5.1 step 1: "For fromTau rows, partition further by
// tau_parent_id and treat each grandparent meson as its own channel."
func accumulateFromTau(rows []events.Record, ctau0M float64) map[int]*parentGroup {
	out := make(map[int]*parentGroup)
	for _, r := range rows {
		pdg := r.TauParentID
		g, ok := out[pdg]
		if !ok {
			g = &parentGroup{pdg: pdg, fromTau: true}
			out[pdg] = g
		}
		p := decayProbability(r.HitsTube, r.BetaGamma, ctau0M, r.EntryDistance, r.PathLength)
		g.pDecays = append(g.pDecays, p)
		g.weights = append(g.weights, r.Weight)
	}
	return out
}
