package signal

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/llp-detector/hnlsens/internal/combine"
	"github.com/llp-detector/hnlsens/internal/config"
	"github.com/llp-detector/hnlsens/internal/events"
	"github.com/llp-detector/hnlsens/internal/geometry"
	"github.com/llp-detector/hnlsens/internal/logging"
	"github.com/llp-detector/hnlsens/internal/pipeline"
	"github.com/llp-detector/hnlsens/internal/theory"
	"github.com/llp-detector/hnlsens/internal/xsecreg"
)

// UnitResult is one (mass, flavour) unit's complete scan outcome.
type UnitResult struct {
	Unit      config.ScanUnit
	Exclusion Exclusion
	// Acceptance is the unweighted geometric acceptance (hits_tube rows /
	// total rows) of the combined sample, reported in the summary output.
	Acceptance float64
	// Err is non-nil when this unit failed; the scan continues for other
	// units regardless (spec.md §5: "the (mass, flavour) unit is marked
	// failed but other units proceed").
	Err error
}

// RunUnit executes one (mass, flavour) unit end to end: combine -> cached
// geometry -> one theory anchor call -> grid scan -> exclusion island.
func RunUnit(ctx context.Context, cfg *config.Config, unit config.ScanUnit, mesh geometry.Mesh, reg *xsecreg.Registry, adapter theory.Adapter, runID string, baseLog zerolog.Logger) UnitResult {
	log := logging.ForUnit(baseLog, runID, unit.MassGeV, unit.Flavour)

	combined, err := combine.Combine(cfg.EventsDir, unit.MassGeV, unit.Flavour, log)
	if err != nil {
		return UnitResult{Unit: unit, Err: err}
	}

	direct, err := withGeometry(cfg, unit, mesh, combined.Direct, log)
	if err != nil {
		return UnitResult{Unit: unit, Err: err}
	}
	fromTau, err := withGeometry(cfg, unit, mesh, combined.FromTau, log)
	if err != nil {
		return UnitResult{Unit: unit, Err: err}
	}

	// spec.md §4.4: "the caller picks a canonical U_ref, typically the
	// pure-flavour unit vector for the benchmark being scanned" — so the
	// anchor's reference coupling carries only this unit's own flavour
	// component, zero on the other two axes, never the full configured
	// CouplingRef vector regardless of which flavour is being scanned.
	component, err := cfg.CouplingRef.ComponentFor(unit.Flavour)
	if err != nil {
		return UnitResult{Unit: unit, Err: pipeline.Wrap(pipeline.KindConfiguration, "signal.RunUnit", err)}
	}
	var uRef theory.CouplingVector
	switch unit.Flavour {
	case "electron":
		uRef.UE = component
	case "muon":
		uRef.UMu = component
	case "tau":
		uRef.UTau = component
	}
	uRefSq := uRef.MagnitudeSquared()

	anchor, err := adapter.Anchor(ctx, unit.MassGeV, uRef)
	if err != nil {
		return UnitResult{Unit: unit, Err: pipeline.Wrap(pipeline.KindTheoryFailure, "signal.RunUnit", err)}
	}

	in := EvalInput{
		LuminosityFb: cfg.LuminosityFb,
		Direct:       direct,
		FromTau:      fromTau,
		Anchor:       anchor,
		URefSq:       uRefSq,
		Registry:     reg,
	}

	grid := LogSpacedGrid(cfg.Scan.U2Min, cfg.Scan.U2Max, cfg.Scan.GridPoints)
	kernel := func(ctx context.Context, uSq float64, first bool) (Result, error) {
		return Evaluate(in, uSq, log, first)
	}

	excl, err := Solve(ctx, grid, cfg.Scan.Threshold, kernel, log)
	acceptance := geometricAcceptance(direct, fromTau)
	if err != nil {
		return UnitResult{Unit: unit, Exclusion: excl, Acceptance: acceptance, Err: err}
	}

	return UnitResult{Unit: unit, Exclusion: excl, Acceptance: acceptance}
}

// RunAll fans RunUnit out across every configured unit using a worker
// pool sized to available CPU cores, per spec.md §5's scheduling model:
// "a pool of worker tasks equal in size to available CPU cores." The
// theory adapter is wrapped once with SerializedAdapter and shared, since
// it "may itself be non-thread-safe."
func RunAll(ctx context.Context, cfg *config.Config, mesh geometry.Mesh, reg *xsecreg.Registry, adapter theory.Adapter, baseLog zerolog.Logger) ([]UnitResult, error) {
	serialized := theory.NewSerializedAdapter(adapter)
	runID := logging.ScanRunID()

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	results := make([]UnitResult, len(cfg.Units))

	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range cfg.Units {
		i, unit := i, unit
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = RunUnit(gctx, cfg, unit, mesh, reg, serialized, runID, baseLog)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// withGeometry is the geometry-cache read-through path: prefer an
// existing cache entry keyed by (mass, flavour, mesh hash); recompute and
// store only on miss (spec.md §5).
func withGeometry(cfg *config.Config, unit config.ScanUnit, mesh geometry.Mesh, rows []events.Record, log zerolog.Logger) ([]events.Record, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	path := geometry.CachePath(cfg.CacheDir, unit.MassGeV, unit.Flavour, mesh.Hash())
	cached, hit, err := geometry.CacheLoad(path)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindDataCorruption, "signal.withGeometry", err)
	}
	if hit {
		return cached, nil
	}

	augmented := geometry.ComputeGeometry(rows, mesh, unit.MassGeV, log)
	if err := geometry.CacheStore(path, augmented, log); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to persist geometry cache; continuing uncached")
	}
	return augmented, nil
}

// geometricAcceptance is the unweighted fraction of combined rows that
// hit the detector volume, reported in the summary output's
// geom_acceptance column.
func geometricAcceptance(direct, fromTau []events.Record) float64 {
	total, hits := 0, 0
	for _, r := range direct {
		total++
		if r.HitsTube {
			hits++
		}
	}
	for _, r := range fromTau {
		total++
		if r.HitsTube {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
