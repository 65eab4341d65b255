package combine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/llp-detector/hnlsens/internal/events"
	"github.com/llp-detector/hnlsens/internal/pipeline"
)

// Combined is the unified event table for one (mass, flavour) unit.
// Direct holds every non-fromTau row (regimes concatenated); FromTau is
// kept separate because its weighting formula differs (spec.md §4.3
// step 4, §4.5.1): BR(grandparent -> tau nu) * BR(tau -> N X) rather than
// BR(parent -> lepton N).
type Combined struct {
	MassGeV float64
	Flavour string
	Direct  []events.Record
	FromTau []events.Record

	// Sources records which file contributed to each regime/variant slot,
	// for diagnostics and idempotence testing.
	Sources []SourceFile
}

// SourceFile documents one file that contributed to a Combined table.
type SourceFile struct {
	Path       string
	Regime     events.Regime
	Mode       events.Mode
	FormFactor bool
}

type variantKey struct {
	regime events.Regime
	mode   events.Mode
}

type candidate struct {
	path string
	name events.Name
}

// Combine discovers every event CSV under dir matching (massGeV, flavour),
// applies form-factor precedence and regime addition, and returns the
// unified table (spec.md §4.3).
func Combine(dir string, massGeV float64, flavour string, log zerolog.Logger) (Combined, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Combined{}, pipeline.Wrap(pipeline.KindConfiguration, "combine.Combine", err)
	}

	var cands []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, err := events.ParseName(e.Name())
		if err != nil {
			continue // not an HNL event file; ignore silently, not this unit's concern
		}
		if !almostEqual(name.MassGeV, massGeV) || name.Flavour != flavour {
			continue
		}
		cands = append(cands, candidate{path: filepath.Join(dir, e.Name()), name: name})
	}

	return combineCandidates(cands, massGeV, flavour, log)
}

// combineCandidates applies the merge policy to an already-discovered
// candidate list. Split out from Combine so the duplicate-detection and
// precedence rules can be exercised directly without touching a
// filesystem.
func combineCandidates(cands []candidate, massGeV float64, flavour string, log zerolog.Logger) (Combined, error) {
	byVariant := make(map[variantKey][]candidate)
	for _, c := range cands {
		key := variantKey{regime: c.name.Regime, mode: c.name.Mode}
		byVariant[key] = append(byVariant[key], c)
	}

	if len(byVariant) == 0 {
		log.Warn().
			Float64("mass_gev", massGeV).
			Str("flavour", flavour).
			Msg("no event samples found for this (mass, flavour) unit")
		return Combined{MassGeV: massGeV, Flavour: flavour}, nil
	}

	// Deterministic iteration order for reproducible Sources and idempotent
	// combination regardless of directory-listing order (spec.md §8).
	keys := make([]variantKey, 0, len(byVariant))
	for k := range byVariant {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].regime != keys[j].regime {
			return keys[i].regime < keys[j].regime
		}
		return keys[i].mode < keys[j].mode
	})

	out := Combined{MassGeV: massGeV, Flavour: flavour}

	for _, key := range keys {
		cands := byVariant[key]

		var ff, plain []candidate
		for _, c := range cands {
			if c.name.FormFactor {
				ff = append(ff, c)
			} else {
				plain = append(plain, c)
			}
		}
		if len(ff) > 1 || len(plain) > 1 {
			return Combined{}, pipeline.Wrap(pipeline.KindDataCorruption, "combine.Combine",
				fmt.Errorf("%w: regime=%s mode=%s", ErrDuplicateRegime, key.regime, key.mode))
		}

		// Form-factor precedence: _ff replaces the phase-space version of
		// the same class (spec.md §4.3 step 2).
		chosen := plain
		if len(ff) == 1 {
			chosen = ff
		}
		if len(chosen) == 0 {
			continue
		}
		c := chosen[0]

		rows, err := events.Load(c.path, log)
		if err != nil {
			return Combined{}, err
		}

		out.Sources = append(out.Sources, SourceFile{
			Path: c.path, Regime: c.name.Regime, Mode: c.name.Mode, FormFactor: c.name.FormFactor,
		})

		if key.mode == events.ModeFromTau {
			out.FromTau = append(out.FromTau, rows...)
		} else {
			out.Direct = append(out.Direct, rows...)
		}
	}

	sort.SliceStable(out.Direct, func(i, j int) bool { return out.Direct[i].EventID < out.Direct[j].EventID })
	sort.SliceStable(out.FromTau, func(i, j int) bool { return out.FromTau[i].EventID < out.FromTau[j].EventID })

	return out, nil
}

func almostEqual(a, b float64) bool {
	const eps = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
