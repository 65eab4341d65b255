package report

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/llp-detector/hnlsens/internal/signal"
)

// Row is the summary-output schema from spec.md §6:
// `mass_GeV, flavour, U2_min, U2_max, peak_Nsig, island_decades,
// geom_acceptance`, plus `ew_k_factor_applied` resolving SPEC_FULL.md §11's
// open question: the K-factor is reported here, never silently folded
// into peak_Nsig.
type Row struct {
	MassGeV          float64 `csv:"mass_GeV"`
	Flavour          string  `csv:"flavour"`
	U2Min            float64 `csv:"U2_min"`
	U2Max            float64 `csv:"U2_max"`
	PeakNSig         float64 `csv:"peak_Nsig"`
	IslandDecades    float64 `csv:"island_decades"`
	GeomAcceptance   float64 `csv:"geom_acceptance"`
	EWKFactorApplied bool    `csv:"ew_k_factor_applied"`
	Status           string  `csv:"status"`
}

// FromUnitResults converts a scan's per-unit results into summary rows.
// Units that failed or found no exclusion still get a row (status carries
// the reason) — spec.md §7: "never swallow a failure silently." A unit
// whose peak yield never reached threshold is not a failure (spec.md
// §4.5.2, §7: "report 'no exclusion' without error") so its peak yield is
// still written, just without island bounds.
func FromUnitResults(results []signal.UnitResult, applyEWK bool, log zerolog.Logger) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		row := Row{
			MassGeV:          r.Unit.MassGeV,
			Flavour:          r.Unit.Flavour,
			GeomAcceptance:   r.Acceptance,
			EWKFactorApplied: applyEWK,
		}
		switch {
		case r.Err != nil:
			row.Status = r.Err.Error()
			log.Warn().
				Float64("mass_gev", r.Unit.MassGeV).
				Str("flavour", r.Unit.Flavour).
				Err(r.Err).
				Msg("scan unit did not produce an exclusion result")
		case !r.Exclusion.Found:
			row.Status = "no_exclusion"
			row.PeakNSig = r.Exclusion.PeakNSig
		default:
			row.Status = "ok"
			row.U2Min = r.Exclusion.U2Min
			row.U2Max = r.Exclusion.U2Max
			row.PeakNSig = r.Exclusion.PeakNSig
			row.IslandDecades = r.Exclusion.IslandDecades
		}
		rows = append(rows, row)
	}
	return rows
}

// Write marshals rows to path as CSV, creating or truncating the file.
func Write(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("report: marshal summary rows: %w", err)
	}
	return nil
}
