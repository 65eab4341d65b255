package geometry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/llp-detector/hnlsens/internal/events"
)

// cacheRow is the on-disk augmented-table schema: the full event record
// plus the geometry columns, round-tripped bit-for-bit (spec.md §8).
type cacheRow struct {
	EventID       int     `csv:"event"`
	Weight        float64 `csv:"weight"`
	HNLID         int     `csv:"hnl_id"`
	ParentPDG     int     `csv:"parent_pdg"`
	TauParentID   int     `csv:"tau_parent_id"`
	Pt            float64 `csv:"pt"`
	Eta           float64 `csv:"eta"`
	Phi           float64 `csv:"phi"`
	P             float64 `csv:"p"`
	E             float64 `csv:"E"`
	Mass          float64 `csv:"mass"`
	ProdXMm       float64 `csv:"prod_x_mm"`
	ProdYMm       float64 `csv:"prod_y_mm"`
	ProdZMm       float64 `csv:"prod_z_mm"`
	BetaGamma     float64 `csv:"beta_gamma"`
	HitsTube      bool    `csv:"hits_tube"`
	EntryDistance float64 `csv:"entry_distance"`
	PathLength    float64 `csv:"path_length"`
}

func toCacheRows(records []events.Record) []cacheRow {
	rows := make([]cacheRow, len(records))
	for i, r := range records {
		rows[i] = cacheRow{
			EventID: r.EventID, Weight: r.Weight, HNLID: r.HNLID,
			ParentPDG: r.ParentPDG, TauParentID: r.TauParentID,
			Pt: r.Pt, Eta: r.Eta, Phi: r.Phi, P: r.P, E: r.E, Mass: r.Mass,
			ProdXMm: r.ProdXMm, ProdYMm: r.ProdYMm, ProdZMm: r.ProdZMm,
			BetaGamma: r.BetaGamma, HitsTube: r.HitsTube,
			EntryDistance: r.EntryDistance, PathLength: r.PathLength,
		}
	}
	return rows
}

func fromCacheRows(rows []cacheRow) []events.Record {
	records := make([]events.Record, len(rows))
	for i, r := range rows {
		records[i] = events.Record{
			EventID: r.EventID, Weight: r.Weight, HNLID: r.HNLID,
			ParentPDG: r.ParentPDG, TauParentID: r.TauParentID,
			Pt: r.Pt, Eta: r.Eta, Phi: r.Phi, P: r.P, E: r.E, Mass: r.Mass,
			ProdXMm: r.ProdXMm, ProdYMm: r.ProdYMm, ProdZMm: r.ProdZMm,
			BetaGamma: r.BetaGamma, HitsTube: r.HitsTube,
			EntryDistance: r.EntryDistance, PathLength: r.PathLength,
		}
	}
	return records
}

// CachePath derives the geometry-cache file path for one (mass, flavour)
// unit against meshHash, the key spec.md §3/§5 specify.
func CachePath(cacheDir string, massGeV float64, flavour, meshHash string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("geom_%.2f_%s_%s.csv", massGeV, flavour, meshHash))
}

// CacheLoad reads a previously-cached augmented table, if present. A
// missing cache file is a normal cache miss, not an error.
func CacheLoad(path string) ([]events.Record, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var rows []cacheRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, false, err
	}
	return fromCacheRows(rows), true, nil
}

// CacheStore writes the augmented table to path using a temp-file-then-
// rename sequence, so concurrent readers never observe a partially
// written cache file (spec.md §5: "concurrent writes use file-level
// atomic rename; readers prefer an existing cache file").
func CacheStore(path string, records []events.Record, log zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("geometry: mkdir cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".geom-*.tmp")
	if err != nil {
		return fmt.Errorf("geometry: create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	rows := toCacheRows(records)
	if err := gocsv.Marshal(rows, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("geometry: marshal cache rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("geometry: close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("geometry: atomic rename cache file: %w", err)
	}
	log.Debug().Str("path", path).Int("rows", len(records)).Msg("wrote geometry cache")
	return nil
}
