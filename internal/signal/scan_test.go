package signal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llp-detector/hnlsens/internal/config"
	"github.com/llp-detector/hnlsens/internal/geometry"
	"github.com/llp-detector/hnlsens/internal/theory"
	"github.com/llp-detector/hnlsens/internal/xsecreg"
)

const fixtureCSVHeader = "event,weight,hnl_id,parent_pdg,tau_parent_id,pt,eta,phi,p,E,mass,prod_x_mm,prod_y_mm,prod_z_mm,beta_gamma\n"

// writeFixtureSample writes n B0 (pdg 511) rows aimed almost straight up
// (eta=5, phi=0, vertex at the origin), crossing the tube's circular
// cross-section, which the ray tracer resolves to a tube hit
// (geometry_test.go's TestCurvedTubeEntryExitOrdering establishes that a
// vertical ray under the tube hits).
func writeFixtureSample(t *testing.T, dir, name string, n int) {
	t.Helper()
	content := fixtureCSVHeader
	for i := 0; i < n; i++ {
		content += fixtureRow(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func fixtureRow(id int) string {
	return itoaScan(id) + ",1.0,9900012,511,0,10,5,0,20,21,2.6,0,0,0,4\n"
}

func itoaScan(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func testConfig(t *testing.T, eventsDir string, couplingRef config.CouplingRef, flavour string) *config.Config {
	t.Helper()
	return &config.Config{
		LuminosityFb: 3000,
		Detector: config.Detector{
			PhysicalRadiusM:   1.4,
			SafetyFactor:      1.1,
			ZOffsetM:          22.0,
			HorizontalExtentM: 100.0,
		},
		CouplingRef: couplingRef,
		Scan: config.Scan{
			U2Min:      1e-8,
			U2Max:      1e-2,
			GridPoints: 30,
			Threshold:  1.0,
		},
		Units:       []config.ScanUnit{{MassGeV: 2.6, Flavour: flavour}},
		EventsDir:   eventsDir,
		CacheDir:    t.TempDir(),
		SummaryPath: filepath.Join(t.TempDir(), "summary.csv"),
	}
}

// TestRunUnitEndToEndProducesExclusion drives combine -> geometry cache ->
// theory anchor -> kernel/solver for one (mass, flavour) unit, verifying
// the full wiring rather than any one stage in isolation.
func TestRunUnitEndToEndProducesExclusion(t *testing.T) {
	dir := t.TempDir()
	writeFixtureSample(t, dir, "HNL_2p60GeV_muon_EW.csv", 200)

	cfg := testConfig(t, dir, config.CouplingRef{UMu: 1.0}, "muon")
	mesh, err := geometry.NewCurvedTube(cfg.Detector)
	require.NoError(t, err)
	reg := xsecreg.NewRegistry()
	adapter := theory.NewAnalyticAdapter()

	res := RunUnit(context.Background(), cfg, cfg.Units[0], mesh, reg, adapter, "test-run", zerolog.Nop())

	require.NoError(t, res.Err)
	assert.True(t, res.Exclusion.Found, "a well-populated muon sample with nonzero U_mu must find an exclusion island")
	assert.Greater(t, res.Acceptance, 0.0)
	assert.Greater(t, res.Exclusion.PeakNSig, cfg.Scan.Threshold)
}

// TestRunUnitUsesOnlyThisUnitsFlavourComponent confirms the per-unit
// coupling-reference fix: a unit's theory anchor must use that unit's own
// flavour component of CouplingRef (zero on the other two axes), not the
// full configured vector. A muon unit scanned against a CouplingRef whose
// only nonzero axis is U_e must see U_ref=0 and therefore find no
// exclusion, even though the global vector's magnitude is nonzero.
func TestRunUnitUsesOnlyThisUnitsFlavourComponent(t *testing.T) {
	dir := t.TempDir()
	writeFixtureSample(t, dir, "HNL_2p60GeV_muon_EW.csv", 200)

	cfg := testConfig(t, dir, config.CouplingRef{UE: 1.0}, "muon")
	mesh, err := geometry.NewCurvedTube(cfg.Detector)
	require.NoError(t, err)
	reg := xsecreg.NewRegistry()
	adapter := theory.NewAnalyticAdapter()

	res := RunUnit(context.Background(), cfg, cfg.Units[0], mesh, reg, adapter, "test-run", zerolog.Nop())

	require.NoError(t, res.Err)
	assert.False(t, res.Exclusion.Found,
		"U_mu=0 for this muon unit must yield no exclusion, regardless of a nonzero U_e elsewhere in CouplingRef")
	assert.Equal(t, 0.0, res.Exclusion.PeakNSig)
}

// TestRunAllProcessesEveryConfiguredUnit exercises the worker-pool fan-out,
// including a unit with no event samples on disk at all.
func TestRunAllProcessesEveryConfiguredUnit(t *testing.T) {
	dir := t.TempDir()
	writeFixtureSample(t, dir, "HNL_2p60GeV_muon_EW.csv", 200)

	cfg := testConfig(t, dir, config.CouplingRef{UMu: 1.0, UE: 1.0}, "muon")
	cfg.Units = []config.ScanUnit{
		{MassGeV: 2.6, Flavour: "muon"},
		{MassGeV: 2.6, Flavour: "electron"}, // no matching sample file in dir
	}
	mesh, err := geometry.NewCurvedTube(cfg.Detector)
	require.NoError(t, err)
	reg := xsecreg.NewRegistry()
	adapter := theory.NewAnalyticAdapter()

	results, err := RunAll(context.Background(), cfg, mesh, reg, adapter, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byFlavour := map[string]UnitResult{}
	for _, r := range results {
		byFlavour[r.Unit.Flavour] = r
	}

	muon := byFlavour["muon"]
	require.NoError(t, muon.Err)
	assert.True(t, muon.Exclusion.Found)

	electron := byFlavour["electron"]
	require.NoError(t, electron.Err)
	assert.Equal(t, 0.0, electron.Acceptance, "no event samples for this unit -> zero acceptance, not a crash")
	assert.False(t, electron.Exclusion.Found)
}
