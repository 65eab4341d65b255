package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameRoundTrip(t *testing.T) {
	cases := []string{
		"HNL_2p60GeV_muon_charm.csv",
		"HNL_2p60GeV_muon_charm_ff.csv",
		"HNL_1p00GeV_tau_kaon_fromTau.csv",
		"HNL_10p00GeV_electron_EW.csv",
	}
	for _, name := range cases {
		n, err := ParseName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, FileName(n))
	}
}

func TestParseNameRejectsGarbage(t *testing.T) {
	_, err := ParseName("not_an_event_file.csv")
	assert.Error(t, err)
}

func TestLoadDropsInvalidRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	content := "event,weight,hnl_id,parent_pdg,tau_parent_id,pt,eta,phi,p,E,mass,prod_x_mm,prod_y_mm,prod_z_mm,beta_gamma\n" +
		"1,1.0,9900012,511,0,10,0.5,0.1,20,25,2.6,0,0,0,4\n" +
		"2,1.0,9900012,-431,15,10,0.5,0.1,20,25,2.6,0,0,0,NaN\n" + // non-finite, dropped
		"3,1.0,9900012,15,431,10,0.5,0.1,20,25,2.6,0,0,0,4\n" + // valid fromTau
		"4,1.0,1,511,0,10,0.5,0.1,20,25,2.6,0,0,0,4\n" // wrong hnl_id, dropped

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := Load(path, noopLogger())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].EventID)
	assert.Equal(t, 3, rows[1].EventID)
	assert.True(t, rows[1].IsFromTau())
}

func TestLoadSortsByEventID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	content := "event,weight,hnl_id,parent_pdg,tau_parent_id,pt,eta,phi,p,E,mass,prod_x_mm,prod_y_mm,prod_z_mm,beta_gamma\n" +
		"5,1.0,9900012,511,0,10,0.5,0.1,20,25,2.6,0,0,0,4\n" +
		"1,1.0,9900012,511,0,10,0.5,0.1,20,25,2.6,0,0,0,4\n" +
		"3,1.0,9900012,511,0,10,0.5,0.1,20,25,2.6,0,0,0,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := Load(path, noopLogger())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{rows[0].EventID, rows[1].EventID, rows[2].EventID})
}
