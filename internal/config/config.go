// Package config loads the run configuration that drives a scan: which
// (mass, flavour) units to evaluate, the detector geometry parameters, the
// luminosity and threshold, and the reference coupling used to anchor the
// theory adapter. Modelled on the scenario-file + viper pattern used by
// the designer tool this corpus was built around: one TOML/YAML/JSON file
// per run, read once at startup, never mutated afterward.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Detector carries the named geometry parameters spec.md flags as having
// undocumented magic numbers in the source pipeline. Both are exposed here
// instead of being buried as literals in geometry code.
type Detector struct {
	// PhysicalRadiusM is the bare detector tube radius in metres.
	PhysicalRadiusM float64
	// SafetyFactor scales PhysicalRadiusM up to the effective radius used
	// for ray intersection (source used an undocumented 1.1; default kept
	// here as an explicit, named, overridable constant).
	SafetyFactor float64
	// ZOffsetM is the detector's height above the interaction point.
	ZOffsetM float64
	// HorizontalExtentM is the tube's horizontal extent.
	HorizontalExtentM float64
}

// EffectiveRadiusM is the radius actually used for ray/mesh intersection.
func (d Detector) EffectiveRadiusM() float64 {
	return d.PhysicalRadiusM * d.SafetyFactor
}

// CouplingRef is the 3-vector (U_e, U_mu, U_tau) of coupling magnitudes at
// which the theory adapter is anchored.
type CouplingRef struct {
	UE, UMu, UTau float64
}

// ScanUnit is one (mass, flavour) work item.
type ScanUnit struct {
	MassGeV float64
	Flavour string
}

// Scan carries the |U|^2 grid and threshold parameters from spec.md §4.5.2.
type Scan struct {
	U2Min      float64
	U2Max      float64
	GridPoints int
	Threshold  float64
}

// Config is the fully-resolved run configuration, read once at startup and
// shared by value/pointer across every worker — never mutated afterward.
type Config struct {
	LuminosityFb float64
	Detector     Detector
	CouplingRef  CouplingRef
	Scan         Scan
	Units        []ScanUnit
	EventsDir    string
	CacheDir     string
	SummaryPath  string
	Verbose      bool

	// ApplyEWKFactor is copied into the summary's ew_k_factor_applied
	// column (spec.md §9 open question; default false). No stage of the
	// pipeline multiplies EWKFactor into N_sig, whatever this flag says.
	ApplyEWKFactor bool
	EWKFactor      float64
}

func defaults(v *viper.Viper) {
	v.SetDefault("luminosity_fb", 3000.0)
	v.SetDefault("detector.physical_radius_m", 1.4)
	v.SetDefault("detector.safety_factor", 1.1)
	v.SetDefault("detector.z_offset_m", 22.0)
	v.SetDefault("detector.horizontal_extent_m", 100.0)
	v.SetDefault("coupling_ref.u_e", 0.0)
	v.SetDefault("coupling_ref.u_mu", 1.0)
	v.SetDefault("coupling_ref.u_tau", 0.0)
	v.SetDefault("scan.u2_min", 1e-12)
	v.SetDefault("scan.u2_max", 1e-2)
	v.SetDefault("scan.grid_points", 100)
	v.SetDefault("scan.threshold", 3.0)
	v.SetDefault("events_dir", "data/events")
	v.SetDefault("cache_dir", "data/geometry_cache")
	v.SetDefault("summary_path", "data/reports/summary.csv")
	v.SetDefault("verbose", false)
	v.SetDefault("apply_ew_k_factor", false)
	v.SetDefault("ew_k_factor", 1.3)
}

// Load reads configFile (any viper-supported format: TOML, YAML, JSON)
// and environment overrides prefixed HNLSENS_, and validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("hnlsens")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var unitsRaw []struct {
		MassGeV float64 `mapstructure:"mass_gev"`
		Flavour string  `mapstructure:"flavour"`
	}
	if err := v.UnmarshalKey("units", &unitsRaw); err != nil {
		return nil, fmt.Errorf("config: units: %w", err)
	}
	units := make([]ScanUnit, 0, len(unitsRaw))
	for _, u := range unitsRaw {
		units = append(units, ScanUnit{MassGeV: u.MassGeV, Flavour: u.Flavour})
	}

	cfg := &Config{
		LuminosityFb: v.GetFloat64("luminosity_fb"),
		Detector: Detector{
			PhysicalRadiusM:   v.GetFloat64("detector.physical_radius_m"),
			SafetyFactor:      v.GetFloat64("detector.safety_factor"),
			ZOffsetM:          v.GetFloat64("detector.z_offset_m"),
			HorizontalExtentM: v.GetFloat64("detector.horizontal_extent_m"),
		},
		CouplingRef: CouplingRef{
			UE:   v.GetFloat64("coupling_ref.u_e"),
			UMu:  v.GetFloat64("coupling_ref.u_mu"),
			UTau: v.GetFloat64("coupling_ref.u_tau"),
		},
		Scan: Scan{
			U2Min:      v.GetFloat64("scan.u2_min"),
			U2Max:      v.GetFloat64("scan.u2_max"),
			GridPoints: v.GetInt("scan.grid_points"),
			Threshold:  v.GetFloat64("scan.threshold"),
		},
		Units:          units,
		EventsDir:      v.GetString("events_dir"),
		CacheDir:       v.GetString("cache_dir"),
		SummaryPath:    v.GetString("summary_path"),
		Verbose:        v.GetBool("verbose"),
		ApplyEWKFactor: v.GetBool("apply_ew_k_factor"),
		EWKFactor:      v.GetFloat64("ew_k_factor"),
	}

	return cfg, cfg.Validate()
}

// Validate enforces the configuration-error class from the error-handling
// design: unknown flavour strings and nonsensical masses are fatal at
// startup, not discovered mid-scan.
func (c *Config) Validate() error {
	if len(c.Units) == 0 {
		return fmt.Errorf("config: no scan units configured")
	}
	for _, u := range c.Units {
		if u.MassGeV <= 0 {
			return fmt.Errorf("config: invalid mass %.3f GeV", u.MassGeV)
		}
		switch u.Flavour {
		case "electron", "muon", "tau":
		default:
			return fmt.Errorf("config: unknown flavour %q", u.Flavour)
		}
	}
	if c.Scan.GridPoints < 2 {
		return fmt.Errorf("config: scan.grid_points must be >= 2")
	}
	if c.Scan.U2Min <= 0 || c.Scan.U2Max <= c.Scan.U2Min {
		return fmt.Errorf("config: invalid scan range [%g, %g]", c.Scan.U2Min, c.Scan.U2Max)
	}
	if c.Detector.PhysicalRadiusM <= 0 || c.Detector.SafetyFactor <= 0 {
		return fmt.Errorf("config: invalid detector geometry")
	}
	return nil
}

// ComponentFor returns the coupling-reference component matching flavour.
func (c CouplingRef) ComponentFor(flavour string) (float64, error) {
	switch flavour {
	case "electron":
		return c.UE, nil
	case "muon":
		return c.UMu, nil
	case "tau":
		return c.UTau, nil
	default:
		return 0, fmt.Errorf("config: unknown flavour %q", flavour)
	}
}
