package pipeline

import (
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/flowatlas/flowmap-cli/internal/config"
)

// Manifest records what a run produced and the parameters that shaped it,
// so any output SVG can be traced back to its exact tuning.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`

	Sources struct {
		ODURL       string `yaml:"od_url"`
		BoundaryURL string `yaml:"boundary_url"`
	} `yaml:"sources"`

	Parameters struct {
		CurveAngleDeg  float64 `yaml:"curve_angle_deg"`
		Divisor        float64 `yaml:"divisor"`
		WeightExponent float64 `yaml:"weight_exponent"`
		GeoIDLength    int     `yaml:"geoid_length"`
		MinWeight      float64 `yaml:"min_weight"`
	} `yaml:"parameters"`

	Stats struct {
		Zones     int `yaml:"zones"`
		Pairs     int `yaml:"pairs"`
		Unmatched int `yaml:"unmatched"`
	} `yaml:"stats"`

	Outputs []string `yaml:"outputs"`
}

// NewManifest seeds a manifest from the active configuration.
func NewManifest(runID string, cfg *config.Config) *Manifest {
	m := &Manifest{RunID: runID, CreatedAt: time.Now().UTC()}
	m.Sources.ODURL = cfg.Data.ODURL
	m.Sources.BoundaryURL = cfg.Data.BoundaryURL
	m.Parameters.CurveAngleDeg = cfg.Trajectory.CurveAngleDeg
	m.Parameters.Divisor = cfg.Trajectory.Divisor
	m.Parameters.WeightExponent = cfg.Render.WeightExponent
	m.Parameters.GeoIDLength = cfg.Data.GeoIDLength
	m.Parameters.MinWeight = cfg.Data.MinWeight
	return m
}

// Encode renders the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: encode manifest")
	}
	return data, nil
}

// DecodeManifest parses a YAML manifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "pipeline: decode manifest")
	}
	return &m, nil
}
