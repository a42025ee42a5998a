// Package config loads and saves zfight settings as YAML.
//
// Config file locations (priority order):
//  1. $ZFIGHT_CONFIG
//  2. ./zfight.yaml
//  3. $XDG_CONFIG_HOME/zfight/config.yaml
//  4. ~/.config/zfight/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/resolve"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Detection DetectionConfig `yaml:"detection"`
	Fix       FixConfig       `yaml:"fix"`
	Render    RenderConfig    `yaml:"render"`
}

// DetectionConfig controls what counts as a conflict
type DetectionConfig struct {
	// Tolerance is a pointer so an explicit 0 (exact coincidence) survives
	// applyDefaults.
	Tolerance *float64 `yaml:"tolerance,omitempty"`
	Policy    string   `yaml:"policy"`
}

// FixConfig controls how conflicts are resolved
type FixConfig struct {
	Method       string   `yaml:"method"`
	Amount       float64  `yaml:"amount"`
	Policy       string   `yaml:"policy"`
	AutoRecheck  *bool    `yaml:"auto_recheck,omitempty"`
	// RecheckDelay is a pointer so an explicit 0s survives applyDefaults.
	RecheckDelay *Duration `yaml:"recheck_delay,omitempty"`
}

// RenderConfig controls meshing for the desktop view
type RenderConfig struct {
	// Kernel is "sdfx" (marching cubes) or "manifold" (exact, needs the
	// manifold build tag).
	Kernel    string `yaml:"kernel"`
	MeshCells int    `yaml:"mesh_cells"`
}

// Kernel names accepted in render.kernel.
const (
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold"
)

// DefaultMeshCells matches the sdfx kernel's default resolution.
const DefaultMeshCells = 200

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the config equivalent of resolve.DefaultSettings
func DefaultConfig() *Config {
	return FromSettings(resolve.DefaultSettings())
}

// FromSettings converts resolver settings into a config
func FromSettings(s resolve.Settings) *Config {
	tol := s.Tolerance
	recheck := s.AutoRecheck
	delay := Duration(s.RecheckDelay)
	return &Config{
		Version: 1,
		Detection: DetectionConfig{
			Tolerance: &tol,
			Policy:    s.DetectPolicy.String(),
		},
		Fix: FixConfig{
			Method:       s.Method.String(),
			Amount:       s.Amount,
			Policy:       s.FixPolicy.String(),
			AutoRecheck:  &recheck,
			RecheckDelay: &delay,
		},
		Render: RenderConfig{Kernel: KernelSdfx, MeshCells: DefaultMeshCells},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	d := resolve.DefaultSettings()

	if c.Version == 0 {
		c.Version = 1
	}
	if c.Detection.Tolerance == nil {
		tol := d.Tolerance
		c.Detection.Tolerance = &tol
	}
	if c.Detection.Policy == "" {
		c.Detection.Policy = d.DetectPolicy.String()
	}
	if c.Fix.Method == "" {
		c.Fix.Method = d.Method.String()
	}
	if c.Fix.Amount == 0 {
		c.Fix.Amount = d.Amount
	}
	if c.Fix.Policy == "" {
		c.Fix.Policy = d.FixPolicy.String()
	}
	if c.Fix.AutoRecheck == nil {
		recheck := d.AutoRecheck
		c.Fix.AutoRecheck = &recheck
	}
	if c.Fix.RecheckDelay == nil {
		delay := Duration(d.RecheckDelay)
		c.Fix.RecheckDelay = &delay
	}
	if c.Render.Kernel == "" {
		c.Render.Kernel = KernelSdfx
	}
	if c.Render.MeshCells <= 0 {
		c.Render.MeshCells = DefaultMeshCells
	}
}

// Settings converts the config into validated resolver settings
func (c *Config) Settings() (resolve.Settings, error) {
	cfg := *c
	cfg.applyDefaults()

	detect, err := geom.ParsePolicy(cfg.Detection.Policy)
	if err != nil {
		return resolve.Settings{}, fmt.Errorf("detection.policy: %w", err)
	}
	fixPolicy, err := geom.ParsePolicy(cfg.Fix.Policy)
	if err != nil {
		return resolve.Settings{}, fmt.Errorf("fix.policy: %w", err)
	}
	method, err := resolve.ParseFixMethod(cfg.Fix.Method)
	if err != nil {
		return resolve.Settings{}, fmt.Errorf("fix.method: %w", err)
	}

	s := resolve.Settings{
		Tolerance:    *cfg.Detection.Tolerance,
		Amount:       cfg.Fix.Amount,
		Method:       method,
		AutoRecheck:  *cfg.Fix.AutoRecheck,
		DetectPolicy: detect,
		FixPolicy:    fixPolicy,
		RecheckDelay: cfg.Fix.RecheckDelay.Duration(),
	}
	if err := s.Validate(); err != nil {
		return resolve.Settings{}, err
	}
	return s, nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	cfg := *c
	cfg.applyDefaults()
	return fmt.Sprintf("Detection: %s, tolerance %g\nFix: %s by %g (%s), auto-recheck %v after %s",
		cfg.Detection.Policy, *cfg.Detection.Tolerance,
		cfg.Fix.Method, cfg.Fix.Amount, cfg.Fix.Policy,
		*cfg.Fix.AutoRecheck, cfg.Fix.RecheckDelay.Duration())
}
