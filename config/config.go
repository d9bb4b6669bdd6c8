// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Physics   PhysicsConfig    `yaml:"physics"`
	Clouds    CloudsConfig     `yaml:"clouds"`
	Fluid     FluidConfig      `yaml:"fluid"`
	Compounds []CompoundConfig `yaml:"compounds"`
	Spawner   SpawnerConfig    `yaml:"spawner"`
	Camera    CameraConfig     `yaml:"camera"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds simulation timing parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// CloudsConfig holds compound cloud integrator parameters.
type CloudsConfig struct {
	DiffuseRate float64 `yaml:"diffuse_rate"` // diffusion coefficient per time unit
	StepTime    float64 `yaml:"step_time"`    // integrator time units per tick
}

// FluidConfig holds velocity field generation parameters.
type FluidConfig struct {
	NoiseScale float64 `yaml:"noise_scale"` // world units -> noise domain
	Strength   float64 `yaml:"strength"`    // velocity magnitude scale
	TimeSpeed  float64 `yaml:"time_speed"`  // noise animation speed
}

// CompoundConfig describes one compound in the catalog.
// Registration order fixes cloud group membership.
type CompoundConfig struct {
	Name      string     `yaml:"name"`
	Color     [3]float64 `yaml:"color"`
	Viscosity float64    `yaml:"viscosity"`
	Cloud     bool       `yaml:"cloud"`
}

// SpawnerConfig holds the ambient compound spawner parameters.
type SpawnerConfig struct {
	IntervalTicks int     `yaml:"interval_ticks"` // ticks between bursts (0 disables)
	Amount        float64 `yaml:"amount"`         // density deposited per burst
	Radius        float64 `yaml:"radius"`         // burst placement radius around the focus
}

// CameraConfig holds viewport follow parameters.
type CameraConfig struct {
	MaxZoom    float64 `yaml:"max_zoom"`
	FollowLerp float64 `yaml:"follow_lerp"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // samples kept per perf series
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32       float32 // Physics.DT as float32
	StepTime32 float32 // Clouds.StepTime as float32
	ScreenW32  float32 // Screen.Width as float32
	ScreenH32  float32 // Screen.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.StepTime32 = float32(c.Clouds.StepTime)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	for i := range c.Compounds {
		if c.Compounds[i].Viscosity == 0 {
			c.Compounds[i].Viscosity = 1.0
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
