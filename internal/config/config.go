package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"climb-pacer/internal/pacing"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Rider   RiderConfig   `json:"rider"`
	Physics PhysicsConfig `json:"physics"`
	Policy  PolicyConfig  `json:"policy"`
	Course  CourseConfig  `json:"course"`
	Display DisplayConfig `json:"display"`
}

// StravaConfig holds Strava API credentials. Only login and import-strava need them.
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RiderConfig holds the default rider used when no profile is stored
type RiderConfig struct {
	FTP      float64 `json:"ftp"`
	WPrime   float64 `json:"w_prime"`
	BodyMass float64 `json:"body_mass"`
}

// PhysicsConfig overrides the simulation constants
type PhysicsConfig struct {
	Gravity    float64 `json:"gravity"`
	Crr        float64 `json:"crr"`
	Rho        float64 `json:"rho"`
	CdA        float64 `json:"cda"`
	Efficiency float64 `json:"efficiency"`
	BikeMass   float64 `json:"bike_mass"`
	WindMPH    float64 `json:"wind_mph"`
}

// PolicyConfig tunes the power policy and the intensity search
type PolicyConfig struct {
	GradePivot        float64 `json:"grade_pivot"`
	GradeSensitivity  float64 `json:"grade_sensitivity"`
	RecoveryTau       float64 `json:"recovery_tau"`
	SearchLow         float64 `json:"search_low"`
	SearchHigh        float64 `json:"search_high"`
	SearchIterations  int     `json:"search_iterations"`
	FactorTolerance   float64 `json:"factor_tolerance"`
	FeasibilityMargin float64 `json:"feasibility_margin"`
	SpeedIterations   int     `json:"speed_iterations"`
}

// CourseConfig selects the climb to plan
type CourseConfig struct {
	// Source is a built-in course name or a path to a .gpx or .fit file
	Source string `json:"source"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	c := pacing.DefaultConstants()
	p := pacing.DefaultPolicy()
	s := pacing.DefaultSolverOptions()

	return Config{
		Rider: RiderConfig{
			FTP:      280,
			WPrime:   18000,
			BodyMass: 75,
		},
		Physics: PhysicsConfig{
			Gravity:    c.Gravity,
			Crr:        c.Crr,
			Rho:        c.Rho,
			CdA:        c.CdA,
			Efficiency: c.Efficiency,
			BikeMass:   c.BikeMass,
			WindMPH:    c.WindSpeed / pacing.MetersPerSecondPerMPH,
		},
		Policy: PolicyConfig{
			GradePivot:        p.GradePivot,
			GradeSensitivity:  p.GradeSensitivity,
			RecoveryTau:       p.RecoveryTau,
			SearchLow:         p.SearchLow,
			SearchHigh:        p.SearchHigh,
			SearchIterations:  p.SearchIterations,
			FactorTolerance:   p.FactorTolerance,
			FeasibilityMargin: p.FeasibilityMargin,
			SpeedIterations:   s.Iterations,
		},
		Course: CourseConfig{
			Source: "olh",
		},
		Display: DisplayConfig{
			DistanceUnit: "mi",
		},
	}
}

// Load reads the configuration from ~/.climbpacer/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path. Keys missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = "mi"
	}
	if cfg.Course.Source == "" {
		cfg.Course.Source = "olh"
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.climbpacer/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}

	return SaveTo(path, &example)
}

// Validate checks the planning settings. Strava credentials are optional here.
func (c *Config) Validate() error {
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	r := c.Rider
	if r.FTP <= 0 || r.WPrime <= 0 || r.BodyMass <= 0 {
		return fmt.Errorf("rider.ftp, rider.w_prime and rider.body_mass must be positive")
	}

	if c.Policy.SpeedIterations < 0 {
		return fmt.Errorf("policy.speed_iterations must not be negative, got %d", c.Policy.SpeedIterations)
	}

	return pacing.Validate(c.Rider.Profile(), pacing.NewCourse("check", []float64{0}),
		c.Constants(), c.PacingPolicy(), c.SolverOptions())
}

// ValidateStrava checks the Strava credentials needed for login and import
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

// Profile converts the rider defaults to a pacing profile
func (r RiderConfig) Profile() pacing.RiderProfile {
	return pacing.RiderProfile{FTP: r.FTP, WPrime: r.WPrime, BodyMass: r.BodyMass}
}

// Constants converts the physics section to simulation constants
func (c *Config) Constants() pacing.SimulationConstants {
	p := c.Physics
	return pacing.SimulationConstants{
		Gravity:    p.Gravity,
		Crr:        p.Crr,
		Rho:        p.Rho,
		CdA:        p.CdA,
		Efficiency: p.Efficiency,
		BikeMass:   p.BikeMass,
		WindSpeed:  p.WindMPH * pacing.MetersPerSecondPerMPH,
	}
}

// PacingPolicy converts the policy section
func (c *Config) PacingPolicy() pacing.Policy {
	p := c.Policy
	return pacing.Policy{
		GradePivot:        p.GradePivot,
		GradeSensitivity:  p.GradeSensitivity,
		RecoveryTau:       p.RecoveryTau,
		SearchLow:         p.SearchLow,
		SearchHigh:        p.SearchHigh,
		SearchIterations:  p.SearchIterations,
		FactorTolerance:   p.FactorTolerance,
		FeasibilityMargin: p.FeasibilityMargin,
	}
}

// SolverOptions returns the default solver with the configured iteration count
func (c *Config) SolverOptions() pacing.SolverOptions {
	s := pacing.DefaultSolverOptions()
	if c.Policy.SpeedIterations > 0 {
		s.Iterations = c.Policy.SpeedIterations
	}
	return s
}

// PlanOptions bundles the configured settings for pacing.ComputePacingPlan
func (c *Config) PlanOptions() []pacing.Option {
	return []pacing.Option{
		pacing.WithConstants(c.Constants()),
		pacing.WithPolicy(c.PacingPolicy()),
		pacing.WithSolverOptions(c.SolverOptions()),
	}
}

// UsesMiles reports whether distances should be shown in miles
func (c *Config) UsesMiles() bool {
	return strings.EqualFold(c.Display.DistanceUnit, "mi")
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".climbpacer"), nil
}
