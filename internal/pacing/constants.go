package pacing

import "math"

const (
	// MetersPerMile is the statute mile in meters
	MetersPerMile = 1609.344

	// SegmentLengthMeters is the fixed length of every course segment (1/8 mile)
	SegmentLengthMeters = MetersPerMile / 8

	// MetersPerSecondPerMPH converts miles per hour to m/s
	MetersPerSecondPerMPH = 0.44704
)

// SimulationConstants holds the physical constants used by the speed solver.
// Values are copied into each simulation and never modified during a run.
type SimulationConstants struct {
	Gravity    float64 // m/s²
	Crr        float64 // rolling resistance coefficient
	Rho        float64 // air density, kg/m³
	CdA        float64 // drag coefficient × frontal area, m²
	Efficiency float64 // drivetrain efficiency (0, 1]
	BikeMass   float64 // kg
	WindSpeed  float64 // headwind, m/s (negative = tailwind)
}

// DefaultConstants returns sea-level constants for a road bike with a 4 mph headwind
func DefaultConstants() SimulationConstants {
	return SimulationConstants{
		Gravity:    9.81,
		Crr:        0.005,
		Rho:        1.225,
		CdA:        0.38,
		Efficiency: 0.96,
		BikeMass:   8,
		WindSpeed:  4 * MetersPerSecondPerMPH,
	}
}

// Policy holds the tunable pacing policy: how power follows grade, how W′
// recovers, and how the intensity search is bounded.
type Policy struct {
	// Power assignment
	GradePivot       float64 // grade at which target power equals FTP × factor
	GradeSensitivity float64 // fractional power change per unit of grade

	// W′ recovery time constant in seconds
	RecoveryTau float64

	// Intensity search
	SearchLow         float64
	SearchHigh        float64
	SearchIterations  int
	FactorTolerance   float64 // stop early once the bracket is narrower; 0 disables
	FeasibilityMargin float64 // minimum W′ (J) that must remain on every segment
}

// DefaultPolicy returns the canonical pacing policy
func DefaultPolicy() Policy {
	return Policy{
		GradePivot:        0.075,
		GradeSensitivity:  2.0,
		RecoveryTau:       300,
		SearchLow:         0.7,
		SearchHigh:        1.5,
		SearchIterations:  15,
		FactorTolerance:   0,
		FeasibilityMargin: 0,
	}
}

// SolverOptions controls the per-segment speed solver
type SolverOptions struct {
	SeedSpeed         float64 // m/s, starting point for fixed-point iteration
	Iterations        int     // fixed-point iterations
	StepTolerance     float64 // relative step below which iteration stops early
	ResidualTolerance float64 // accepted relative power-balance error
	MinSpeed          float64 // m/s, lower clamp
	MaxSpeed          float64 // m/s, upper clamp and bisection bracket
	BisectionSteps    int
}

// DefaultSolverOptions returns the solver settings used for planning
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		SeedSpeed:         3.5,
		Iterations:        7,
		StepTolerance:     1e-9,
		ResidualTolerance: 0.005,
		MinSpeed:          0.5,
		MaxSpeed:          40,
		BisectionSteps:    60,
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
