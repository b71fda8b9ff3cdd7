package pacing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when rider, course, or settings are unusable
var ErrInvalidInput = errors.New("invalid input")

// ErrInfeasible is returned when the rider cannot finish the course without
// exhausting W′, even at the lowest modeled intensity
var ErrInfeasible = errors.New("pacing infeasible")

type planOptions struct {
	constants SimulationConstants
	policy    Policy
	solver    SolverOptions
}

// Option customizes ComputePacingPlan
type Option func(*planOptions)

// WithConstants overrides the physical constants
func WithConstants(c SimulationConstants) Option {
	return func(o *planOptions) { o.constants = c }
}

// WithPolicy overrides the pacing policy
func WithPolicy(p Policy) Option {
	return func(o *planOptions) { o.policy = p }
}

// WithSolverOptions overrides the speed solver settings
func WithSolverOptions(s SolverOptions) Option {
	return func(o *planOptions) { o.solver = s }
}

// ComputePacingPlan calibrates the intensity for the rider on the course and
// returns the resulting plan.
//
// If no factor in the search range keeps W′ non-negative, the plan at the
// lowest factor is returned together with an error wrapping ErrInfeasible.
// The plan's Feasible field is false in that case.
func ComputePacingPlan(rider RiderProfile, course CourseProfile, opts ...Option) (*PacingPlan, error) {
	o := planOptions{
		constants: DefaultConstants(),
		policy:    DefaultPolicy(),
		solver:    DefaultSolverOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := Validate(rider, course, o.constants, o.policy, o.solver); err != nil {
		return nil, err
	}

	factor, calErr := Calibrate(course, rider, o.constants, o.policy, o.solver)
	plan := Simulate(course, rider, factor, o.constants, o.policy, o.solver)
	if calErr != nil {
		return &plan, calErr
	}

	return &plan, nil
}

// Validate checks every input to a planning request
func Validate(rider RiderProfile, course CourseProfile, c SimulationConstants, p Policy, s SolverOptions) error {
	if err := validateRider(rider); err != nil {
		return err
	}
	if err := validateCourse(course); err != nil {
		return err
	}
	if err := validateConstants(c); err != nil {
		return err
	}
	if err := validatePolicy(p); err != nil {
		return err
	}
	return validateSolver(s)
}

func validateRider(r RiderProfile) error {
	if !(r.FTP > 0) || !isFinite(r.FTP) {
		return fmt.Errorf("%w: ftp must be positive, got %v", ErrInvalidInput, r.FTP)
	}
	if !(r.WPrime > 0) || !isFinite(r.WPrime) {
		return fmt.Errorf("%w: w′ must be positive, got %v", ErrInvalidInput, r.WPrime)
	}
	if !(r.BodyMass > 0) || !isFinite(r.BodyMass) {
		return fmt.Errorf("%w: body mass must be positive, got %v", ErrInvalidInput, r.BodyMass)
	}
	return nil
}

func validateCourse(c CourseProfile) error {
	if len(c.Segments) == 0 {
		return fmt.Errorf("%w: course has no segments", ErrInvalidInput)
	}
	for i, s := range c.Segments {
		if !isFinite(s.Grade) {
			return fmt.Errorf("%w: segment %d grade is %v", ErrInvalidInput, i, s.Grade)
		}
	}
	return nil
}

func validateConstants(c SimulationConstants) error {
	switch {
	case !(c.Gravity > 0) || !isFinite(c.Gravity):
		return fmt.Errorf("%w: gravity must be positive and finite, got %v", ErrInvalidInput, c.Gravity)
	case !(c.Efficiency > 0) || c.Efficiency > 1:
		return fmt.Errorf("%w: efficiency must be in (0, 1], got %v", ErrInvalidInput, c.Efficiency)
	case c.Crr < 0 || c.Rho < 0 || c.CdA < 0:
		return fmt.Errorf("%w: crr, rho and cda must not be negative", ErrInvalidInput)
	case c.BikeMass < 0:
		return fmt.Errorf("%w: bike mass must not be negative, got %v", ErrInvalidInput, c.BikeMass)
	case !isFinite(c.Crr) || !isFinite(c.Rho) || !isFinite(c.CdA) || !isFinite(c.BikeMass) || !isFinite(c.WindSpeed):
		return fmt.Errorf("%w: physical constants must be finite", ErrInvalidInput)
	}
	return nil
}

func validatePolicy(p Policy) error {
	switch {
	case !isFinite(p.GradePivot) || !isFinite(p.GradeSensitivity):
		return fmt.Errorf("%w: grade policy must be finite", ErrInvalidInput)
	case !(p.RecoveryTau > 0) || !isFinite(p.RecoveryTau):
		return fmt.Errorf("%w: recovery tau must be positive and finite, got %v", ErrInvalidInput, p.RecoveryTau)
	case !(p.SearchLow > 0) || !(p.SearchHigh > p.SearchLow) || !isFinite(p.SearchHigh):
		return fmt.Errorf("%w: search bounds must satisfy 0 < low < high, got [%v, %v]",
			ErrInvalidInput, p.SearchLow, p.SearchHigh)
	case p.SearchIterations <= 0:
		return fmt.Errorf("%w: search iterations must be positive, got %d", ErrInvalidInput, p.SearchIterations)
	case p.FactorTolerance < 0 || !isFinite(p.FeasibilityMargin):
		return fmt.Errorf("%w: invalid factor tolerance or feasibility margin", ErrInvalidInput)
	}
	return nil
}

func validateSolver(s SolverOptions) error {
	switch {
	case s.Iterations < 0 || s.BisectionSteps <= 0:
		return fmt.Errorf("%w: solver iteration counts must be positive", ErrInvalidInput)
	case !(s.MinSpeed > 0) || !(s.MaxSpeed > s.MinSpeed) || !isFinite(s.MaxSpeed):
		return fmt.Errorf("%w: solver speed range must satisfy 0 < min < max < +Inf", ErrInvalidInput)
	case !(s.SeedSpeed > 0) || !isFinite(s.SeedSpeed) || s.ResidualTolerance < 0 || !isFinite(s.ResidualTolerance):
		return fmt.Errorf("%w: solver seed must be positive and finite, tolerance non-negative", ErrInvalidInput)
	}
	return nil
}
