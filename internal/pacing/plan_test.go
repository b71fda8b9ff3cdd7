package pacing

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

var olhGrades = []float64{
	0.04, 0.08, 0.08, 0.06, 0.07, 0.08, 0.07, 0.08,
	0.09, 0.07, 0.08, 0.07, 0.07, 0.08, 0.09, 0.10,
	0.06, 0.08, 0.07, 0.09, 0.08, 0.06, 0.05, 0.04,
}

func defaultRider() RiderProfile {
	return RiderProfile{FTP: 280, WPrime: 18000, BodyMass: 75}
}

func simulateDefault(course CourseProfile, rider RiderProfile, factor float64) PacingPlan {
	return Simulate(course, rider, factor, DefaultConstants(), DefaultPolicy(), DefaultSolverOptions())
}

func TestComputePacingPlan_Scenario(t *testing.T) {
	course := NewCourse("olh", olhGrades)

	plan, err := ComputePacingPlan(defaultRider(), course)
	if err != nil {
		t.Fatalf("ComputePacingPlan() error = %v", err)
	}

	if len(plan.Segments) != len(olhGrades) {
		t.Fatalf("got %d segments, want %d", len(plan.Segments), len(olhGrades))
	}
	if !plan.Feasible {
		t.Error("plan should be feasible")
	}
	// ~20 minutes for 3.7 W/kg on a 3 mile, 7.3% climb
	if plan.TotalTimeSeconds < 1100 || plan.TotalTimeSeconds > 1350 {
		t.Errorf("TotalTimeSeconds = %v, want 1100-1350", plan.TotalTimeSeconds)
	}
	if plan.ScalingFactor <= 0.9 || plan.ScalingFactor >= 1.3 {
		t.Errorf("ScalingFactor = %v, want in (0.9, 1.3)", plan.ScalingFactor)
	}
	if first := plan.Segments[0]; first.TargetPower >= 280 {
		t.Errorf("first segment power = %v, want below FTP", first.TargetPower)
	}
	for i, s := range plan.Segments {
		if s.Index != i || s.Grade != olhGrades[i] {
			t.Errorf("segment %d out of order: %+v", i, s)
		}
		if s.WBalanceAfter < 0 {
			t.Errorf("segment %d reported balance %v below zero", i, s.WBalanceAfter)
		}
	}
}

func TestComputePacingPlan_Deterministic(t *testing.T) {
	course := NewCourse("olh", olhGrades)

	a, err := ComputePacingPlan(defaultRider(), course)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	b, err := ComputePacingPlan(defaultRider(), course)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	if a.ScalingFactor != b.ScalingFactor || a.TotalTimeSeconds != b.TotalTimeSeconds {
		t.Fatalf("plans differ: %v/%v vs %v/%v", a.ScalingFactor, a.TotalTimeSeconds, b.ScalingFactor, b.TotalTimeSeconds)
	}
	for i := range a.Segments {
		if a.Segments[i] != b.Segments[i] {
			t.Errorf("segment %d differs: %+v vs %+v", i, a.Segments[i], b.Segments[i])
		}
	}
}

func TestComputePacingPlan_Conservation(t *testing.T) {
	course := NewCourse("olh", olhGrades)

	plan, err := ComputePacingPlan(defaultRider(), course)
	if err != nil {
		t.Fatalf("ComputePacingPlan() error = %v", err)
	}

	sum := 0.0
	for _, s := range plan.Segments {
		sum += s.TimeSeconds
	}
	if sum != plan.TotalTimeSeconds {
		t.Errorf("sum of segment times = %v, TotalTimeSeconds = %v", sum, plan.TotalTimeSeconds)
	}
}

func TestComputePacingPlan_FeasibilityBound(t *testing.T) {
	course := NewCourse("olh", olhGrades)
	riders := []RiderProfile{
		defaultRider(),
		{FTP: 250, WPrime: 20000, BodyMass: 70},
		{FTP: 400, WPrime: 30000, BodyMass: 65},
	}

	for _, rider := range riders {
		plan, err := ComputePacingPlan(rider, course)
		if err != nil {
			t.Fatalf("rider %+v: error = %v", rider, err)
		}
		if plan.MinBalance < 0 {
			t.Errorf("rider %+v: MinBalance = %v, want >= 0", rider, plan.MinBalance)
		}
		// A slightly harder effort must blow up
		harder := simulateDefault(course, rider, plan.ScalingFactor+1e-3)
		if harder.Feasible {
			t.Errorf("rider %+v: factor %v still feasible, calibration stopped short", rider, harder.ScalingFactor)
		}
	}

	// The default rider finishes close to empty
	plan, _ := ComputePacingPlan(defaultRider(), course)
	if plan.MinBalance > 500 {
		t.Errorf("MinBalance = %v, want a near-empty finish", plan.MinBalance)
	}
}

func TestComputePacingPlan_Infeasible(t *testing.T) {
	// At the minimum factor 35% ramps still need more than FTP
	course := NewCourse("wall", []float64{0.35, 0.35, 0.35, 0.35})
	rider := RiderProfile{FTP: 280, WPrime: 500, BodyMass: 75}

	plan, err := ComputePacingPlan(rider, course)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("error = %v, want ErrInfeasible", err)
	}
	if plan == nil {
		t.Fatal("expected diagnostic plan with infeasible error")
	}
	if plan.Feasible {
		t.Error("diagnostic plan must be flagged infeasible")
	}
	if plan.ScalingFactor != DefaultPolicy().SearchLow {
		t.Errorf("ScalingFactor = %v, want search lower bound", plan.ScalingFactor)
	}
	if plan.MinBalance >= 0 {
		t.Errorf("MinBalance = %v, want negative", plan.MinBalance)
	}
	for _, s := range plan.Segments {
		if s.WBalanceAfter < 0 {
			t.Errorf("reported balance %v must be clamped", s.WBalanceAfter)
		}
	}
}

func TestComputePacingPlan_LowWPrimeStillPlans(t *testing.T) {
	// With every OLH segment below FTP at the minimum factor, a tiny W′ only
	// lowers the calibrated intensity.
	course := NewCourse("olh", olhGrades)
	rider := RiderProfile{FTP: 280, WPrime: 500, BodyMass: 75}

	plan, err := ComputePacingPlan(rider, course)
	if err != nil {
		t.Fatalf("ComputePacingPlan() error = %v", err)
	}
	full, _ := ComputePacingPlan(defaultRider(), course)
	if plan.ScalingFactor >= full.ScalingFactor {
		t.Errorf("low W′ factor %v should be below %v", plan.ScalingFactor, full.ScalingFactor)
	}
	if plan.MinBalance < 0 {
		t.Errorf("MinBalance = %v, want >= 0", plan.MinBalance)
	}
}

func TestComputePacingPlan_InvalidInput(t *testing.T) {
	course := NewCourse("olh", olhGrades)

	tests := []struct {
		name   string
		rider  RiderProfile
		course CourseProfile
		opts   []Option
	}{
		{"zero ftp", RiderProfile{FTP: 0, WPrime: 18000, BodyMass: 75}, course, nil},
		{"negative w prime", RiderProfile{FTP: 280, WPrime: -1, BodyMass: 75}, course, nil},
		{"zero mass", RiderProfile{FTP: 280, WPrime: 18000, BodyMass: 0}, course, nil},
		{"nan ftp", RiderProfile{FTP: math.NaN(), WPrime: 18000, BodyMass: 75}, course, nil},
		{"empty course", defaultRider(), CourseProfile{Name: "empty"}, nil},
		{"infinite grade", defaultRider(), NewCourse("bad", []float64{0.05, math.Inf(1)}), nil},
		{
			name:   "efficiency above one",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithConstants(func() SimulationConstants {
				c := DefaultConstants()
				c.Efficiency = 1.2
				return c
			}())},
		},
		{
			name:   "inverted search bounds",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithPolicy(func() Policy {
				p := DefaultPolicy()
				p.SearchLow, p.SearchHigh = 1.5, 0.7
				return p
			}())},
		},
		{
			name:   "zero tau",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithPolicy(func() Policy {
				p := DefaultPolicy()
				p.RecoveryTau = 0
				return p
			}())},
		},
		{
			name:   "infinite gravity",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithConstants(func() SimulationConstants {
				c := DefaultConstants()
				c.Gravity = math.Inf(1)
				return c
			}())},
		},
		{
			name:   "infinite search ceiling",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithPolicy(func() Policy {
				p := DefaultPolicy()
				p.SearchHigh = math.Inf(1)
				return p
			}())},
		},
		{
			name:   "infinite max speed",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithSolverOptions(func() SolverOptions {
				s := DefaultSolverOptions()
				s.MaxSpeed = math.Inf(1)
				return s
			}())},
		},
		{
			name:   "infinite seed speed",
			rider:  defaultRider(),
			course: course,
			opts: []Option{WithSolverOptions(func() SolverOptions {
				s := DefaultSolverOptions()
				s.SeedSpeed = math.Inf(1)
				return s
			}())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputePacingPlan(tt.rider, tt.course, tt.opts...)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
			if plan != nil {
				t.Errorf("plan = %+v, want nil", plan)
			}
		})
	}
}

func TestComputePacingPlan_Options(t *testing.T) {
	course := NewCourse("olh", olhGrades)

	base, err := ComputePacingPlan(defaultRider(), course)
	if err != nil {
		t.Fatalf("base error = %v", err)
	}

	c := DefaultConstants()
	c.WindSpeed = 0
	calm, err := ComputePacingPlan(defaultRider(), course, WithConstants(c))
	if err != nil {
		t.Fatalf("calm error = %v", err)
	}
	if calm.TotalTimeSeconds >= base.TotalTimeSeconds {
		t.Errorf("no headwind should be faster: %v vs %v", calm.TotalTimeSeconds, base.TotalTimeSeconds)
	}

	p := DefaultPolicy()
	p.FeasibilityMargin = 2000
	safe, err := ComputePacingPlan(defaultRider(), course, WithPolicy(p))
	if err != nil {
		t.Fatalf("margin error = %v", err)
	}
	if safe.MinBalance < 2000 {
		t.Errorf("MinBalance = %v, want >= margin 2000", safe.MinBalance)
	}
	if safe.ScalingFactor >= base.ScalingFactor {
		t.Errorf("margin should lower the factor: %v vs %v", safe.ScalingFactor, base.ScalingFactor)
	}
}

func TestSimulate_FlatSingleSegment(t *testing.T) {
	course := NewCourse("flat", []float64{0})
	rider := RiderProfile{FTP: 280, WPrime: 50000, BodyMass: 75}

	plan := simulateDefault(course, rider, 1.0)
	s := plan.Segments[0]
	if s.TargetPower >= rider.FTP {
		t.Errorf("TargetPower = %v, want below FTP", s.TargetPower)
	}
	if s.WBalanceAfter != rider.WPrime {
		t.Errorf("WBalanceAfter = %v, want full reserve %v", s.WBalanceAfter, rider.WPrime)
	}
	if !plan.Feasible {
		t.Error("flat course should be feasible")
	}
}

func TestSimulate_RecoveryAfterEffort(t *testing.T) {
	course := NewCourse("kicker", []float64{0.12, 0, 0, 0})
	plan := simulateDefault(course, defaultRider(), 1.0)

	if plan.Segments[0].WBalanceAfter >= 18000 {
		t.Fatalf("steep kicker should drain W′, got %v", plan.Segments[0].WBalanceAfter)
	}
	for i := 1; i < len(plan.Segments); i++ {
		if plan.Segments[i].WBalanceAfter <= plan.Segments[i-1].WBalanceAfter {
			t.Errorf("segment %d: balance %v did not recover from %v",
				i, plan.Segments[i].WBalanceAfter, plan.Segments[i-1].WBalanceAfter)
		}
	}
	if plan.MinBalance != plan.Segments[0].WBalanceAfter {
		t.Errorf("MinBalance = %v, want %v", plan.MinBalance, plan.Segments[0].WBalanceAfter)
	}
}

func TestSimulate_DoesNotMutateCourse(t *testing.T) {
	grades := append([]float64(nil), olhGrades...)
	course := NewCourse("olh", grades)
	simulateDefault(course, defaultRider(), 1.2)

	for i, s := range course.Segments {
		if s.Grade != olhGrades[i] {
			t.Fatalf("segment %d grade changed to %v", i, s.Grade)
		}
	}
}

func TestSimulate_MonotonicInFactor(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	riders := []RiderProfile{
		defaultRider(),
		{FTP: 200, WPrime: 12000, BodyMass: 90},
		{FTP: 400, WPrime: 30000, BodyMass: 65},
		{FTP: 250, WPrime: 8000, BodyMass: 60},
	}

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(30)
		grades := make([]float64, n)
		for i := range grades {
			grades[i] = -0.05 + rng.Float64()*0.17
		}
		course := NewCourse("random", grades)
		rider := riders[trial%len(riders)]

		prev := simulateDefault(course, rider, 0.7)
		for factor := 0.75; factor <= 1.5; factor += 0.05 {
			cur := simulateDefault(course, rider, factor)
			if cur.FinalBalance > prev.FinalBalance {
				t.Fatalf("trial %d: final W′ rose from %v to %v at factor %.2f (grades %v)",
					trial, prev.FinalBalance, cur.FinalBalance, factor, grades)
			}
			if cur.MinBalance > prev.MinBalance {
				t.Fatalf("trial %d: min W′ rose from %v to %v at factor %.2f",
					trial, prev.MinBalance, cur.MinBalance, factor)
			}
			prev = cur
		}
	}
}

func TestSimulate_StrictlyDecreasingAboveThreshold(t *testing.T) {
	// From factor 1.0 up, the OLH ramps are ridden above FTP
	course := NewCourse("olh", olhGrades)

	prev := simulateDefault(course, defaultRider(), 1.0)
	for factor := 1.05; factor <= 1.5; factor += 0.05 {
		cur := simulateDefault(course, defaultRider(), factor)
		if cur.FinalBalance >= prev.FinalBalance {
			t.Errorf("factor %.2f: final W′ %v not below %v", factor, cur.FinalBalance, prev.FinalBalance)
		}
		prev = cur
	}
}

func TestCalibrate_EarlyExit(t *testing.T) {
	course := NewCourse("olh", olhGrades)
	p := DefaultPolicy()
	p.FactorTolerance = 0.01

	coarse, err := Calibrate(course, defaultRider(), DefaultConstants(), p, DefaultSolverOptions())
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	fine, err := Calibrate(course, defaultRider(), DefaultConstants(), DefaultPolicy(), DefaultSolverOptions())
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	if coarse > fine {
		t.Errorf("coarse factor %v above fine factor %v", coarse, fine)
	}
	if fine-coarse > 0.01 {
		t.Errorf("coarse factor %v more than tolerance below %v", coarse, fine)
	}
}

func TestPacingPlan_Aggregates(t *testing.T) {
	plan := PacingPlan{
		TotalTimeSeconds: 100,
		Segments: []SegmentResult{
			{TargetPower: 200, TimeSeconds: 40},
			{TargetPower: 300, TimeSeconds: 60, Clamped: true},
		},
	}

	if got := plan.AveragePower(); math.Abs(got-260) > 1e-9 {
		t.Errorf("AveragePower() = %v, want 260", got)
	}
	if got := plan.ClampedSegments(); got != 1 {
		t.Errorf("ClampedSegments() = %v, want 1", got)
	}
	wantSpeed := 2 * SegmentLengthMeters / 100
	if got := plan.AverageSpeed(); math.Abs(got-wantSpeed) > 1e-9 {
		t.Errorf("AverageSpeed() = %v, want %v", got, wantSpeed)
	}

	empty := PacingPlan{}
	if empty.AveragePower() != 0 || empty.AverageSpeed() != 0 {
		t.Error("empty plan aggregates should be zero")
	}
}
