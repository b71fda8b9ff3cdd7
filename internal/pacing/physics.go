package pacing

import "math"

// SegmentSpeed is the solver output for one segment
type SegmentSpeed struct {
	Speed       float64 // m/s
	TimeSeconds float64
	Clamped     bool
}

// resistance returns the total resistive force (N) at ground speed v.
// Gravity assists (negative) on descents; drag acts on airspeed v + wind.
func resistance(grade, mass, v float64, c SimulationConstants) float64 {
	fGravity := mass * c.Gravity * grade
	fRolling := mass * c.Gravity * c.Crr
	air := v + c.WindSpeed
	fDrag := 0.5 * c.Rho * c.CdA * air * air
	return fGravity + fRolling + fDrag
}

// SolveSegment converts a target power into a steady-state speed and the
// time needed to cover one segment.
//
// The fixed-point iteration v = Pw / F(v) converges quickly on climbs, where
// gravity dominates F. On flat and downhill grades the map can oscillate or F
// can drop to zero, so a result that does not balance power within
// ResidualTolerance is replaced by a bisection solve of v·F(v) = Pw.
func SolveSegment(grade, targetPower, mass float64, c SimulationConstants, opts SolverOptions) SegmentSpeed {
	wheelPower := targetPower * c.Efficiency
	if !(wheelPower > 0) {
		return segmentSpeed(opts.MinSpeed, true)
	}

	v := opts.SeedSpeed
	for i := 0; i < opts.Iterations; i++ {
		f := resistance(grade, mass, v, c)
		if f <= 0 {
			v = math.NaN()
			break
		}
		next := wheelPower / f
		step := math.Abs(next - v)
		v = next
		if step <= opts.StepTolerance*v {
			break
		}
	}

	if v > 0 && isFinite(v) && balanced(grade, mass, v, wheelPower, c, opts.ResidualTolerance) {
		return clampSpeed(v, opts)
	}

	return clampSpeed(bisectSpeed(grade, mass, wheelPower, c, opts), opts)
}

// balanced reports whether v produces wheelPower within the relative tolerance
func balanced(grade, mass, v, wheelPower float64, c SimulationConstants, tol float64) bool {
	residual := v*resistance(grade, mass, v, c) - wheelPower
	return math.Abs(residual) <= tol*wheelPower
}

// bisectSpeed finds the positive root of v·F(v) − Pw on [0, MaxSpeed].
// For Pw > 0 the function starts negative at v = 0 and crosses zero once.
func bisectSpeed(grade, mass, wheelPower float64, c SimulationConstants, opts SolverOptions) float64 {
	low, high := 0.0, opts.MaxSpeed
	if high*resistance(grade, mass, high, c) < wheelPower {
		return high
	}

	for i := 0; i < opts.BisectionSteps; i++ {
		mid := (low + high) / 2
		if mid*resistance(grade, mass, mid, c) < wheelPower {
			low = mid
		} else {
			high = mid
		}
	}

	return (low + high) / 2
}

func clampSpeed(v float64, opts SolverOptions) SegmentSpeed {
	switch {
	case !isFinite(v) || v < opts.MinSpeed:
		return segmentSpeed(opts.MinSpeed, true)
	case v >= opts.MaxSpeed:
		return segmentSpeed(opts.MaxSpeed, true)
	}
	return segmentSpeed(v, false)
}

func segmentSpeed(v float64, clamped bool) SegmentSpeed {
	return SegmentSpeed{
		Speed:       v,
		TimeSeconds: SegmentLengthMeters / v,
		Clamped:     clamped,
	}
}
