package pacing

import "fmt"

// Calibrate bisects the scaling factor between the policy search bounds and
// returns the largest factor found whose simulation keeps W′ at or above the
// feasibility margin on every segment.
//
// Bisection relies on the reserve being non-increasing in the factor: a
// higher factor raises power on every segment, which drains more above FTP
// and shortens recovery below it.
func Calibrate(course CourseProfile, rider RiderProfile, c SimulationConstants, p Policy, opts SolverOptions) (float64, error) {
	low, high := p.SearchLow, p.SearchHigh

	if plan := Simulate(course, rider, low, c, p, opts); !plan.Feasible {
		return low, fmt.Errorf("%w: W′ reaches %.0f J at the minimum factor %.2f",
			ErrInfeasible, plan.MinBalance, low)
	}

	for i := 0; i < p.SearchIterations; i++ {
		if p.FactorTolerance > 0 && high-low < p.FactorTolerance {
			break
		}

		mid := (low + high) / 2
		if Simulate(course, rider, mid, c, p, opts).Feasible {
			low = mid
		} else {
			high = mid
		}
	}

	return low, nil
}
