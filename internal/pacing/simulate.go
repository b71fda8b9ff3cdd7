package pacing

// Simulate rides the course once at a fixed scaling factor.
// Segments are processed strictly in order since each W′ update depends on
// the previous one. The full course is always simulated.
func Simulate(course CourseProfile, rider RiderProfile, scalingFactor float64, c SimulationConstants, p Policy, opts SolverOptions) PacingPlan {
	mass := rider.BodyMass + c.BikeMass
	balance := rider.WPrime
	minBalance := rider.WPrime
	totalTime := 0.0

	results := make([]SegmentResult, 0, len(course.Segments))
	for i, seg := range course.Segments {
		power := AssignTargetPower(seg.Grade, rider.FTP, scalingFactor, p)
		solved := SolveSegment(seg.Grade, power, mass, c, opts)
		balance = UpdateBalance(balance, power, rider.FTP, rider.WPrime, solved.TimeSeconds, p.RecoveryTau)
		if balance < minBalance {
			minBalance = balance
		}

		results = append(results, SegmentResult{
			Index:         i,
			Grade:         seg.Grade,
			TargetPower:   power,
			Speed:         solved.Speed,
			WBalanceAfter: ReportedBalance(balance),
			TimeSeconds:   solved.TimeSeconds,
			Clamped:       solved.Clamped,
		})
		totalTime += solved.TimeSeconds
	}

	return PacingPlan{
		ScalingFactor:    scalingFactor,
		TotalTimeSeconds: totalTime,
		FinalBalance:     balance,
		MinBalance:       minBalance,
		Feasible:         minBalance >= p.FeasibilityMargin,
		Segments:         results,
	}
}
