package pacing

// AssignTargetPower returns the planned power for a segment. Power rises on
// grades steeper than the policy pivot and falls on shallower ones.
func AssignTargetPower(grade, ftp, scalingFactor float64, p Policy) float64 {
	return ftp * (1 + (grade-p.GradePivot)*p.GradeSensitivity) * scalingFactor
}
