package pacing

// RiderProfile describes the rider's power capability and body mass
type RiderProfile struct {
	FTP      float64 // functional threshold power, watts
	WPrime   float64 // anaerobic work capacity, joules
	BodyMass float64 // kg
}

// Segment is a fixed-length slice of a course with constant grade
type Segment struct {
	Grade float64 // fractional slope, 0.08 = 8%
}

// Length returns the segment length in meters
func (s Segment) Length() float64 {
	return SegmentLengthMeters
}

// CourseProfile is an ordered list of segments in riding order
type CourseProfile struct {
	Name     string
	Segments []Segment
}

// NewCourse builds a course from a list of grades
func NewCourse(name string, grades []float64) CourseProfile {
	segments := make([]Segment, len(grades))
	for i, g := range grades {
		segments[i] = Segment{Grade: g}
	}
	return CourseProfile{Name: name, Segments: segments}
}

// Grades returns the grade of every segment in order
func (c CourseProfile) Grades() []float64 {
	grades := make([]float64, len(c.Segments))
	for i, s := range c.Segments {
		grades[i] = s.Grade
	}
	return grades
}

// DistanceMeters returns the total course length
func (c CourseProfile) DistanceMeters() float64 {
	return float64(len(c.Segments)) * SegmentLengthMeters
}

// SegmentResult is the planned effort for one segment
type SegmentResult struct {
	Index         int
	Grade         float64
	TargetPower   float64 // watts
	Speed         float64 // m/s
	WBalanceAfter float64 // joules, clamped to >= 0 for reporting
	TimeSeconds   float64
	Clamped       bool // speed came from the min/max speed guard
}

// PacingPlan is the result of a simulation pass
type PacingPlan struct {
	ScalingFactor    float64
	TotalTimeSeconds float64
	FinalBalance     float64 // internal W′ after the last segment, may be negative
	MinBalance       float64 // lowest internal W′ after any segment
	Feasible         bool
	Segments         []SegmentResult
}

// ClampedSegments counts segments whose speed hit the solver guard
func (p *PacingPlan) ClampedSegments() int {
	n := 0
	for _, s := range p.Segments {
		if s.Clamped {
			n++
		}
	}
	return n
}

// AveragePower returns the time-weighted mean target power
func (p *PacingPlan) AveragePower() float64 {
	if p.TotalTimeSeconds <= 0 {
		return 0
	}
	var work float64
	for _, s := range p.Segments {
		work += s.TargetPower * s.TimeSeconds
	}
	return work / p.TotalTimeSeconds
}

// AverageSpeed returns course distance over total time in m/s
func (p *PacingPlan) AverageSpeed() float64 {
	if p.TotalTimeSeconds <= 0 {
		return 0
	}
	return float64(len(p.Segments)) * SegmentLengthMeters / p.TotalTimeSeconds
}
