package course

import (
	"errors"
	"math"
	"testing"

	"climb-pacer/internal/pacing"
)

func TestOldLaHonda(t *testing.T) {
	c := OldLaHonda()

	if len(c.Segments) != 24 {
		t.Fatalf("got %d segments, want 24", len(c.Segments))
	}
	if math.Abs(c.DistanceMeters()-3*pacing.MetersPerMile) > 1e-6 {
		t.Errorf("distance = %v, want 3 miles", c.DistanceMeters())
	}

	s := Summary(c)
	if s.MaxGrade != 0.10 || s.SteepestSegment != 15 {
		t.Errorf("steepest = %v at %d, want 0.10 at 15", s.MaxGrade, s.SteepestSegment)
	}
	if math.Abs(s.AverageGrade-0.0725) > 1e-9 {
		t.Errorf("AverageGrade = %v, want 0.0725", s.AverageGrade)
	}
	// ~350 m of climbing
	if s.ElevationGain < 340 || s.ElevationGain > 360 {
		t.Errorf("ElevationGain = %v, want ~350", s.ElevationGain)
	}

	// Callers get their own copy
	c.Segments[0].Grade = 1
	if OldLaHonda().Segments[0].Grade != 0.04 {
		t.Error("built-in course was mutated through a returned profile")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		source  string
		wantErr error
	}{
		{"olh", nil},
		{"OLH", nil},
		{"old-la-honda", nil},
		{"alpe", ErrUnknownCourse},
		{"climb.tcx", ErrUnknownCourse},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c, err := Load(tt.source)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(c.Segments) != 24 {
				t.Errorf("got %d segments, want 24", len(c.Segments))
			}
		})
	}

	if _, err := Load("/does/not/exist.gpx"); err == nil {
		t.Error("expected error for missing GPX file")
	}
}

func TestFromGrades(t *testing.T) {
	if _, err := FromGrades("empty", nil); !errors.Is(err, ErrCourseTooShort) {
		t.Errorf("empty grades error = %v, want ErrCourseTooShort", err)
	}
	if _, err := FromGrades("nan", []float64{0.05, math.NaN()}); err == nil {
		t.Error("expected error for NaN grade")
	}

	c, err := FromGrades("mixed", []float64{-0.02, 0, 0.11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "mixed" || len(c.Segments) != 3 || c.Segments[2].Grade != 0.11 {
		t.Errorf("unexpected course %+v", c)
	}
}

func TestFromElevationProfile(t *testing.T) {
	L := pacing.SegmentLengthMeters

	ramp := func(length, grade float64) ([]float64, []float64) {
		var d, e []float64
		for x := 0.0; x <= length+1e-9; x += L / 4 {
			d = append(d, x)
			e = append(e, 200+grade*x)
		}
		if last := d[len(d)-1]; last < length {
			d = append(d, length)
			e = append(e, 200+grade*length)
		}
		return d, e
	}

	tests := []struct {
		name         string
		length       float64
		wantSegments int
	}{
		{"whole segments", 3 * L, 3},
		{"long remainder kept", 2.6 * L, 3},
		{"short remainder dropped", 2.3 * L, 2},
		{"half segment", 0.5 * L, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, e := ramp(tt.length, 0.06)
			c, err := FromElevationProfile("ramp", d, e)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(c.Segments) != tt.wantSegments {
				t.Fatalf("got %d segments, want %d", len(c.Segments), tt.wantSegments)
			}
			for i, s := range c.Segments {
				if math.Abs(s.Grade-0.06) > 1e-9 {
					t.Errorf("segment %d grade = %v, want 0.06", i, s.Grade)
				}
			}
		})
	}
}

func TestFromElevationProfile_Interpolates(t *testing.T) {
	L := pacing.SegmentLengthMeters
	// Flat first segment, then 10% with samples that straddle the boundary
	d := []float64{0, 0.7 * L, 1.3 * L, 2 * L}
	e := []float64{50, 50, 50 + 0.3*L*0.1, 50 + L*0.1}

	c, err := FromElevationProfile("step", d, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(c.Segments))
	}
	// Boundary at 1.0 L interpolates between 0.7 L and 1.3 L
	wantFirst := (0.15 * L * 0.1) / L
	if math.Abs(c.Segments[0].Grade-wantFirst) > 1e-9 {
		t.Errorf("first grade = %v, want %v", c.Segments[0].Grade, wantFirst)
	}
	wantSecond := (L*0.1 - 0.15*L*0.1) / L
	if math.Abs(c.Segments[1].Grade-wantSecond) > 1e-9 {
		t.Errorf("second grade = %v, want %v", c.Segments[1].Grade, wantSecond)
	}
}

func TestFromElevationProfile_Errors(t *testing.T) {
	L := pacing.SegmentLengthMeters

	tests := []struct {
		name string
		d, e []float64
	}{
		{"mismatched", []float64{0, 1}, []float64{0}},
		{"single point", []float64{0}, []float64{0}},
		{"too short", []float64{0, 0.2 * L}, []float64{0, 5}},
		{"stalled", []float64{10, 10, 10}, []float64{0, 1, 2}},
		{"all nan", []float64{math.NaN(), math.NaN()}, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromElevationProfile("bad", tt.d, tt.e); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSummary_Empty(t *testing.T) {
	s := Summary(pacing.CourseProfile{})
	if s.Segments != 0 || s.DistanceMeters != 0 || s.AverageGrade != 0 {
		t.Errorf("Summary(empty) = %+v", s)
	}
}

func TestSummary_Descent(t *testing.T) {
	c := pacing.NewCourse("rollers", []float64{0.05, -0.05, 0.02})
	s := Summary(c)

	want := (0.05 + 0.02) * pacing.SegmentLengthMeters
	if math.Abs(s.ElevationGain-want) > 1e-9 {
		t.Errorf("ElevationGain = %v, want %v", s.ElevationGain, want)
	}
	if math.Abs(s.AverageGrade-0.02/3) > 1e-12 {
		t.Errorf("AverageGrade = %v, want %v", s.AverageGrade, 0.02/3)
	}
}
