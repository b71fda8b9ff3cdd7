package course

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"climb-pacer/internal/pacing"
)

// ErrUnknownCourse is returned when a course source is neither a built-in
// name nor a supported file
var ErrUnknownCourse = errors.New("unknown course")

// ErrCourseTooShort is returned when a track is shorter than half a segment
var ErrCourseTooShort = errors.New("course shorter than one segment")

var oldLaHondaGrades = []float64{
	0.04, 0.08, 0.08, 0.06, 0.07, 0.08, 0.07, 0.08,
	0.09, 0.07, 0.08, 0.07, 0.07, 0.08, 0.09, 0.10,
	0.06, 0.08, 0.07, 0.09, 0.08, 0.06, 0.05, 0.04,
}

// OldLaHonda returns the three mile Old La Honda Road climb in eighth-mile segments
func OldLaHonda() pacing.CourseProfile {
	return pacing.NewCourse("Old La Honda", oldLaHondaGrades)
}

var builtins = map[string]func() pacing.CourseProfile{
	"olh":          OldLaHonda,
	"old-la-honda": OldLaHonda,
}

// BuiltinNames lists the names accepted by Builtin
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a bundled course by name
func Builtin(name string) (pacing.CourseProfile, error) {
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return pacing.CourseProfile{}, fmt.Errorf("%w: %q", ErrUnknownCourse, name)
	}
	return fn(), nil
}

// Load resolves a course source: a built-in name, a .gpx track, or a .fit activity
func Load(source string) (pacing.CourseProfile, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".gpx":
		return LoadGPX(source)
	case ".fit":
		return LoadFIT(source)
	case "":
		return Builtin(source)
	default:
		return pacing.CourseProfile{}, fmt.Errorf("%w: unsupported file type %q", ErrUnknownCourse, source)
	}
}

// FromGrades builds a course from a list of segment grades
func FromGrades(name string, grades []float64) (pacing.CourseProfile, error) {
	if len(grades) == 0 {
		return pacing.CourseProfile{}, ErrCourseTooShort
	}
	for i, g := range grades {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return pacing.CourseProfile{}, fmt.Errorf("segment %d has invalid grade %v", i, g)
		}
	}
	return pacing.NewCourse(name, grades), nil
}

// FromElevationProfile resamples a cumulative distance / elevation series into
// fixed length segments. Each segment's grade is its rise over its run.
// A trailing remainder of at least half a segment becomes a final segment;
// anything shorter is dropped.
func FromElevationProfile(name string, distances, elevations []float64) (pacing.CourseProfile, error) {
	if len(distances) != len(elevations) {
		return pacing.CourseProfile{}, fmt.Errorf("got %d distances and %d elevations", len(distances), len(elevations))
	}

	d, e := cleanProfile(distances, elevations)
	if len(d) < 2 {
		return pacing.CourseProfile{}, ErrCourseTooShort
	}

	start, end := d[0], d[len(d)-1]
	total := end - start
	full := int(math.Floor(total / pacing.SegmentLengthMeters))
	remainder := total - float64(full)*pacing.SegmentLengthMeters

	var grades []float64
	for i := 0; i < full; i++ {
		from := start + float64(i)*pacing.SegmentLengthMeters
		to := from + pacing.SegmentLengthMeters
		grades = append(grades, (elevationAt(d, e, to)-elevationAt(d, e, from))/pacing.SegmentLengthMeters)
	}
	if remainder >= pacing.SegmentLengthMeters/2 {
		from := end - remainder
		grades = append(grades, (e[len(e)-1]-elevationAt(d, e, from))/remainder)
	}

	if len(grades) == 0 {
		return pacing.CourseProfile{}, ErrCourseTooShort
	}
	return FromGrades(name, grades)
}

// cleanProfile drops non-finite samples and any sample that does not advance
// the distance
func cleanProfile(distances, elevations []float64) ([]float64, []float64) {
	d := make([]float64, 0, len(distances))
	e := make([]float64, 0, len(elevations))
	for i := range distances {
		if !finite(distances[i]) || !finite(elevations[i]) {
			continue
		}
		if len(d) > 0 && distances[i] <= d[len(d)-1] {
			continue
		}
		d = append(d, distances[i])
		e = append(e, elevations[i])
	}
	return d, e
}

// elevationAt linearly interpolates the elevation at distance x
func elevationAt(d, e []float64, x float64) float64 {
	i := sort.SearchFloat64s(d, x)
	switch {
	case i == 0:
		return e[0]
	case i >= len(d):
		return e[len(e)-1]
	case d[i] == x:
		return e[i]
	}
	ratio := (x - d[i-1]) / (d[i] - d[i-1])
	return e[i-1] + (e[i]-e[i-1])*ratio
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Stats summarizes a course
type Stats struct {
	Segments        int
	DistanceMeters  float64
	ElevationGain   float64
	AverageGrade    float64
	MaxGrade        float64
	SteepestSegment int
}

// Summary computes distance, climbing, and grade statistics for a course
func Summary(c pacing.CourseProfile) Stats {
	s := Stats{Segments: len(c.Segments)}
	if len(c.Segments) == 0 {
		return s
	}

	rise := 0.0
	s.MaxGrade = math.Inf(-1)
	for i, seg := range c.Segments {
		s.DistanceMeters += seg.Length()
		r := seg.Grade * seg.Length()
		rise += r
		if r > 0 {
			s.ElevationGain += r
		}
		if seg.Grade > s.MaxGrade {
			s.MaxGrade = seg.Grade
			s.SteepestSegment = i
		}
	}
	s.AverageGrade = rise / s.DistanceMeters
	return s
}
