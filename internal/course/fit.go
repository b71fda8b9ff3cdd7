package course

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormoder/fit"

	"climb-pacer/internal/pacing"
)

// LoadFIT builds a course from the distance and altitude records of a
// recorded activity
func LoadFIT(path string) (pacing.CourseProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return decodeFIT(name, f)
}

// ParseFIT builds a course from FIT file bytes
func ParseFIT(name string, data []byte) (pacing.CourseProfile, error) {
	return decodeFIT(name, bytes.NewReader(data))
}

func decodeFIT(name string, r io.Reader) (pacing.CourseProfile, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("activity FIT expected: %w", err)
	}

	var distances, elevations []float64
	for _, rec := range activity.Records {
		distance := rec.GetDistanceScaled()
		altitude, ok := extractAltitude(rec)
		if !ok || math.IsNaN(distance) {
			continue
		}
		distances = append(distances, distance)
		elevations = append(elevations, altitude)
	}

	if len(distances) < 2 {
		return pacing.CourseProfile{}, fmt.Errorf("FIT has no records with distance and altitude: %w", ErrCourseTooShort)
	}
	return FromElevationProfile(name, distances, elevations)
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if finite(alt) {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if finite(alt) {
		return alt, true
	}
	return 0, false
}
