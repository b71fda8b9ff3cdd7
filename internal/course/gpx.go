package course

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"climb-pacer/internal/pacing"
)

// LoadGPX reads a GPX track or route and resamples it into a course
func LoadGPX(path string) (pacing.CourseProfile, error) {
	gpxFile, err := gpx.ParseFile(path)
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("parsing GPX file: %w", err)
	}
	return fromGPX(gpxFile, trackName(gpxFile, path))
}

// ParseGPX builds a course from GPX document bytes
func ParseGPX(name string, data []byte) (pacing.CourseProfile, error) {
	gpxFile, err := gpx.ParseBytes(data)
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("parsing GPX data: %w", err)
	}
	return fromGPX(gpxFile, name)
}

func fromGPX(g *gpx.GPX, name string) (pacing.CourseProfile, error) {
	var distances, elevations []float64
	var previous *gpx.GPXPoint
	total := 0.0

	add := func(p *gpx.GPXPoint) {
		if !p.Elevation.NotNull() {
			return
		}
		if previous != nil {
			// Grade is rise over horizontal run
			total += previous.Distance2D(p)
		}
		distances = append(distances, total)
		elevations = append(elevations, p.Elevation.Value())

		pCopy := *p
		previous = &pCopy
	}

	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			for i := range segment.Points {
				add(&segment.Points[i])
			}
		}
	}
	if len(distances) == 0 {
		for _, route := range g.Routes {
			for i := range route.Points {
				add(&route.Points[i])
			}
		}
	}

	if len(distances) < 2 {
		return pacing.CourseProfile{}, fmt.Errorf("GPX has no points with elevation: %w", ErrCourseTooShort)
	}
	return FromElevationProfile(name, distances, elevations)
}

func trackName(g *gpx.GPX, path string) string {
	if len(g.Tracks) > 0 && g.Tracks[0].Name != "" {
		return g.Tracks[0].Name
	}
	if g.Name != "" {
		return g.Name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
