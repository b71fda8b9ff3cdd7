package service

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// formatDuration formats seconds as "H:MM:SS" or "M:SS"
func formatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatJoules formats an energy reserve as "17,950 J"
func formatJoules(j float64) string {
	return humanize.Comma(int64(math.Round(j))) + " J"
}

// formatSpeed formats meters per second in the display unit
func formatSpeed(mps float64, miles bool) string {
	if miles {
		return fmt.Sprintf("%.1f mph", mps*MPSToMPH)
	}
	return fmt.Sprintf("%.1f km/h", mps*MPSToKPH)
}

// formatDistance formats meters in the display unit
func formatDistance(meters float64, miles bool) string {
	if miles {
		return fmt.Sprintf("%.2f mi", meters/MetersPerMile)
	}
	return fmt.Sprintf("%.2f km", meters/MetersPerKm)
}

// formatGrade formats a fractional grade as a percentage
func formatGrade(grade float64) string {
	return fmt.Sprintf("%.1f%%", grade*100)
}

// formatAge describes when a plan was saved, e.g. "3 days ago"
func formatAge(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
