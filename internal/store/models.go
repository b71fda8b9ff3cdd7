package store

import (
	"time"

	"climb-pacer/internal/pacing"
)

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Rider sources
const (
	SourceManual = "manual"
	SourceStrava = "strava"
)

// RiderProfile is the stored rider with where its numbers came from
type RiderProfile struct {
	pacing.RiderProfile
	Source    string    `db:"source"` // "manual" or "strava"
	UpdatedAt time.Time `db:"updated_at"`
}

// PlanSummary is a saved plan without its segments
type PlanSummary struct {
	ID            string    `db:"id"`
	CourseName    string    `db:"course_name"`
	CreatedAt     time.Time `db:"created_at"`
	Rider         pacing.RiderProfile
	ScalingFactor float64 `db:"scaling_factor"`
	TotalTime     float64 `db:"total_time"` // seconds
	FinalBalance  float64 `db:"final_balance"`
	MinBalance    float64 `db:"min_balance"`
	Feasible      bool    `db:"feasible"`
}

// SavedPlan is a saved plan with its full segment breakdown
type SavedPlan struct {
	PlanSummary
	Plan pacing.PacingPlan
}
