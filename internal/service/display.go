package service

import (
	"fmt"
	"time"

	"climb-pacer/internal/pacing"
	"climb-pacer/internal/store"
)

// SegmentRow is one formatted line of a plan table
type SegmentRow struct {
	Number      int
	Distance    string // distance at the end of the segment
	Grade       string
	Power       string
	Speed       string
	Time        string
	Elapsed     string
	WBalance    string
	WBalancePct float64 // 0-100
	AboveFTP    bool
	LowReserve  bool
	Clamped     bool
}

// PlanDisplay is a plan formatted for the terminal
type PlanDisplay struct {
	CourseName   string
	Distance     string
	Climbing     string
	AverageGrade string
	Rider        string
	Intensity    string // e.g. "105.3% of base policy"
	TotalTime    string
	AveragePower string
	AverageSpeed string
	FinalBalance string
	MinBalance   string
	Feasible     bool
	Warning      string
	Rows         []SegmentRow

	// Chart series
	Powers   []float64
	Balances []float64
}

// NewPlanDisplay formats a computed plan
func NewPlanDisplay(r *PlanResult, miles bool) PlanDisplay {
	d := formatPlan(r.Course.Name, r.Rider, r.Plan, miles)
	d.Distance = formatDistance(r.Stats.DistanceMeters, miles)
	d.Climbing = fmt.Sprintf("%.0f m", r.Stats.ElevationGain)
	d.AverageGrade = formatGrade(r.Stats.AverageGrade)
	if r.Infeasible != nil {
		d.Warning = fmt.Sprintf("Not sustainable: %v. Showing the easiest effort modeled.", r.Infeasible)
	}
	return d
}

// NewSavedPlanDisplay formats a plan loaded from the database
func NewSavedPlanDisplay(p *store.SavedPlan, miles bool) PlanDisplay {
	d := formatPlan(p.CourseName, p.Rider, &p.Plan, miles)
	d.Distance = formatDistance(float64(len(p.Plan.Segments))*pacing.SegmentLengthMeters, miles)
	if !p.Feasible {
		d.Warning = "Not sustainable: W′ runs out even at the easiest effort modeled."
	}
	return d
}

func formatPlan(name string, rider pacing.RiderProfile, plan *pacing.PacingPlan, miles bool) PlanDisplay {
	d := PlanDisplay{
		CourseName:   name,
		Rider:        fmt.Sprintf("%.0f W FTP, %s W′, %.1f kg", rider.FTP, formatJoules(rider.WPrime), rider.BodyMass),
		Intensity:    fmt.Sprintf("%.1f%%", plan.ScalingFactor*100),
		TotalTime:    formatDuration(plan.TotalTimeSeconds),
		AveragePower: fmt.Sprintf("%.0f W", plan.AveragePower()),
		AverageSpeed: formatSpeed(plan.AverageSpeed(), miles),
		FinalBalance: formatJoules(pacing.ReportedBalance(plan.FinalBalance)),
		MinBalance:   formatJoules(pacing.ReportedBalance(plan.MinBalance)),
		Feasible:     plan.Feasible,
	}

	elapsed := 0.0
	for i, s := range plan.Segments {
		elapsed += s.TimeSeconds
		pct := 0.0
		if rider.WPrime > 0 {
			pct = s.WBalanceAfter / rider.WPrime * 100
		}

		d.Rows = append(d.Rows, SegmentRow{
			Number:      i + 1,
			Distance:    formatDistance(float64(i+1)*pacing.SegmentLengthMeters, miles),
			Grade:       formatGrade(s.Grade),
			Power:       fmt.Sprintf("%.0f W", s.TargetPower),
			Speed:       formatSpeed(s.Speed, miles),
			Time:        formatDuration(s.TimeSeconds),
			Elapsed:     formatDuration(elapsed),
			WBalance:    formatJoules(s.WBalanceAfter),
			WBalancePct: pct,
			AboveFTP:    s.TargetPower > rider.FTP,
			LowReserve:  pct < LowReserveFraction*100,
			Clamped:     s.Clamped,
		})
		d.Powers = append(d.Powers, s.TargetPower)
		d.Balances = append(d.Balances, s.WBalanceAfter)
	}
	return d
}

// HistoryRow is one formatted saved plan
type HistoryRow struct {
	ID        string
	Course    string
	Saved     string
	Rider     string
	TotalTime string
	Intensity string
	Feasible  bool
}

// NewHistoryRows formats saved plan summaries relative to now
func NewHistoryRows(plans []store.PlanSummary, now time.Time) []HistoryRow {
	rows := make([]HistoryRow, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, HistoryRow{
			ID:        p.ID,
			Course:    p.CourseName,
			Saved:     formatAge(p.CreatedAt, now),
			Rider:     fmt.Sprintf("%.0f W / %.1f kg", p.Rider.FTP, p.Rider.BodyMass),
			TotalTime: formatDuration(p.TotalTime),
			Intensity: fmt.Sprintf("%.1f%%", p.ScalingFactor*100),
			Feasible:  p.Feasible,
		})
	}
	return rows
}
