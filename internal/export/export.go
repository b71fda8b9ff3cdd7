// Package export writes pacing plans to files for use outside the TUI.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"climb-pacer/internal/pacing"
)

// Row is one segment of a plan in export form
type Row struct {
	Segment   int
	DistanceM float64 // distance at the end of the segment
	Grade     float64
	PowerW    float64
	SpeedMPS  float64
	TimeS     float64
	ElapsedS  float64
	WBalanceJ float64
	Clamped   bool
}

// Rows flattens a plan into export rows with cumulative distance and time
func Rows(plan *pacing.PacingPlan) []Row {
	rows := make([]Row, len(plan.Segments))
	elapsed := 0.0
	for i, s := range plan.Segments {
		elapsed += s.TimeSeconds
		rows[i] = Row{
			Segment:   s.Index + 1,
			DistanceM: float64(s.Index+1) * pacing.SegmentLengthMeters,
			Grade:     s.Grade,
			PowerW:    s.TargetPower,
			SpeedMPS:  s.Speed,
			TimeS:     s.TimeSeconds,
			ElapsedS:  elapsed,
			WBalanceJ: s.WBalanceAfter,
			Clamped:   s.Clamped,
		}
	}
	return rows
}

var csvHeader = []string{
	"segment", "distance_m", "grade", "power_w", "speed_mps",
	"time_s", "elapsed_s", "w_balance_j", "clamped",
}

// WriteCSV writes one line per segment with a header row
func WriteCSV(w io.Writer, plan *pacing.PacingPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range Rows(plan) {
		record := []string{
			strconv.Itoa(r.Segment),
			f(r.DistanceM),
			f(r.Grade),
			f(r.PowerW),
			f(r.SpeedMPS),
			f(r.TimeS),
			f(r.ElapsedS),
			f(r.WBalanceJ),
			strconv.FormatBool(r.Clamped),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row %d: %w", r.Segment, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
