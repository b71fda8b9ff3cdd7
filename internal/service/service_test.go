package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"climb-pacer/internal/config"
	"climb-pacer/internal/course"
	"climb-pacer/internal/pacing"
	"climb-pacer/internal/store"
	"climb-pacer/internal/strava"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{29.6, "0:30"},
		{90, "1:30"},
		{1214.3, "20:14"},
		{3599.6, "1:00:00"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatDuration(tt.seconds); got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatJoules(17950.4); got != "17,950 J" {
		t.Errorf("formatJoules() = %q", got)
	}
	if got := formatSpeed(4.4704, true); got != "10.0 mph" {
		t.Errorf("formatSpeed(mph) = %q", got)
	}
	if got := formatSpeed(5, false); got != "18.0 km/h" {
		t.Errorf("formatSpeed(kph) = %q", got)
	}
	if got := formatDistance(3*MetersPerMile, true); got != "3.00 mi" {
		t.Errorf("formatDistance(mi) = %q", got)
	}
	if got := formatGrade(0.075); got != "7.5%" {
		t.Errorf("formatGrade() = %q", got)
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := formatAge(now.Add(-3*24*time.Hour), now); got != "3 days ago" {
		t.Errorf("formatAge() = %q", got)
	}
}

func newTestPlanService(t *testing.T) (*PlanService, *store.DB, *bytes.Buffer) {
	t.Helper()

	db, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	var logs bytes.Buffer
	return NewPlanService(db, &cfg, log.New(&logs, "", 0)), db, &logs
}

func TestPlanService_ComputeAndSave(t *testing.T) {
	svc, _, logs := newTestPlanService(t)
	rider := pacing.RiderProfile{FTP: 280, WPrime: 18000, BodyMass: 75}

	result, err := svc.Compute(rider, course.OldLaHonda())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if result.Infeasible != nil || !result.Plan.Feasible {
		t.Fatalf("plan should be feasible: %v", result.Infeasible)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output: %q", logs.String())
	}

	id, err := svc.Save(result)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	history, err := svc.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].ID != id || history[0].CourseName != "Old La Honda" {
		t.Errorf("History() = %+v", history)
	}

	saved, err := svc.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if saved.Plan.TotalTimeSeconds != result.Plan.TotalTimeSeconds {
		t.Errorf("saved time = %v, want %v", saved.Plan.TotalTimeSeconds, result.Plan.TotalTimeSeconds)
	}

	if err := svc.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(id); !errors.Is(err, store.ErrPlanNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
}

func TestPlanService_Infeasible(t *testing.T) {
	svc, _, logs := newTestPlanService(t)
	rider := pacing.RiderProfile{FTP: 280, WPrime: 500, BodyMass: 75}
	wall := pacing.NewCourse("The Wall", []float64{0.35, 0.35, 0.35, 0.35})

	result, err := svc.Compute(rider, wall)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !errors.Is(result.Infeasible, pacing.ErrInfeasible) {
		t.Errorf("Infeasible = %v, want ErrInfeasible", result.Infeasible)
	}
	if result.Plan == nil || result.Plan.Feasible {
		t.Error("expected diagnostic plan flagged infeasible")
	}
	if !strings.Contains(logs.String(), "The Wall") {
		t.Errorf("log output %q should name the course", logs.String())
	}

	d := NewPlanDisplay(result, true)
	if d.Warning == "" || d.Feasible {
		t.Errorf("display should warn about infeasible plan: %+v", d)
	}
}

func TestPlanService_InvalidInput(t *testing.T) {
	svc, _, _ := newTestPlanService(t)

	_, err := svc.Compute(pacing.RiderProfile{FTP: 0, WPrime: 18000, BodyMass: 75}, course.OldLaHonda())
	if !errors.Is(err, pacing.ErrInvalidInput) {
		t.Errorf("Compute() error = %v, want ErrInvalidInput", err)
	}
}

type fakeSegments struct {
	distances, altitudes []float64
	err                  error
}

func (f fakeSegments) GetSegmentStreams(ctx context.Context, id int64) ([]float64, []float64, error) {
	return f.distances, f.altitudes, f.err
}

func TestPlanService_ResolveCourse(t *testing.T) {
	svc, _, _ := newTestPlanService(t)
	ctx := context.Background()

	c, err := svc.ResolveCourse(ctx, "")
	if err != nil {
		t.Fatalf("ResolveCourse(default) error = %v", err)
	}
	if c.Name != "Old La Honda" {
		t.Errorf("default course = %q", c.Name)
	}

	if _, err := svc.ResolveCourse(ctx, "strava:123"); err == nil {
		t.Error("expected error without a segment source")
	}
	if _, err := svc.ResolveCourse(ctx, "strava:abc"); !errors.Is(err, course.ErrUnknownCourse) {
		t.Errorf("bad id error = %v, want ErrUnknownCourse", err)
	}

	d := []float64{0, 500, 1000}
	a := []float64{100, 140, 180}
	svc.WithSegments(fakeSegments{distances: d, altitudes: a})

	c, err = svc.ResolveCourse(ctx, "strava:8109834")
	if err != nil {
		t.Fatalf("ResolveCourse(strava) error = %v", err)
	}
	if c.Name != "Strava segment 8109834" || len(c.Segments) != 5 {
		t.Errorf("segment course = %q with %d segments", c.Name, len(c.Segments))
	}
}

func TestNewPlanDisplay(t *testing.T) {
	svc, _, _ := newTestPlanService(t)
	rider := pacing.RiderProfile{FTP: 280, WPrime: 18000, BodyMass: 75}

	result, err := svc.Compute(rider, course.OldLaHonda())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	d := NewPlanDisplay(result, true)
	if len(d.Rows) != 24 || len(d.Powers) != 24 || len(d.Balances) != 24 {
		t.Fatalf("got %d rows", len(d.Rows))
	}
	if d.Distance != "3.00 mi" {
		t.Errorf("Distance = %q", d.Distance)
	}
	if d.Rows[23].Elapsed != d.TotalTime {
		t.Errorf("last elapsed %q != total %q", d.Rows[23].Elapsed, d.TotalTime)
	}
	if d.Rows[0].AboveFTP {
		t.Error("first segment should be below FTP")
	}
	if d.Rows[0].WBalancePct != 100 {
		t.Errorf("first segment reserve = %v%%, want 100", d.Rows[0].WBalancePct)
	}
	for _, row := range d.Rows {
		if row.LowReserve != (row.WBalancePct < LowReserveFraction*100) {
			t.Errorf("segment %d: LowReserve = %v at %.1f%%", row.Number, row.LowReserve, row.WBalancePct)
		}
	}
	if d.Warning != "" {
		t.Errorf("unexpected warning %q", d.Warning)
	}
}

func TestNewHistoryRows(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := NewHistoryRows([]store.PlanSummary{{
		ID:            "abc",
		CourseName:    "Old La Honda",
		CreatedAt:     now.Add(-2 * time.Hour),
		Rider:         pacing.RiderProfile{FTP: 280, WPrime: 18000, BodyMass: 75},
		ScalingFactor: 1.0532,
		TotalTime:     1214,
		Feasible:      true,
	}}, now)

	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	r := rows[0]
	if r.Saved != "2 hours ago" || r.TotalTime != "20:14" || r.Intensity != "105.3%" {
		t.Errorf("row = %+v", r)
	}
}

type fakeAthlete struct {
	athlete *strava.Athlete
}

func (f fakeAthlete) GetAthlete(ctx context.Context) (*strava.Athlete, error) {
	return f.athlete, nil
}

func TestProfileService(t *testing.T) {
	db, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	defer db.Close()

	defaults := config.DefaultConfig().Rider
	svc := NewProfileService(db, defaults)

	rider, source, err := svc.Rider()
	if err != nil {
		t.Fatalf("Rider() error = %v", err)
	}
	if rider != defaults.Profile() || source != "config" {
		t.Errorf("Rider() = %+v from %q, want config defaults", rider, source)
	}

	if err := svc.Save(pacing.RiderProfile{FTP: -1, WPrime: 1, BodyMass: 1}); !errors.Is(err, pacing.ErrInvalidInput) {
		t.Errorf("Save(invalid) error = %v", err)
	}
	if err := svc.Save(pacing.RiderProfile{FTP: 250, WPrime: 21000, BodyMass: 68}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	imported, err := svc.ImportFromStrava(context.Background(), fakeAthlete{&strava.Athlete{ID: 1, FTP: 265}})
	if err != nil {
		t.Fatalf("ImportFromStrava() error = %v", err)
	}
	want := pacing.RiderProfile{FTP: 265, WPrime: 21000, BodyMass: 68}
	if imported != want {
		t.Errorf("imported = %+v, want %+v", imported, want)
	}

	rider, source, err = svc.Rider()
	if err != nil {
		t.Fatalf("Rider() error = %v", err)
	}
	if rider != want || source != store.SourceStrava {
		t.Errorf("Rider() = %+v from %q", rider, source)
	}

	last, err := db.GetState(store.StateLastStravaImport)
	if err != nil || last == "" {
		t.Errorf("last import state = %q, %v", last, err)
	}

	if _, err := svc.ImportFromStrava(context.Background(), fakeAthlete{&strava.Athlete{ID: 1}}); !errors.Is(err, ErrNoStravaData) {
		t.Errorf("empty athlete error = %v, want ErrNoStravaData", err)
	}
}

func TestProfileService_ConnectStrava(t *testing.T) {
	db, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	defer db.Close()

	svc := NewProfileService(db, config.DefaultConfig().Rider)
	login := &store.Auth{AthleteID: 9, AccessToken: "acc", RefreshToken: "ref", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("athlete without data stores only the login", func(t *testing.T) {
		_, rider, err := svc.ConnectStrava(context.Background(), fakeAthlete{&strava.Athlete{ID: 9}}, login)
		if err != nil {
			t.Fatalf("ConnectStrava() error = %v", err)
		}
		if rider != config.DefaultConfig().Rider.Profile() {
			t.Errorf("rider = %+v, want config default", rider)
		}
		if _, err := db.GetAuth(); err != nil {
			t.Errorf("GetAuth() error = %v", err)
		}
		if _, err := db.GetRiderProfile(); !errors.Is(err, store.ErrNoRiderProfile) {
			t.Errorf("GetRiderProfile() error = %v, want ErrNoRiderProfile", err)
		}
	})

	t.Run("athlete with ftp and weight", func(t *testing.T) {
		athlete := &strava.Athlete{ID: 9, Firstname: "Ada", FTP: 301, Weight: 71.5}
		got, rider, err := svc.ConnectStrava(context.Background(), fakeAthlete{athlete}, login)
		if err != nil {
			t.Fatalf("ConnectStrava() error = %v", err)
		}
		if got.Firstname != "Ada" {
			t.Errorf("athlete = %+v", got)
		}
		want := pacing.RiderProfile{FTP: 301, WPrime: config.DefaultConfig().Rider.WPrime, BodyMass: 71.5}
		if rider != want {
			t.Errorf("rider = %+v, want %+v", rider, want)
		}

		stored, source, err := svc.Rider()
		if err != nil || stored != want || source != store.SourceStrava {
			t.Errorf("Rider() = %+v from %q, %v", stored, source, err)
		}
		if v, _ := db.GetState(store.StateLastStravaImport); v == "" {
			t.Error("import time not recorded")
		}
	})
}
