package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"climb-pacer/internal/config"
	"climb-pacer/internal/course"
	"climb-pacer/internal/pacing"
	"climb-pacer/internal/store"
)

// SegmentSource fetches the elevation profile of a Strava segment
type SegmentSource interface {
	GetSegmentStreams(ctx context.Context, segmentID int64) (distances, altitudes []float64, err error)
}

// PlanService computes, saves and lists pacing plans
type PlanService struct {
	store    *store.DB
	cfg      *config.Config
	logger   *log.Logger
	segments SegmentSource
}

// NewPlanService creates a plan service. db may be nil when plans are not persisted.
func NewPlanService(db *store.DB, cfg *config.Config, logger *log.Logger) *PlanService {
	return &PlanService{store: db, cfg: cfg, logger: logger}
}

// WithSegments enables "strava:<id>" course sources
func (s *PlanService) WithSegments(src SegmentSource) *PlanService {
	s.segments = src
	return s
}

// PlanResult is a computed plan with the inputs that produced it
type PlanResult struct {
	Rider  pacing.RiderProfile
	Course pacing.CourseProfile
	Stats  course.Stats
	Plan   *pacing.PacingPlan
	// Infeasible holds the ErrInfeasible error when the plan is only a diagnostic
	Infeasible error
}

// ResolveCourse loads a course from a built-in name, a file, or a Strava segment
func (s *PlanService) ResolveCourse(ctx context.Context, source string) (pacing.CourseProfile, error) {
	if source == "" {
		source = s.cfg.Course.Source
	}

	if !strings.HasPrefix(source, StravaSegmentPrefix) {
		return course.Load(source)
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(source, StravaSegmentPrefix), 10, 64)
	if err != nil {
		return pacing.CourseProfile{}, fmt.Errorf("%w: bad segment id in %q", course.ErrUnknownCourse, source)
	}
	if s.segments == nil {
		return pacing.CourseProfile{}, errors.New("strava segments need a login - run 'climb-pacer login'")
	}

	distances, altitudes, err := s.segments.GetSegmentStreams(ctx, id)
	if err != nil {
		return pacing.CourseProfile{}, err
	}
	return course.FromElevationProfile(fmt.Sprintf("Strava segment %d", id), distances, altitudes)
}

// Compute calibrates a plan for the rider on the course.
// An infeasible course is not an error here: the diagnostic plan is returned
// with Infeasible set. Invalid input is returned as an error.
func (s *PlanService) Compute(rider pacing.RiderProfile, c pacing.CourseProfile) (*PlanResult, error) {
	plan, err := pacing.ComputePacingPlan(rider, c, s.cfg.PlanOptions()...)
	result := &PlanResult{
		Rider:  rider,
		Course: c,
		Stats:  course.Summary(c),
		Plan:   plan,
	}

	switch {
	case errors.Is(err, pacing.ErrInfeasible):
		result.Infeasible = err
		s.logger.Printf("%s: %v", c.Name, err)
	case err != nil:
		return nil, err
	}

	if n := plan.ClampedSegments(); n > 0 {
		s.logger.Printf("%s: speed hit the solver limits on %d of %d segments", c.Name, n, len(plan.Segments))
	}
	return result, nil
}

// Save stores a plan and remembers its course as the last one used
func (s *PlanService) Save(result *PlanResult) (string, error) {
	if s.store == nil {
		return "", errors.New("no database available")
	}

	id, err := s.store.SavePlan(result.Course.Name, result.Rider, result.Plan)
	if err != nil {
		return "", fmt.Errorf("saving plan: %w", err)
	}
	if err := s.store.SetState(store.StateLastCourse, result.Course.Name); err != nil {
		s.logger.Printf("recording last course: %v", err)
	}
	return id, nil
}

// History lists saved plans, newest first
func (s *PlanService) History(limit int) ([]store.PlanSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.ListPlans(limit)
}

// Get loads a saved plan
func (s *PlanService) Get(id string) (*store.SavedPlan, error) {
	if s.store == nil {
		return nil, store.ErrPlanNotFound
	}
	return s.store.GetPlan(id)
}

// Delete removes a saved plan
func (s *PlanService) Delete(id string) error {
	if s.store == nil {
		return store.ErrPlanNotFound
	}
	return s.store.DeletePlan(id)
}
