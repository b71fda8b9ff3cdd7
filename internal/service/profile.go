package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"climb-pacer/internal/config"
	"climb-pacer/internal/pacing"
	"climb-pacer/internal/store"
	"climb-pacer/internal/strava"
)

// ErrNoStravaData is returned when the Strava athlete has no FTP or weight set
var ErrNoStravaData = errors.New("strava athlete has no ftp or weight")

// AthleteSource fetches the authenticated athlete
type AthleteSource interface {
	GetAthlete(ctx context.Context) (*strava.Athlete, error)
}

// ProfileService loads and saves the rider used for planning
type ProfileService struct {
	store    *store.DB
	defaults config.RiderConfig
}

// NewProfileService creates a profile service. Without a stored profile the
// configured defaults are used.
func NewProfileService(db *store.DB, defaults config.RiderConfig) *ProfileService {
	return &ProfileService{store: db, defaults: defaults}
}

// Rider returns the stored rider profile, or the configured default
func (s *ProfileService) Rider() (pacing.RiderProfile, string, error) {
	if s.store == nil {
		return s.defaults.Profile(), "config", nil
	}

	p, err := s.store.GetRiderProfile()
	if errors.Is(err, store.ErrNoRiderProfile) {
		return s.defaults.Profile(), "config", nil
	}
	if err != nil {
		return pacing.RiderProfile{}, "", fmt.Errorf("loading rider profile: %w", err)
	}
	return p.RiderProfile, p.Source, nil
}

// Save stores a manually entered rider
func (s *ProfileService) Save(rider pacing.RiderProfile) error {
	return s.save(rider, store.SourceManual)
}

func validateRider(rider pacing.RiderProfile) error {
	return pacing.Validate(rider, pacing.NewCourse("check", []float64{0}),
		pacing.DefaultConstants(), pacing.DefaultPolicy(), pacing.DefaultSolverOptions())
}

func (s *ProfileService) save(rider pacing.RiderProfile, source string) error {
	if err := validateRider(rider); err != nil {
		return err
	}
	if s.store == nil {
		return errors.New("no database available")
	}
	return s.store.SaveRiderProfile(&store.RiderProfile{
		RiderProfile: rider,
		Source:       source,
		UpdatedAt:    time.Now(),
	})
}

// ImportFromStrava replaces FTP and weight with the values on the athlete's
// Strava profile. W′ is not tracked by Strava and keeps its current value.
func (s *ProfileService) ImportFromStrava(ctx context.Context, src AthleteSource) (pacing.RiderProfile, error) {
	athlete, err := src.GetAthlete(ctx)
	if err != nil {
		return pacing.RiderProfile{}, err
	}
	if athlete.FTP <= 0 && athlete.Weight <= 0 {
		return pacing.RiderProfile{}, ErrNoStravaData
	}

	current, _, err := s.Rider()
	if err != nil {
		return pacing.RiderProfile{}, err
	}
	rider := mergeAthlete(current, athlete)

	if err := s.save(rider, store.SourceStrava); err != nil {
		return pacing.RiderProfile{}, fmt.Errorf("saving imported profile: %w", err)
	}
	if err := s.store.SetState(store.StateLastStravaImport, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return rider, fmt.Errorf("recording import time: %w", err)
	}
	return rider, nil
}

// ConnectStrava stores a new Strava login together with the rider imported
// from the athlete, in one transaction. When the athlete has no FTP or weight
// only the login is stored and the current rider is returned unchanged.
func (s *ProfileService) ConnectStrava(ctx context.Context, src AthleteSource, login *store.Auth) (*strava.Athlete, pacing.RiderProfile, error) {
	if s.store == nil {
		return nil, pacing.RiderProfile{}, errors.New("no database available")
	}

	athlete, err := src.GetAthlete(ctx)
	if err != nil {
		return nil, pacing.RiderProfile{}, fmt.Errorf("fetching athlete: %w", err)
	}
	rider, _, err := s.Rider()
	if err != nil {
		return nil, pacing.RiderProfile{}, err
	}

	var imported *store.RiderProfile
	if athlete.FTP > 0 || athlete.Weight > 0 {
		rider = mergeAthlete(rider, athlete)
		if err := validateRider(rider); err != nil {
			return nil, pacing.RiderProfile{}, err
		}
		imported = &store.RiderProfile{RiderProfile: rider, UpdatedAt: time.Now()}
	}

	if err := s.store.SaveStravaLogin(login, imported); err != nil {
		return nil, pacing.RiderProfile{}, err
	}
	if imported != nil {
		if err := s.store.SetState(store.StateLastStravaImport, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return athlete, rider, fmt.Errorf("recording import time: %w", err)
		}
	}
	return athlete, rider, nil
}

// mergeAthlete takes FTP and weight from the athlete where Strava has them.
// W′ is not tracked by Strava and is kept.
func mergeAthlete(rider pacing.RiderProfile, athlete *strava.Athlete) pacing.RiderProfile {
	if athlete.FTP > 0 {
		rider.FTP = athlete.FTP
	}
	if athlete.Weight > 0 {
		rider.BodyMass = athlete.Weight
	}
	return rider
}
