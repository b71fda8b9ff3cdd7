package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRiderProfile is returned when no rider profile has been saved
var ErrNoRiderProfile = errors.New("no rider profile stored")

// GetRiderProfile retrieves the stored rider profile
func (db *DB) GetRiderProfile() (*RiderProfile, error) {
	row := db.QueryRow(`
		SELECT ftp, w_prime, body_mass, source, updated_at
		FROM rider_profile
		WHERE id = 1
	`)

	var p RiderProfile
	var updatedAt string
	err := row.Scan(&p.FTP, &p.WPrime, &p.BodyMass, &p.Source, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRiderProfile
	}
	if err != nil {
		return nil, err
	}

	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}

// SaveRiderProfile stores or replaces the rider profile
func (db *DB) SaveRiderProfile(p *RiderProfile) error {
	if p.Source == "" {
		p.Source = SourceManual
	}
	return upsertRiderProfile(db, p)
}

func upsertRiderProfile(ex execer, p *RiderProfile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := ex.Exec(`
		INSERT INTO rider_profile (id, ftp, w_prime, body_mass, source, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ftp = excluded.ftp,
			w_prime = excluded.w_prime,
			body_mass = excluded.body_mass,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, p.FTP, p.WPrime, p.BodyMass, p.Source, p.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving rider profile: %w", err)
	}
	return nil
}
