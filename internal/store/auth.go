package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoAuth is returned when no Strava account is connected
var ErrNoAuth = errors.New("no strava account connected")

// execer is satisfied by both *DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// GetAuth returns the tokens of the connected Strava account
func (db *DB) GetAuth() (*Auth, error) {
	var a Auth
	var expiresAt int64
	err := db.QueryRow(`SELECT athlete_id, access_token, refresh_token, expires_at FROM auth WHERE id = 1`).
		Scan(&a.AthleteID, &a.AccessToken, &a.RefreshToken, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNoAuth
	case err != nil:
		return nil, fmt.Errorf("reading auth: %w", err)
	}
	a.ExpiresAt = time.Unix(expiresAt, 0)
	return &a, nil
}

// SaveAuth connects a Strava account without touching the rider profile
func (db *DB) SaveAuth(a *Auth) error {
	return upsertAuth(db, a)
}

// SaveStravaLogin connects a Strava account and stores the rider imported
// with it in one transaction. A nil rider stores only the tokens.
func (db *DB) SaveStravaLogin(a *Auth, rider *RiderProfile) error {
	return db.withTx(func(tx *sql.Tx) error {
		if err := upsertAuth(tx, a); err != nil {
			return err
		}
		if rider == nil {
			return nil
		}
		rider.Source = SourceStrava
		return upsertRiderProfile(tx, rider)
	})
}

// UpdateTokens replaces the tokens after a refresh
func (db *DB) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := db.Exec(`
		UPDATE auth SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`,
		accessToken, refreshToken, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNoAuth
	}
	return nil
}

// DeleteAuth disconnects the Strava account. A rider profile imported from
// Strava is kept but becomes a manual one.
func (db *DB) DeleteAuth() error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM auth WHERE id = 1`); err != nil {
			return fmt.Errorf("deleting auth: %w", err)
		}
		_, err := tx.Exec(`UPDATE rider_profile SET source = ? WHERE source = ?`, SourceManual, SourceStrava)
		return err
	})
}

func upsertAuth(ex execer, a *Auth) error {
	_, err := ex.Exec(`
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP`,
		a.AthleteID, a.AccessToken, a.RefreshToken, a.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}
