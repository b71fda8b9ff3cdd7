package store

import (
	"database/sql"
	"errors"
)

// Keys used in app_state
const (
	StateLastCourse       = "last_course"
	StateLastStravaImport = "last_strava_import"
)

// GetState retrieves a state value by key.
// Returns empty string if key doesn't exist
func (db *DB) GetState(key string) (string, error) {
	var value string
	err := db.QueryRow(`
		SELECT value FROM app_state WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetState sets a state value
func (db *DB) SetState(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}
