package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rider profile (singleton row)
		`CREATE TABLE IF NOT EXISTS rider_profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			ftp REAL NOT NULL,
			w_prime REAL NOT NULL,
			body_mass REAL NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual',
			updated_at TEXT NOT NULL
		)`,

		// Saved pacing plans
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			course_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			ftp REAL NOT NULL,
			w_prime REAL NOT NULL,
			body_mass REAL NOT NULL,
			scaling_factor REAL NOT NULL,
			total_time REAL NOT NULL,
			final_balance REAL NOT NULL,
			min_balance REAL NOT NULL,
			feasible INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at)`,

		// Per-segment results of a saved plan
		`CREATE TABLE IF NOT EXISTS plan_segments (
			plan_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			grade REAL NOT NULL,
			target_power REAL NOT NULL,
			speed REAL NOT NULL,
			w_balance REAL NOT NULL,
			time_seconds REAL NOT NULL,
			clamped INTEGER NOT NULL,
			PRIMARY KEY (plan_id, idx),
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
		)`,

		// App state (key-value store for last used course, last import)
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
