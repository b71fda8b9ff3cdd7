package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"climb-pacer/internal/pacing"
)

// ErrPlanNotFound is returned when a plan doesn't exist
var ErrPlanNotFound = errors.New("plan not found")

// createdAtLayout has fixed width so created_at sorts as text
const createdAtLayout = "2006-01-02T15:04:05.000000Z"

// SavePlan stores a computed plan and its segments, returning the new plan ID
func (db *DB) SavePlan(courseName string, rider pacing.RiderProfile, plan *pacing.PacingPlan) (string, error) {
	return db.savePlan(uuid.New().String(), time.Now(), courseName, rider, plan)
}

func (db *DB) savePlan(id string, createdAt time.Time, courseName string, rider pacing.RiderProfile, plan *pacing.PacingPlan) (string, error) {
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO plans (
			id, course_name, created_at, ftp, w_prime, body_mass,
			scaling_factor, total_time, final_balance, min_balance, feasible
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, courseName, createdAt.UTC().Format(createdAtLayout),
		rider.FTP, rider.WPrime, rider.BodyMass,
		plan.ScalingFactor, plan.TotalTimeSeconds, plan.FinalBalance, plan.MinBalance,
		boolToInt(plan.Feasible),
	)
	if err != nil {
		return "", fmt.Errorf("inserting plan: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO plan_segments (
			plan_id, idx, grade, target_power, speed, w_balance, time_seconds, clamped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing segment insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range plan.Segments {
		_, err := stmt.Exec(id, s.Index, s.Grade, s.TargetPower, s.Speed,
			s.WBalanceAfter, s.TimeSeconds, boolToInt(s.Clamped))
		if err != nil {
			return "", fmt.Errorf("inserting segment %d: %w", s.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing plan: %w", err)
	}
	return id, nil
}

// ListPlans returns the most recent plans first. A limit of 0 returns all plans.
func (db *DB) ListPlans(limit int) ([]PlanSummary, error) {
	query := `
		SELECT id, course_name, created_at, ftp, w_prime, body_mass,
			scaling_factor, total_time, final_balance, min_balance, feasible
		FROM plans
		ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []PlanSummary
	for rows.Next() {
		p, err := scanPlanSummary(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlan retrieves a saved plan with its segments
func (db *DB) GetPlan(id string) (*SavedPlan, error) {
	row := db.QueryRow(`
		SELECT id, course_name, created_at, ftp, w_prime, body_mass,
			scaling_factor, total_time, final_balance, min_balance, feasible
		FROM plans
		WHERE id = ?
	`, id)

	summary, err := scanPlanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT idx, grade, target_power, speed, w_balance, time_seconds, clamped
		FROM plan_segments
		WHERE plan_id = ?
		ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := &SavedPlan{
		PlanSummary: *summary,
		Plan: pacing.PacingPlan{
			ScalingFactor:    summary.ScalingFactor,
			TotalTimeSeconds: summary.TotalTime,
			FinalBalance:     summary.FinalBalance,
			MinBalance:       summary.MinBalance,
			Feasible:         summary.Feasible,
		},
	}
	for rows.Next() {
		var s pacing.SegmentResult
		var clamped int64
		if err := rows.Scan(&s.Index, &s.Grade, &s.TargetPower, &s.Speed,
			&s.WBalanceAfter, &s.TimeSeconds, &clamped); err != nil {
			return nil, err
		}
		s.Clamped = clamped != 0
		saved.Plan.Segments = append(saved.Plan.Segments, s)
	}
	return saved, rows.Err()
}

// DeletePlan removes a plan and its segments. Segments are deleted
// explicitly so the result doesn't depend on the connection's foreign key
// setting.
func (db *DB) DeletePlan(id string) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM plan_segments WHERE plan_id = ?`, id); err != nil {
			return fmt.Errorf("deleting plan segments: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting plan: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPlanNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlanSummary(row rowScanner) (*PlanSummary, error) {
	var p PlanSummary
	var createdAt string
	var feasible int64
	err := row.Scan(
		&p.ID, &p.CourseName, &createdAt,
		&p.Rider.FTP, &p.Rider.WPrime, &p.Rider.BodyMass,
		&p.ScalingFactor, &p.TotalTime, &p.FinalBalance, &p.MinBalance, &feasible,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.Feasible = feasible != 0
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
