package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/formcoach/internal/models"
)

const workoutColumns = `id, user_id, exercise, start_time, end_time, duration_sec, reps, sets,
	form_score, calories_burned, avg_rep_seconds, rep_tempo_stddev`

// SaveWorkout estimates calories and inserts the workout. The stored row is
// returned.
func (db *DB) SaveWorkout(ctx context.Context, w models.WorkoutRow) (models.WorkoutRow, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	kg, err := db.userWeight(ctx, w.UserID)
	if err != nil {
		return models.WorkoutRow{}, err
	}
	w.CaloriesBurned = EstimateCalories(w.Exercise, w.DurationMinutes(), kg)

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workouts (`+workoutColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		w.ID, w.UserID, w.Exercise, w.StartTime, w.EndTime, w.DurationSec, w.Reps, w.Sets,
		w.FormScore, w.CaloriesBurned, w.AvgRepSeconds, w.RepTempoStdDev)
	if err != nil {
		return models.WorkoutRow{}, fmt.Errorf("inserting workout: %w", err)
	}
	return w, nil
}

// QueryWorkouts retrieves a user's workouts started in [start, end).
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE start_time >= $1 AND start_time < $2 AND user_id = $3
		 ORDER BY start_time DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows, scanPG)
}

// RecentWorkouts returns the latest workouts, optionally for one user.
func (db *DB) RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE $1 = '' OR user_id = $1
		 ORDER BY start_time DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows, scanPG)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPG(rows rowScanner, w *models.WorkoutRow) error {
	return rows.Scan(&w.ID, &w.UserID, &w.Exercise, &w.StartTime, &w.EndTime, &w.DurationSec,
		&w.Reps, &w.Sets, &w.FormScore, &w.CaloriesBurned, &w.AvgRepSeconds, &w.RepTempoStdDev)
}

func scanWorkoutRows(rows rowScanner, scan func(rowScanner, *models.WorkoutRow) error) ([]models.WorkoutRow, error) {
	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := scan(rows, &w); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
