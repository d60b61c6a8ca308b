package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/formcoach/internal/models"
)

// LocalDB is the single-file SQLite store used when no Postgres is
// configured. Times are stored as unix milliseconds.
type LocalDB struct {
	db *sql.DB

	defaultWeightKg float64
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		difficulty  TEXT NOT NULL DEFAULT '',
		muscles     TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id        TEXT PRIMARY KEY,
		weight_kg REAL
	)`,
	`CREATE TABLE IF NOT EXISTS workouts (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		exercise         TEXT NOT NULL,
		start_ms         INTEGER NOT NULL,
		end_ms           INTEGER NOT NULL,
		duration_sec     REAL NOT NULL,
		reps             INTEGER NOT NULL DEFAULT 0,
		sets             INTEGER NOT NULL DEFAULT 1,
		form_score       INTEGER NOT NULL DEFAULT 0,
		calories_burned  REAL NOT NULL DEFAULT 0,
		avg_rep_seconds  REAL NOT NULL DEFAULT 0,
		rep_tempo_stddev REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS workouts_user_start_idx ON workouts (user_id, start_ms)`,
}

// OpenLocal opens (or creates) the SQLite database at path.
func OpenLocal(path string, defaultWeightKg float64) (*LocalDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &LocalDB{db: db, defaultWeightKg: defaultWeightKg}, nil
}

// Close closes the database.
func (l *LocalDB) Close() error {
	return l.db.Close()
}

func (l *LocalDB) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, description, difficulty, muscles FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var (
			e       models.ExerciseRow
			muscles string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Difficulty, &muscles); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		if err := json.Unmarshal([]byte(muscles), &e.Muscles); err != nil {
			return nil, fmt.Errorf("decoding muscles of %s: %w", e.Name, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (l *LocalDB) SeedExercises(ctx context.Context, rows []models.ExerciseRow) error {
	for _, e := range rows {
		muscles := e.Muscles
		if muscles == nil {
			muscles = []string{}
		}
		b, err := json.Marshal(muscles)
		if err != nil {
			return err
		}
		_, err = l.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO exercises (name, description, difficulty, muscles) VALUES (?, ?, ?, ?)`,
			e.Name, e.Description, e.Difficulty, string(b))
		if err != nil {
			return fmt.Errorf("seeding exercise %s: %w", e.Name, err)
		}
	}
	return nil
}

func (l *LocalDB) SetUserWeight(ctx context.Context, userID string, kg float64) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (id, weight_kg) VALUES (?, ?)`, userID, kg)
	if err != nil {
		return fmt.Errorf("setting user weight: %w", err)
	}
	return nil
}

func (l *LocalDB) userWeight(ctx context.Context, userID string) (float64, error) {
	var kg sql.NullFloat64
	err := l.db.QueryRowContext(ctx, `SELECT weight_kg FROM users WHERE id = ?`, userID).Scan(&kg)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && (!kg.Valid || kg.Float64 <= 0)) {
		return l.defaultWeightKg, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying user weight: %w", err)
	}
	return kg.Float64, nil
}

func (l *LocalDB) SaveWorkout(ctx context.Context, w models.WorkoutRow) (models.WorkoutRow, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	kg, err := l.userWeight(ctx, w.UserID)
	if err != nil {
		return models.WorkoutRow{}, err
	}
	w.CaloriesBurned = EstimateCalories(w.Exercise, w.DurationMinutes(), kg)

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, exercise, start_ms, end_ms, duration_sec, reps, sets,
		 form_score, calories_burned, avg_rep_seconds, rep_tempo_stddev)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.UserID, w.Exercise, w.StartTime.UnixMilli(), w.EndTime.UnixMilli(), w.DurationSec,
		w.Reps, w.Sets, w.FormScore, w.CaloriesBurned, w.AvgRepSeconds, w.RepTempoStdDev)
	if err != nil {
		return models.WorkoutRow{}, fmt.Errorf("inserting workout: %w", err)
	}
	return w, nil
}

const localWorkoutColumns = `id, user_id, exercise, start_ms, end_ms, duration_sec, reps, sets,
	form_score, calories_burned, avg_rep_seconds, rep_tempo_stddev`

func (l *LocalDB) QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+localWorkoutColumns+`
		 FROM workouts
		 WHERE start_ms >= ? AND start_ms < ? AND user_id = ?
		 ORDER BY start_ms DESC`,
		start.UnixMilli(), end.UnixMilli(), userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows, scanLocal)
}

func (l *LocalDB) RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+localWorkoutColumns+`
		 FROM workouts
		 WHERE ? = '' OR user_id = ?
		 ORDER BY start_ms DESC
		 LIMIT ?`,
		userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows, scanLocal)
}

func scanLocal(rows rowScanner, w *models.WorkoutRow) error {
	var (
		id             string
		startMS, endMS int64
	)
	if err := rows.Scan(&id, &w.UserID, &w.Exercise, &startMS, &endMS, &w.DurationSec,
		&w.Reps, &w.Sets, &w.FormScore, &w.CaloriesBurned, &w.AvgRepSeconds, &w.RepTempoStdDev); err != nil {
		return err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parsing workout id %q: %w", id, err)
	}
	w.ID = parsed
	w.StartTime = time.UnixMilli(startMS).UTC()
	w.EndTime = time.UnixMilli(endMS).UTC()
	return nil
}
