// Package storage persists the exercise catalog and finished workouts,
// either in Postgres or in a local SQLite file.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/formcoach/internal/models"
)

// Store is implemented by both the Postgres DB and the SQLite LocalDB.
type Store interface {
	ListExercises(ctx context.Context) ([]models.ExerciseRow, error)
	SeedExercises(ctx context.Context, rows []models.ExerciseRow) error
	SaveWorkout(ctx context.Context, w models.WorkoutRow) (models.WorkoutRow, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error)
	RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error)
	SetUserWeight(ctx context.Context, userID string, kg float64) error
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*LocalDB)(nil)
)

// DB wraps a pgxpool.Pool and provides repository methods.
type DB struct {
	Pool *pgxpool.Pool

	defaultWeightKg float64
}

// New creates a new DB with a connection pool. defaultWeightKg is used for
// calorie estimates of users without a stored weight.
func New(ctx context.Context, dsn string, defaultWeightKg float64) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool, defaultWeightKg: defaultWeightKg}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
