package storage

import (
	"context"
	"fmt"

	"github.com/claude/formcoach/internal/models"
)

// ListExercises returns the catalog ordered by ID.
func (db *DB) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, description, difficulty, muscles FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var e models.ExerciseRow
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Difficulty, &e.Muscles); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// SeedExercises inserts catalog entries that do not exist yet.
func (db *DB) SeedExercises(ctx context.Context, rows []models.ExerciseRow) error {
	for _, e := range rows {
		muscles := e.Muscles
		if muscles == nil {
			muscles = []string{}
		}
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO exercises (name, description, difficulty, muscles)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name) DO NOTHING`,
			e.Name, e.Description, e.Difficulty, muscles)
		if err != nil {
			return fmt.Errorf("seeding exercise %s: %w", e.Name, err)
		}
	}
	return nil
}
