package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SetUserWeight stores the body weight used for calorie estimates.
func (db *DB) SetUserWeight(ctx context.Context, userID string, kg float64) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, weight_kg)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
			SET weight_kg = $2, last_seen = NOW()
	`, userID, kg)
	if err != nil {
		return fmt.Errorf("setting user weight: %w", err)
	}
	return nil
}

// userWeight returns the stored weight or the configured default.
func (db *DB) userWeight(ctx context.Context, userID string) (float64, error) {
	var kg *float64
	err := db.Pool.QueryRow(ctx, `SELECT weight_kg FROM users WHERE id = $1`, userID).Scan(&kg)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && (kg == nil || *kg <= 0)) {
		return db.defaultWeightKg, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying user weight: %w", err)
	}
	return *kg, nil
}
