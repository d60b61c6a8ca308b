package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseRow is one entry of the exercise catalog.
type ExerciseRow struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"`
	Muscles     []string `json:"muscles"`
}

// ExerciseInfo is a catalog entry plus whether a real-time processor
// exists for it.
type ExerciseInfo struct {
	ExerciseRow
	Realtime bool `json:"realtime"`
}

// WorkoutRow is a finished session ready for insertion into the workouts table.
type WorkoutRow struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Exercise       string    `json:"exercise"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationSec    float64   `json:"duration_sec"`
	Reps           int       `json:"reps"`
	Sets           int       `json:"sets"`
	FormScore      int       `json:"form_score"`
	CaloriesBurned float64   `json:"calories_burned"`
	AvgRepSeconds  float64   `json:"avg_rep_seconds"`
	RepTempoStdDev float64   `json:"rep_tempo_stddev"`
}

// DurationMinutes is the workout duration in minutes.
func (w WorkoutRow) DurationMinutes() float64 {
	return w.DurationSec / 60
}
