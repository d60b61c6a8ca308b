package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/claude/formcoach/internal/models"
)

// Record is what a finished session hands to the finalizer.
type Record struct {
	Exercise string
	UserID   string
	Reps     int
	Score    int
	Start    time.Time
	End      time.Time
	History  []RepMark
}

// Summary is reported to the client after a session was saved.
type Summary struct {
	WorkoutID       uuid.UUID `json:"workoutId"`
	Exercise        string    `json:"exercise"`
	Reps            int       `json:"reps"`
	Sets            int       `json:"sets"`
	Duration        float64   `json:"duration"`
	DurationMinutes float64   `json:"durationMinutes"`
	FormScore       int       `json:"formScore"`
	CaloriesBurned  float64   `json:"caloriesBurned"`
	AvgRepSeconds   float64   `json:"avgRepSeconds"`
	RepTempoStdDev  float64   `json:"repTempoStdDev"`
}

// Finalizer turns a Record into a stored workout.
type Finalizer struct {
	store WorkoutStore
	log   *slog.Logger
}

func NewFinalizer(store WorkoutStore, log *slog.Logger) *Finalizer {
	return &Finalizer{store: store, log: log}
}

// Finalize saves the workout and returns its summary.
func (f *Finalizer) Finalize(ctx context.Context, rec Record) (*Summary, error) {
	sum := Summarize(rec)
	row := models.WorkoutRow{
		ID:             uuid.New(),
		UserID:         rec.UserID,
		Exercise:       sum.Exercise,
		StartTime:      rec.Start,
		EndTime:        rec.End,
		DurationSec:    rec.End.Sub(rec.Start).Seconds(),
		Reps:           sum.Reps,
		Sets:           sum.Sets,
		FormScore:      sum.FormScore,
		AvgRepSeconds:  sum.AvgRepSeconds,
		RepTempoStdDev: sum.RepTempoStdDev,
	}

	saved, err := f.store.SaveWorkout(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	sum.WorkoutID = saved.ID
	sum.CaloriesBurned = saved.CaloriesBurned
	f.log.Debug("workout saved", "workout", saved.ID, "user", rec.UserID, "reps", sum.Reps)
	return &sum, nil
}

// Summarize computes the summary fields that do not depend on the store.
// Tempo statistics need at least two reps.
func Summarize(rec Record) Summary {
	elapsed := rec.End.Sub(rec.Start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	sum := Summary{
		Exercise:        rec.Exercise,
		Reps:            rec.Reps,
		Sets:            1,
		Duration:        math.Round(elapsed*10) / 10,
		DurationMinutes: math.Round(elapsed/60*100) / 100,
		FormScore:       rec.Score,
	}

	if len(rec.History) < 2 {
		return sum
	}
	intervals := make([]float64, 0, len(rec.History)-1)
	for i := 1; i < len(rec.History); i++ {
		intervals = append(intervals, rec.History[i].At.Sub(rec.History[i-1].At).Seconds())
	}
	if len(intervals) == 1 {
		sum.AvgRepSeconds = intervals[0]
		return sum
	}
	mean, std := stat.MeanStdDev(intervals, nil)
	sum.AvgRepSeconds = mean
	sum.RepTempoStdDev = std
	return sum
}
