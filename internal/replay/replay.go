// Package replay feeds recorded pose frames through a session offline,
// for tuning thresholds against captured footage.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/metrics"
	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/pose"
	"github.com/claude/formcoach/internal/session"
	"github.com/claude/formcoach/internal/storage"
)

const (
	connID       = "replay"
	maxLineBytes = 4 << 20
)

// Record is one line of a recording. T is the capture time in
// milliseconds since the start of the recording.
type Record struct {
	T             float64    `json:"t"`
	PoseLandmarks pose.Frame `json:"poseLandmarks"`
}

// ParseRecord decodes a recording line. Lines may be a Record object or a
// bare landmark array; bare arrays carry no timestamp.
func ParseRecord(line []byte) (rec Record, timed bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) > 0 && line[0] == '[' {
		err = json.Unmarshal(line, &rec.PoseLandmarks)
		return rec, false, err
	}
	var probe struct {
		T *float64 `json:"t"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return Record{}, false, err
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, probe.T != nil, nil
}

// Options control a replay run.
type Options struct {
	Exercise   string
	UserID     string
	Thresholds exercise.Thresholds
	// FPS spaces untimed frames. Defaults to 30.
	FPS float64
	// OnResult, if set, sees every processed frame.
	OnResult func(frame int, res exercise.Result)
}

// Stats summarizes a replay.
type Stats struct {
	Frames      int
	Incomplete  int
	Skipped     int
	Transitions int
	// RepFrames holds the frame index at which each rep was counted.
	RepFrames []int
	Summary   *session.Summary
}

// Replayer drives recorded frames through the session engine.
type Replayer struct {
	catalog session.Catalog
	store   session.WorkoutStore
	log     *slog.Logger
}

// New creates a Replayer. The store receives the finished workout.
func New(cat session.Catalog, store session.WorkoutStore, log *slog.Logger) *Replayer {
	return &Replayer{catalog: cat, store: store, log: log}
}

// Run replays r line by line. Unparseable lines are logged and skipped.
func (rp *Replayer) Run(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	step := time.Duration(float64(time.Second) / opts.FPS)
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base

	d := session.NewDispatcher(rp.catalog, rp.store,
		metrics.NewManager("formcoach", "replay", prometheus.NewRegistry()),
		session.Options{
			Thresholds: opts.Thresholds,
			Now:        func() time.Time { return now },
		}, rp.log)

	if _, err := d.Start(ctx, connID, session.StartRequest{Exercise: opts.Exercise, UserID: opts.UserID}); err != nil {
		return nil, fmt.Errorf("starting replay session: %w", err)
	}

	stats := &Stats{}
	var last exercise.Result
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		rec, timed, err := ParseRecord(sc.Bytes())
		if err != nil {
			stats.Skipped++
			rp.log.Warn("skipping malformed line", "line", line, "error", err)
			continue
		}
		if timed {
			now = base.Add(time.Duration(rec.T * float64(time.Millisecond)))
		} else if stats.Frames > 0 {
			now = now.Add(step)
		}

		res, err := d.Update(connID, rec.PoseLandmarks)
		if err != nil {
			return stats, fmt.Errorf("frame %d: %w", stats.Frames, err)
		}
		if res.Feedback == exercise.FeedbackNoPose {
			stats.Incomplete++
		}
		if stats.Frames > 0 && res.Stage != last.Stage {
			stats.Transitions++
		}
		if res.RepCount > last.RepCount {
			stats.RepFrames = append(stats.RepFrames, stats.Frames)
		}
		if opts.OnResult != nil {
			opts.OnResult(stats.Frames, res)
		}
		last = res
		stats.Frames++
	}
	if err := sc.Err(); err != nil {
		d.Disconnect(connID)
		return stats, fmt.Errorf("reading recording: %w", err)
	}

	summary, err := d.End(ctx, connID)
	if err != nil {
		return stats, fmt.Errorf("finalizing replay: %w", err)
	}
	stats.Summary = summary
	return stats, nil
}

// StaticSource serves a fixed exercise catalog.
type StaticSource []models.ExerciseRow

func (s StaticSource) ListExercises(context.Context) ([]models.ExerciseRow, error) {
	return s, nil
}

// DryRunStore estimates calories like the real stores but keeps nothing.
type DryRunStore struct {
	WeightKg float64
}

func (s DryRunStore) SaveWorkout(_ context.Context, w models.WorkoutRow) (models.WorkoutRow, error) {
	w.CaloriesBurned = storage.EstimateCalories(w.Exercise, w.DurationMinutes(), s.WeightKg)
	return w, nil
}
