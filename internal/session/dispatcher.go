package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/metrics"
	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/pose"
)

// Catalog resolves requested exercise names.
type Catalog interface {
	Exists(ctx context.Context, name string) (bool, error)
	Canonicalize(ctx context.Context, name string) (canonical string, ok bool, err error)
}

// WorkoutStore persists finished sessions. The returned row carries
// store-assigned fields such as the ID and the calorie estimate.
type WorkoutStore interface {
	SaveWorkout(ctx context.Context, w models.WorkoutRow) (models.WorkoutRow, error)
}

// RestartPolicy decides what Start does when the connection already has a
// session.
type RestartPolicy string

const (
	RestartReplace RestartPolicy = "replace"
	RestartReject  RestartPolicy = "reject"
)

// StartRequest is the payload of a session start.
type StartRequest struct {
	Exercise string `json:"exercise"`
	UserID   string `json:"userId"`
}

// Options tune a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Thresholds    exercise.Thresholds
	RestartPolicy RestartPolicy
	Now           func() time.Time
	// Lookup resolves canonical names to processor factories.
	Lookup func(name string) (exercise.Factory, bool)
}

// Dispatcher routes session events to the right processor.
type Dispatcher struct {
	reg     *Registry
	catalog Catalog
	final   *Finalizer
	th      exercise.Thresholds
	policy  RestartPolicy
	now     func() time.Time
	lookup  func(name string) (exercise.Factory, bool)
	metrics *metrics.Manager
	log     *slog.Logger
}

func NewDispatcher(cat Catalog, store WorkoutStore, m *metrics.Manager, opts Options, log *slog.Logger) *Dispatcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Lookup == nil {
		opts.Lookup = exercise.Lookup
	}
	if opts.RestartPolicy == "" {
		opts.RestartPolicy = RestartReplace
	}
	if opts.Thresholds == (exercise.Thresholds{}) {
		opts.Thresholds = exercise.DefaultThresholds()
	}
	return &Dispatcher{
		reg:     NewRegistry(),
		catalog: cat,
		final:   NewFinalizer(store, log),
		th:      opts.Thresholds,
		policy:  opts.RestartPolicy,
		now:     opts.Now,
		lookup:  opts.Lookup,
		metrics: m,
		log:     log,
	}
}

// Sessions returns snapshots of all live sessions.
func (d *Dispatcher) Sessions() []Info {
	return d.reg.List()
}

// Session returns the snapshot of one live session.
func (d *Dispatcher) Session(connID string) (Info, bool) {
	s, ok := d.reg.get(connID)
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

// Start validates the exercise and creates a session for connID.
func (d *Dispatcher) Start(ctx context.Context, connID string, req StartRequest) (Info, error) {
	canonical, ok, err := d.catalog.Canonicalize(ctx, req.Exercise)
	if err != nil {
		d.metrics.CounterSessionsRejected.WithLabelValues("catalog_error").Inc()
		return Info{}, fmt.Errorf("resolving exercise %q: %w", req.Exercise, err)
	}
	if !ok {
		d.metrics.CounterSessionsRejected.WithLabelValues("not_found").Inc()
		return Info{}, fmt.Errorf("%w: %q", ErrExerciseNotFound, req.Exercise)
	}
	factory, ok := d.lookup(canonical)
	if !ok {
		d.metrics.CounterSessionsRejected.WithLabelValues("no_processor").Inc()
		return Info{}, fmt.Errorf("%w: %q", ErrProcessorUnavailable, canonical)
	}

	s := newSession(connID, canonical, req.UserID, factory(d.th), d.now())

	switch d.policy {
	case RestartReject:
		if !d.reg.insert(s) {
			d.metrics.CounterSessionsRejected.WithLabelValues("active").Inc()
			return Info{}, ErrSessionActive
		}
		d.metrics.GaugeActiveSessions.Inc()
	default:
		if prev := d.reg.replace(s); prev != nil {
			d.metrics.CounterSessionsEnded.WithLabelValues("replaced").Inc()
			d.log.Info("replacing active session", "session", connID, "previous", prev.exercise)
		} else {
			d.metrics.GaugeActiveSessions.Inc()
		}
	}

	d.metrics.CounterSessionsStarted.WithLabelValues(canonical).Inc()
	d.log.Info("session started", "session", connID, "exercise", canonical, "user", req.UserID)
	return s.info(), nil
}

// Update feeds one frame to the connection's processor. Frames for a
// connection must be passed in receive order.
func (d *Dispatcher) Update(connID string, f pose.Frame) (res exercise.Result, err error) {
	s, ok := d.reg.get(connID)
	if !ok {
		d.log.Warn("pose update without session", "session", connID)
		return exercise.Result{}, ErrNoSession
	}

	defer func() {
		if r := recover(); r != nil {
			d.metrics.CounterProcessingFaults.Inc()
			d.log.Error("processor panic", "session", connID, "exercise", s.exercise, "panic", r)
			res, err = exercise.Result{}, fmt.Errorf("%w: %v", ErrProcessingFault, r)
		}
	}()

	start := time.Now()
	res, newReps := s.process(f, d.now())
	d.metrics.HistFrameDuration.Observe(time.Since(start).Seconds())
	d.metrics.CounterFrames.WithLabelValues(s.exercise).Inc()
	if newReps > 0 {
		d.metrics.CounterReps.WithLabelValues(s.exercise).Add(float64(newReps))
	}
	return res, nil
}

// End removes the session and hands it to the finalizer. The session is
// gone even when persisting fails.
func (d *Dispatcher) End(ctx context.Context, connID string) (*Summary, error) {
	s, ok := d.reg.remove(connID)
	if !ok {
		return nil, ErrNoSession
	}
	d.metrics.GaugeActiveSessions.Dec()
	d.metrics.CounterSessionsEnded.WithLabelValues("end").Inc()

	rec := s.record(d.now())
	d.metrics.HistSessionDuration.WithLabelValues(rec.Exercise).Observe(rec.End.Sub(rec.Start).Seconds())

	summary, err := d.final.Finalize(ctx, rec)
	if err != nil {
		d.log.Error("finalizing session", "session", connID, "exercise", rec.Exercise, "error", err)
		return nil, err
	}
	d.log.Info("session ended", "session", connID, "exercise", rec.Exercise, "reps", summary.Reps)
	return summary, nil
}

// Disconnect drops the connection's session without persisting it.
func (d *Dispatcher) Disconnect(connID string) {
	if _, ok := d.reg.remove(connID); ok {
		d.metrics.GaugeActiveSessions.Dec()
		d.metrics.CounterSessionsEnded.WithLabelValues("disconnect").Inc()
		d.log.Info("cleared session on disconnect", "session", connID)
	}
}

// reapIdle drops sessions not updated since cutoff.
func (d *Dispatcher) reapIdle(cutoff time.Time) int {
	removed := d.reg.removeIdle(cutoff)
	for _, s := range removed {
		d.metrics.GaugeActiveSessions.Dec()
		d.metrics.CounterSessionsReaped.Inc()
		d.metrics.CounterSessionsEnded.WithLabelValues("idle").Inc()
		d.log.Info("reaped idle session", "session", s.id, "exercise", s.exercise)
	}
	return len(removed)
}
