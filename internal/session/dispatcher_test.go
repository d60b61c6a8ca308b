package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/metrics"
	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/pose"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCatalog map[string]string

func (c fakeCatalog) Canonicalize(_ context.Context, name string) (string, bool, error) {
	canonical, ok := c[name]
	return canonical, ok, nil
}

func (c fakeCatalog) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := c.Canonicalize(ctx, name)
	return ok, err
}

type fakeStore struct {
	mu   sync.Mutex
	rows []models.WorkoutRow
	err  error
}

func (s *fakeStore) SaveWorkout(_ context.Context, w models.WorkoutRow) (models.WorkoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.WorkoutRow{}, s.err
	}
	w.CaloriesBurned = 12.5
	s.rows = append(s.rows, w)
	return w, nil
}

// fakeProc counts a rep for every frame whose nose X is above 0.5.
type fakeProc struct {
	reps    int
	panicky bool
}

func (p *fakeProc) Kind() exercise.Kind { return exercise.KindSquat }

func (p *fakeProc) Process(f pose.Frame) exercise.Result {
	if !f.Complete() {
		r := p.Snapshot()
		r.Feedback = exercise.FeedbackNoPose
		return r
	}
	if p.panicky {
		panic("boom")
	}
	if f[pose.Nose].X > 0.5 {
		p.reps++
	}
	return p.Snapshot()
}

func (p *fakeProc) Snapshot() exercise.Result {
	return exercise.Result{RepCount: p.reps, Stage: exercise.StageUp, Score: 80}
}

func fakeLookup(name string) (exercise.Factory, bool) {
	switch name {
	case "Squat":
		return func(exercise.Thresholds) exercise.Processor { return &fakeProc{} }, true
	case "Broken":
		return func(exercise.Thresholds) exercise.Processor { return &fakeProc{panicky: true} }, true
	}
	return nil, false
}

func frame(rep bool) pose.Frame {
	f := make(pose.Frame, pose.NumLandmarks)
	for i := range f {
		f[i] = &pose.Landmark{X: 0.1, Y: 0.1}
	}
	if rep {
		f[pose.Nose].X = 0.9
	}
	return f
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	d     *Dispatcher
	store *fakeStore
	clock *clock
}

func newFixture(policy RestartPolicy) *fixture {
	store := &fakeStore{}
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	cat := fakeCatalog{
		"squat":  "Squat",
		"Squat":  "Squat",
		"Plank":  "Plank",
		"Broken": "Broken",
	}
	d := NewDispatcher(cat, store, metrics.NewTestManager(), Options{
		RestartPolicy: policy,
		Now:           clk.Now,
		Lookup:        fakeLookup,
	}, testLogger())
	return &fixture{d: d, store: store, clock: clk}
}

func TestStartUnknownExercise(t *testing.T) {
	fx := newFixture(RestartReplace)
	_, err := fx.d.Start(context.Background(), "c1", StartRequest{Exercise: "Yoga", UserID: "u1"})
	if !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("Start error = %v, want ErrExerciseNotFound", err)
	}
	if _, err := fx.d.Update("c1", frame(true)); !errors.Is(err, ErrNoSession) {
		t.Errorf("Update error = %v, want ErrNoSession", err)
	}
	if n := len(fx.d.Sessions()); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestStartWithoutProcessor(t *testing.T) {
	fx := newFixture(RestartReplace)
	_, err := fx.d.Start(context.Background(), "c1", StartRequest{Exercise: "Plank"})
	if !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("Start error = %v, want ErrProcessorUnavailable", err)
	}
	if _, ok := fx.d.Session("c1"); ok {
		t.Error("session created for exercise without processor")
	}
}

func TestSessionLifecycle(t *testing.T) {
	fx := newFixture(RestartReplace)
	ctx := context.Background()

	info, err := fx.d.Start(ctx, "c1", StartRequest{Exercise: "squat", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if info.Exercise != "Squat" || info.ID != "c1" {
		t.Errorf("Start = %+v", info)
	}

	// Reps at 2s, 5s and 10s.
	steps := []struct {
		advance time.Duration
		rep     bool
	}{
		{time.Second, false},
		{time.Second, true},
		{time.Second, false},
		{2 * time.Second, true},
		{5 * time.Second, true},
		{1500 * time.Millisecond, false},
	}
	for _, s := range steps {
		fx.clock.Advance(s.advance)
		if _, err := fx.d.Update("c1", frame(s.rep)); err != nil {
			t.Fatal(err)
		}
	}
	if res, _ := fx.d.Update("c1", nil); res.RepCount != 3 || res.Feedback != exercise.FeedbackNoPose {
		t.Errorf("incomplete frame result = %+v", res)
	}

	got, err := fx.d.End(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	want := &Summary{
		Exercise:        "Squat",
		Reps:            3,
		Sets:            1,
		Duration:        11.5,
		DurationMinutes: 0.19,
		FormScore:       80,
		CaloriesBurned:  12.5,
		AvgRepSeconds:   4,
		RepTempoStdDev:  1.4142135623730951,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Summary{}, "WorkoutID"), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if got.WorkoutID == uuid.Nil {
		t.Error("summary has no workout ID")
	}

	if len(fx.store.rows) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(fx.store.rows))
	}
	row := fx.store.rows[0]
	if row.UserID != "u1" || row.Reps != 3 || row.DurationSec != 11.5 {
		t.Errorf("stored row = %+v", row)
	}

	if _, err := fx.d.End(ctx, "c1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("second End error = %v, want ErrNoSession", err)
	}
}

func TestEndStoreFailureStillRemovesSession(t *testing.T) {
	fx := newFixture(RestartReplace)
	fx.store.err = errors.New("db down")
	ctx := context.Background()

	if _, err := fx.d.Start(ctx, "c1", StartRequest{Exercise: "Squat"}); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.d.End(ctx, "c1"); err == nil {
		t.Fatal("expected store error")
	}
	if _, ok := fx.d.Session("c1"); ok {
		t.Error("session still registered after failed End")
	}
}

func TestRestartPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("replace", func(t *testing.T) {
		fx := newFixture(RestartReplace)
		fx.d.Start(ctx, "c1", StartRequest{Exercise: "Squat"})
		fx.d.Update("c1", frame(true))
		if _, err := fx.d.Start(ctx, "c1", StartRequest{Exercise: "Squat"}); err != nil {
			t.Fatal(err)
		}
		info, _ := fx.d.Session("c1")
		if info.RepCount != 0 {
			t.Errorf("reps after replace = %d, want 0", info.RepCount)
		}
		if n := fx.d.reg.Len(); n != 1 {
			t.Errorf("sessions = %d, want 1", n)
		}
	})

	t.Run("reject", func(t *testing.T) {
		fx := newFixture(RestartReject)
		fx.d.Start(ctx, "c1", StartRequest{Exercise: "Squat"})
		fx.d.Update("c1", frame(true))
		if _, err := fx.d.Start(ctx, "c1", StartRequest{Exercise: "Squat"}); !errors.Is(err, ErrSessionActive) {
			t.Fatalf("second Start error = %v, want ErrSessionActive", err)
		}
		info, _ := fx.d.Session("c1")
		if info.RepCount != 1 {
			t.Errorf("reps after rejected restart = %d, want 1", info.RepCount)
		}
	})
}

func TestProcessingFaultIsolated(t *testing.T) {
	fx := newFixture(RestartReplace)
	ctx := context.Background()
	fx.d.Start(ctx, "bad", StartRequest{Exercise: "Broken"})
	fx.d.Start(ctx, "good", StartRequest{Exercise: "Squat"})

	if _, err := fx.d.Update("bad", frame(true)); !errors.Is(err, ErrProcessingFault) {
		t.Fatalf("Update error = %v, want ErrProcessingFault", err)
	}
	if _, ok := fx.d.Session("bad"); !ok {
		t.Error("faulting session was removed")
	}
	res, err := fx.d.Update("good", frame(true))
	if err != nil || res.RepCount != 1 {
		t.Errorf("healthy session Update = %+v, %v", res, err)
	}
}

func TestDisconnectDoesNotPersist(t *testing.T) {
	fx := newFixture(RestartReplace)
	fx.d.Start(context.Background(), "c1", StartRequest{Exercise: "Squat"})
	fx.d.Update("c1", frame(true))
	fx.d.Disconnect("c1")
	fx.d.Disconnect("c1")

	if len(fx.store.rows) != 0 {
		t.Errorf("stored rows = %d, want 0", len(fx.store.rows))
	}
	if _, err := fx.d.Update("c1", frame(true)); !errors.Is(err, ErrNoSession) {
		t.Errorf("Update after disconnect = %v, want ErrNoSession", err)
	}
}

func TestConcurrentSessions(t *testing.T) {
	fx := newFixture(RestartReplace)
	ctx := context.Background()

	const conns, frames = 16, 200
	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		id := uuid.NewString()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fx.d.Start(ctx, id, StartRequest{Exercise: "Squat"}); err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < frames; j++ {
				fx.d.Update(id, frame(j%2 == 0))
			}
			fx.d.Sessions()
			sum, err := fx.d.End(ctx, id)
			if err != nil {
				t.Error(err)
				return
			}
			if sum.Reps != frames/2 {
				t.Errorf("reps = %d, want %d", sum.Reps, frames/2)
			}
		}()
	}
	wg.Wait()

	if n := len(fx.store.rows); n != conns {
		t.Errorf("stored rows = %d, want %d", n, conns)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(sec float64) RepMark {
		return RepMark{At: start.Add(time.Duration(sec * float64(time.Second)))}
	}

	tests := []struct {
		name string
		rec  Record
		want Summary
	}{
		{
			name: "no reps",
			rec:  Record{Exercise: "Lunge", Start: start, End: start.Add(90 * time.Second)},
			want: Summary{Exercise: "Lunge", Sets: 1, Duration: 90, DurationMinutes: 1.5},
		},
		{
			name: "single interval",
			rec: Record{Exercise: "Squat", Reps: 2, Start: start, End: start.Add(10 * time.Second),
				History: []RepMark{at(2), at(5)}},
			want: Summary{Exercise: "Squat", Reps: 2, Sets: 1, Duration: 10, DurationMinutes: 0.17, AvgRepSeconds: 3},
		},
		{
			name: "end before start",
			rec:  Record{Exercise: "Squat", Start: start, End: start.Add(-time.Second)},
			want: Summary{Exercise: "Squat", Sets: 1},
		},
		{
			name: "rounding",
			rec:  Record{Exercise: "Squat", Start: start, End: start.Add(12345 * time.Millisecond)},
			want: Summary{Exercise: "Squat", Sets: 1, Duration: 12.3, DurationMinutes: 0.21},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.rec)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
