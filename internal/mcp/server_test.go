package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/session"
)

// TestUserIDFromContextDefault verifies the default user ID when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != DefaultUserID {
		t.Errorf("UserIDFromContext(empty) = %q, want %q", id, DefaultUserID)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), "alice@example.com")
	if id := UserIDFromContext(ctx); id != "alice@example.com" {
		t.Errorf("UserIDFromContext = %q, want alice@example.com", id)
	}
}

// TestDefaultTimeRange verifies time range defaults (last 7 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to last 7 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 { // ~168 hours = 7 days
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Year() != 2024 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

type fakeSource struct {
	workouts []models.WorkoutRow
	gotUser  string
	gotLimit int
}

func (f *fakeSource) ListExercises(context.Context) ([]models.ExerciseInfo, error) {
	return []models.ExerciseInfo{{ExerciseRow: models.ExerciseRow{Name: "Squat"}, Realtime: true}}, nil
}

func (f *fakeSource) ListSessions(context.Context) ([]session.Info, error) {
	return []session.Info{{ID: "c1", Exercise: "Squat", RepCount: 4}}, nil
}

func (f *fakeSource) QueryWorkouts(_ context.Context, _, _ time.Time, userID string) ([]models.WorkoutRow, error) {
	f.gotUser = userID
	return f.workouts, nil
}

func (f *fakeSource) RecentWorkouts(_ context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	f.gotUser, f.gotLimit = userID, limit
	return f.workouts, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestGetRecentWorkoutsTool(t *testing.T) {
	src := &fakeSource{workouts: []models.WorkoutRow{{Exercise: "Squat", Reps: 12}}}
	h := newHandlers(src)
	ctx := WithUserID(context.Background(), "bob")

	res, err := h.getRecentWorkouts(ctx, callTool("get_recent_workouts", map[string]any{"limit": float64(5)}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if src.gotUser != "bob" || src.gotLimit != 5 {
		t.Errorf("query = (%q, %d), want (bob, 5)", src.gotUser, src.gotLimit)
	}
	var rows []models.WorkoutRow
	if err := json.Unmarshal([]byte(resultText(t, res)), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Reps != 12 {
		t.Errorf("rows = %+v", rows)
	}

	res, _ = h.getRecentWorkouts(ctx, callTool("get_recent_workouts", map[string]any{"limit": float64(1000)}))
	if !res.IsError {
		t.Error("limit 1000 accepted")
	}
}

func TestGetWorkoutsToolFilters(t *testing.T) {
	src := &fakeSource{workouts: []models.WorkoutRow{
		{Exercise: "Squat", Reps: 10},
		{Exercise: "Lunge", Reps: 8},
		{Exercise: "Squat", Reps: 15},
	}}
	h := newHandlers(src)

	res, err := h.getWorkouts(context.Background(), callTool("get_workouts", map[string]any{
		"exercise": "Squat",
		"user_id":  "carol",
		"start":    "2026-01-01",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if src.gotUser != "carol" {
		t.Errorf("user = %q, want carol", src.gotUser)
	}
	var rows []models.WorkoutRow
	if err := json.Unmarshal([]byte(resultText(t, res)), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d workouts, want 2 squats", len(rows))
	}

	res, _ = h.getWorkouts(context.Background(), callTool("get_workouts", map[string]any{"start": "soon"}))
	if !res.IsError {
		t.Error("bad start date accepted")
	}
}

func TestSummarizeWorkouts(t *testing.T) {
	got := summarizeWorkouts([]models.WorkoutRow{
		{Exercise: "Squat", Reps: 10, DurationSec: 90, CaloriesBurned: 5.2, FormScore: 80},
		{Exercise: "Lunge", Reps: 8, DurationSec: 60, CaloriesBurned: 4, FormScore: 70},
		{Exercise: "Squat", Reps: 15, DurationSec: 120, CaloriesBurned: 7.1, FormScore: 91},
	})
	want := []exerciseTotals{
		{Exercise: "Lunge", Workouts: 1, Reps: 8, Minutes: 1, Calories: 4, AvgFormScore: 70, BestFormScore: 70},
		{Exercise: "Squat", Workouts: 2, Reps: 25, Minutes: 3.5, Calories: 12.3, AvgFormScore: 85.5, BestFormScore: 91},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summarizeWorkouts mismatch (-want +got):\n%s", diff)
	}
}

func TestResources(t *testing.T) {
	h := newHandlers(&fakeSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = resActiveSessions.URI

	contents, err := h.activeSessions(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T", contents[0])
	}
	var infos []session.Info
	if err := json.Unmarshal([]byte(text.Text), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].RepCount != 4 {
		t.Errorf("sessions = %+v", infos)
	}
}

// TestNewBuildsServer verifies New wires the handlers without panicking.
func TestNewBuildsServer(t *testing.T) {
	if s := New(&fakeSource{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); s == nil {
		t.Fatal("New returned nil")
	}
}
