package mcp

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/formcoach/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog. Each entry has description, difficulty, target muscles and whether real-time rep counting and form scoring is available."),
)

var toolListActiveSessions = mcp.NewTool("list_active_sessions",
	mcp.WithDescription("List live exercise sessions with exercise, user, rep count, current stage and smoothed form score (0-100)."),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Retrieve finished workouts in a time range. Each workout has exercise, reps, sets, duration, form score, calories burned and rep tempo."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only return workouts of this exercise (e.g. 'Squat').")),
	mcp.WithString("user_id", mcp.Description("User to query. Defaults to the authenticated user.")),
)

var toolGetRecentWorkouts = mcp.NewTool("get_recent_workouts",
	mcp.WithDescription("Retrieve the most recent finished workouts, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts (1-100). Defaults to 10.")),
	mcp.WithString("user_id", mcp.Description("User to query. Defaults to the authenticated user.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Aggregate workouts in a time range per exercise: workout count, total reps, minutes, calories, average and best form score."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("user_id", mcp.Description("User to query. Defaults to the authenticated user.")),
)

// --- Tool handlers ---

func toolJSON(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(list)
}

func (h *handlers) listActiveSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.ds.ListSessions(ctx)
	if err != nil {
		h.log.Error("mcp list_active_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(sessions)
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := req.GetString("user_id", UserIDFromContext(ctx))

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if name := req.GetString("exercise", ""); name != "" {
		filtered := workouts[:0]
		for _, w := range workouts {
			if w.Exercise == name {
				filtered = append(filtered, w)
			}
		}
		workouts = filtered
	}
	return toolJSON(workouts)
}

func (h *handlers) getRecentWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit < 1 || limit > 100 {
		return mcp.NewToolResultError("limit must be between 1 and 100"), nil
	}
	uid := req.GetString("user_id", UserIDFromContext(ctx))

	workouts, err := h.ds.RecentWorkouts(ctx, uid, limit)
	if err != nil {
		h.log.Error("mcp get_recent_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(workouts)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := req.GetString("user_id", UserIDFromContext(ctx))

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(summarizeWorkouts(workouts))
}

// exerciseTotals aggregates the workouts of one exercise.
type exerciseTotals struct {
	Exercise      string  `json:"exercise"`
	Workouts      int     `json:"workouts"`
	Reps          int     `json:"reps"`
	Minutes       float64 `json:"minutes"`
	Calories      float64 `json:"calories"`
	AvgFormScore  float64 `json:"avg_form_score"`
	BestFormScore int     `json:"best_form_score"`
}

// summarizeWorkouts groups workouts by exercise, sorted by name.
func summarizeWorkouts(workouts []models.WorkoutRow) []exerciseTotals {
	byName := make(map[string]*exerciseTotals)
	for _, w := range workouts {
		t, ok := byName[w.Exercise]
		if !ok {
			t = &exerciseTotals{Exercise: w.Exercise}
			byName[w.Exercise] = t
		}
		t.Workouts++
		t.Reps += w.Reps
		t.Minutes += w.DurationMinutes()
		t.Calories += w.CaloriesBurned
		t.AvgFormScore += float64(w.FormScore)
		if w.FormScore > t.BestFormScore {
			t.BestFormScore = w.FormScore
		}
	}

	out := make([]exerciseTotals, 0, len(byName))
	for _, t := range byName {
		t.AvgFormScore = math.Round(t.AvgFormScore/float64(t.Workouts)*10) / 10
		t.Minutes = math.Round(t.Minutes*100) / 100
		t.Calories = math.Round(t.Calories*10) / 10
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exercise < out[j].Exercise })
	return out
}
