package mcp

import (
	"context"
	"time"

	"github.com/claude/formcoach/internal/catalog"
	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/session"
	"github.com/claude/formcoach/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context) ([]models.ExerciseInfo, error)
	ListSessions(ctx context.Context) ([]session.Info, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error)
	RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error)
}

// Local serves MCP requests from the running engine.
type Local struct {
	Catalog    *catalog.Catalog
	Dispatcher *session.Dispatcher
	Store      storage.Store
}

var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

func (l *Local) ListExercises(ctx context.Context) ([]models.ExerciseInfo, error) {
	return l.Catalog.Available(ctx)
}

func (l *Local) ListSessions(context.Context) ([]session.Info, error) {
	return l.Dispatcher.Sessions(), nil
}

func (l *Local) QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error) {
	return l.Store.QueryWorkouts(ctx, start, end, userID)
}

func (l *Local) RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	return l.Store.RecentWorkouts(ctx, userID, limit)
}
