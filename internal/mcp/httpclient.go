package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/session"
)

// HTTPClient implements DataSource by calling the formcoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// sessions and workouts live on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.ExerciseInfo, error) {
	var out []models.ExerciseInfo
	if err := c.get(ctx, "/api/v1/exercises", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]session.Info, error) {
	var out []session.Info
	if err := c.get(ctx, "/api/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, start, end time.Time, userID string) ([]models.WorkoutRow, error) {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	if userID != "" {
		v.Set("user_id", userID)
	}
	var out []models.WorkoutRow
	if err := c.get(ctx, "/api/v1/workouts", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) RecentWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	if userID != "" {
		v.Set("user_id", userID)
	}
	var out []models.WorkoutRow
	if err := c.get(ctx, "/api/v1/workouts/recent", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
