package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postpilot/postpilot/internal/types"
)

// NetworkFetcher pulls recent activity (posts, reshares, articles) from the
// professional network's API for the user's profile.
type NetworkFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   RetryPolicy
	logger  *slog.Logger
}

// NewNetworkFetcher creates a fetcher against the given API base URL.
func NewNetworkFetcher(baseURL, apiKey string, retry RetryPolicy, logger *slog.Logger) *NetworkFetcher {
	return &NetworkFetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   retry,
		logger:  logger,
	}
}

// SourceType identifies this fetcher.
func (f *NetworkFetcher) SourceType() types.SourceType {
	return types.SourceNetwork
}

type networkActivity struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type networkActivityResponse struct {
	Activities []networkActivity `json:"activities"`
}

// Fetch returns network activity newer than the boundary.
func (f *NetworkFetcher) Fetch(ctx context.Context, prefs types.UserPreferences, boundary types.Boundary) ([]types.CandidateItem, error) {
	if prefs.NetworkProfile == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v1/profiles/%s/activity", f.baseURL, url.PathEscape(prefs.NetworkProfile))
	if !boundary.Unbounded() {
		endpoint += "?since=" + url.QueryEscape(boundary.Since.UTC().Format(time.RFC3339))
	}

	var resp networkActivityResponse
	err := f.retry.do(ctx, func() error {
		return f.getJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}

	var items []types.CandidateItem
	for _, a := range resp.Activities {
		if !withinBoundary(a.CreatedAt, boundary) {
			continue
		}
		items = append(items, types.CandidateItem{
			URL:         a.URL,
			Title:       activityTitle(a),
			BodyText:    a.Text,
			PublishedAt: a.CreatedAt,
			SourceType:  types.SourceNetwork,
			// Network conversations go stale within days.
			TimeSensitive: true,
		})
	}
	return items, nil
}

// activityTitle derives a short title from the activity text.
func activityTitle(a networkActivity) string {
	text := strings.TrimSpace(a.Text)
	if i := strings.IndexAny(text, "\r\n"); i > 0 {
		text = text[:i]
	}
	if len(text) > 120 {
		text = text[:117] + "..."
	}
	if a.Author != "" {
		return fmt.Sprintf("%s: %s", a.Author, text)
	}
	return text
}

func (f *NetworkFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("call network api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("network api returned status %d: %.200s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse network response: %w", err)
	}
	return nil
}
