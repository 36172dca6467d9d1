package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/postpilot/postpilot/internal/types"
)

// NewsletterFetcher pulls recent posts from the newsletter platform's API
// for each publication the user follows.
type NewsletterFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   RetryPolicy
	logger  *slog.Logger
}

// NewNewsletterFetcher creates a fetcher against the given API base URL.
func NewNewsletterFetcher(baseURL, apiKey string, retry RetryPolicy, logger *slog.Logger) *NewsletterFetcher {
	return &NewsletterFetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   retry,
		logger:  logger,
	}
}

// SourceType identifies this fetcher.
func (f *NewsletterFetcher) SourceType() types.SourceType {
	return types.SourceNewsletter
}

type newsletterPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ContentText string    `json:"content_text"`
	PublishedAt time.Time `json:"published_at"`
}

type newsletterPostsResponse struct {
	Posts []newsletterPost `json:"posts"`
}

// Fetch returns posts published after the boundary across the user's
// publications. A publication that fails after retries is skipped; the
// fetcher only errors when every publication fails.
func (f *NewsletterFetcher) Fetch(ctx context.Context, prefs types.UserPreferences, boundary types.Boundary) ([]types.CandidateItem, error) {
	if len(prefs.NewsletterIDs) == 0 {
		return nil, nil
	}

	var items []types.CandidateItem
	failures := 0
	for _, pubID := range prefs.NewsletterIDs {
		posts, err := f.fetchPublication(ctx, pubID, boundary)
		if err != nil {
			failures++
			f.logger.Warn("newsletter publication fetch failed", "publication", pubID, "error", err)
			continue
		}
		items = append(items, posts...)
	}
	if failures == len(prefs.NewsletterIDs) {
		return nil, fmt.Errorf("all %d newsletter publications failed", failures)
	}
	return items, nil
}

func (f *NewsletterFetcher) fetchPublication(ctx context.Context, pubID string, boundary types.Boundary) ([]types.CandidateItem, error) {
	endpoint := fmt.Sprintf("%s/v1/publications/%s/posts", f.baseURL, url.PathEscape(pubID))
	if !boundary.Unbounded() {
		endpoint += "?since=" + url.QueryEscape(boundary.Since.UTC().Format(time.RFC3339))
	}

	var resp newsletterPostsResponse
	err := f.retry.do(ctx, func() error {
		return f.getJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}

	var items []types.CandidateItem
	for _, p := range resp.Posts {
		if !withinBoundary(p.PublishedAt, boundary) {
			continue
		}
		items = append(items, types.CandidateItem{
			URL:         p.URL,
			Title:       p.Title,
			BodyText:    p.ContentText,
			PublishedAt: p.PublishedAt,
			SourceType:  types.SourceNewsletter,
			// Newsletter issues are news-style by nature: stale issues
			// make poor post material.
			TimeSensitive: true,
		})
	}
	return items, nil
}

func (f *NewsletterFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
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
		return fmt.Errorf("call newsletter api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("newsletter api returned status %d: %.200s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse newsletter response: %w", err)
	}
	return nil
}
