package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SuggestedSourceURLs returns the source URLs of the user's suggested posts
// created since the given time. These feed the run boundary's exclusion set
// so re-returned source content is never suggested twice.
func (s *Store) SuggestedSourceURLs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_url FROM suggested_posts
		WHERE user_id = ? AND created_at >= ? AND source_url != ''
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("query suggested source urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u sql.NullString
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		if u.Valid && u.String != "" {
			urls = append(urls, u.String)
		}
	}
	return urls, rows.Err()
}

// GetSuggestedPosts returns the user's posts with the given status, newest
// first.
func (s *Store) GetSuggestedPosts(ctx context.Context, userID, status string, limit int) ([]SuggestedPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, idea_bank_id, title, content, platform,
			topics, source_url, recommendation_score, status, created_at
		FROM suggested_posts
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query suggested posts: %w", err)
	}
	defer rows.Close()

	var posts []SuggestedPost
	for rows.Next() {
		var p SuggestedPost
		var ideaBankID, topicsJSON, sourceURL sql.NullString

		err := rows.Scan(&p.ID, &p.UserID, &ideaBankID, &p.Title, &p.Content, &p.Platform,
			&topicsJSON, &sourceURL, &p.RecommendationScore, &p.Status, &p.CreatedAt)
		if err != nil {
			return nil, err
		}

		p.IdeaBankID = ideaBankID.String
		p.SourceURL = sourceURL.String
		if topicsJSON.Valid {
			json.Unmarshal([]byte(topicsJSON.String), &p.Topics)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountSuggestedPosts returns how many posts the user has in each of the
// scheduled and dismissed states. Feeds the analysis-scope audit summary.
func (s *Store) CountSuggestedPosts(ctx context.Context, userID string) (scheduled, dismissed int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END)
		FROM suggested_posts WHERE user_id = ?
	`, StatusScheduled, StatusDismissed, userID).Scan(&scheduled, &dismissed)
	if err != nil {
		return 0, 0, fmt.Errorf("count suggested posts: %w", err)
	}
	return scheduled, dismissed, nil
}
