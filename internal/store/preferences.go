package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/postpilot/postpilot/internal/types"
)

// GetUserPreferences returns the user's pipeline preferences, or nil if the
// user is unknown.
func (s *Store) GetUserPreferences(ctx context.Context, userID string) (*types.UserPreferences, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, bio, writing_style, topics, platform,
			newsletter_ids, website_urls, network_profile
		FROM user_preferences
		WHERE user_id = ?
	`, userID)

	var p types.UserPreferences
	var topicsJSON, newslettersJSON, websitesJSON sql.NullString
	var bio, style, platform, network sql.NullString

	err := row.Scan(&p.UserID, &bio, &style, &topicsJSON, &platform,
		&newslettersJSON, &websitesJSON, &network)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user preferences: %w", err)
	}

	p.Bio = bio.String
	p.WritingStyle = style.String
	p.Platform = platform.String
	p.NetworkProfile = network.String
	if topicsJSON.Valid {
		json.Unmarshal([]byte(topicsJSON.String), &p.Topics)
	}
	if newslettersJSON.Valid {
		json.Unmarshal([]byte(newslettersJSON.String), &p.NewsletterIDs)
	}
	if websitesJSON.Valid {
		json.Unmarshal([]byte(websitesJSON.String), &p.WebsiteURLs)
	}

	return &p, nil
}

// SaveUserPreferences inserts or updates a user's preferences.
func (s *Store) SaveUserPreferences(ctx context.Context, p *types.UserPreferences) error {
	topicsJSON, _ := json.Marshal(p.Topics)
	newslettersJSON, _ := json.Marshal(p.NewsletterIDs)
	websitesJSON, _ := json.Marshal(p.WebsiteURLs)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, bio, writing_style, topics, platform,
			newsletter_ids, website_urls, network_profile)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			bio = excluded.bio,
			writing_style = excluded.writing_style,
			topics = excluded.topics,
			platform = excluded.platform,
			newsletter_ids = excluded.newsletter_ids,
			website_urls = excluded.website_urls,
			network_profile = excluded.network_profile
	`, p.UserID, p.Bio, p.WritingStyle, string(topicsJSON), p.Platform,
		string(newslettersJSON), string(websitesJSON), p.NetworkProfile)
	if err != nil {
		return fmt.Errorf("save user preferences: %w", err)
	}
	return nil
}
