package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSuperseded means another run committed for the same user between this
// run's state read and its commit. The losing run's output is discarded.
var ErrSuperseded = errors.New("analysis state changed since read; run superseded")

// GetAnalysisState returns the user's incremental-processing state, or nil
// if the user has never been analyzed. A missing row is not an error.
func (s *Store) GetAnalysisState(ctx context.Context, userID string) (*AnalysisState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, last_analysis_at, last_analyzed_post_id, last_analyzed_message_id, analysis_scope
		FROM analysis_state
		WHERE user_id = ?
	`, userID)

	var st AnalysisState
	var lastAt sql.NullTime
	var postID, messageID, scopeJSON sql.NullString

	if err := row.Scan(&st.UserID, &lastAt, &postID, &messageID, &scopeJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query analysis state: %w", err)
	}

	if lastAt.Valid {
		t := lastAt.Time
		st.LastAnalysisAt = &t
	}
	st.LastAnalyzedPostID = postID.String
	st.LastAnalyzedMessageID = messageID.String
	if scopeJSON.Valid && scopeJSON.String != "" {
		if err := json.Unmarshal([]byte(scopeJSON.String), &st.Scope); err != nil {
			return nil, fmt.Errorf("decode analysis scope: %w", err)
		}
	}

	return &st, nil
}

// RunCommit is everything a completed run writes in one transaction: the
// generated posts and the advanced analysis state.
type RunCommit struct {
	UserID string

	// ReadAt is the last_analysis_at value observed when the run began
	// (nil for a first run). The commit only applies if the stored value
	// still matches; otherwise ErrSuperseded is returned and nothing is
	// written.
	ReadAt *time.Time

	CompletedAt           time.Time
	LastAnalyzedPostID    string
	LastAnalyzedMessageID string
	Scope                 AnalysisScope
	Posts                 []SuggestedPost
}

// CommitRun inserts the run's suggested posts and advances the analysis
// state atomically. Either both are durable or neither is.
func (s *Store) CommitRun(ctx context.Context, rc RunCommit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	if err := checkUnchanged(ctx, tx, rc.UserID, rc.ReadAt); err != nil {
		return err
	}

	for i := range rc.Posts {
		p := &rc.Posts[i]
		topicsJSON, _ := json.Marshal(p.Topics)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suggested_posts (id, user_id, idea_bank_id, title, content, platform,
				topics, source_url, recommendation_score, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.UserID, nullable(p.IdeaBankID), p.Title, p.Content, p.Platform,
			string(topicsJSON), p.SourceURL, p.RecommendationScore, p.Status, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert suggested post %s: %w", p.ID, err)
		}
	}

	scopeJSON, err := json.Marshal(rc.Scope)
	if err != nil {
		return fmt.Errorf("encode analysis scope: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_state (user_id, last_analysis_at, last_analyzed_post_id,
			last_analyzed_message_id, analysis_scope, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			last_analysis_at = excluded.last_analysis_at,
			last_analyzed_post_id = excluded.last_analyzed_post_id,
			last_analyzed_message_id = excluded.last_analyzed_message_id,
			analysis_scope = excluded.analysis_scope,
			updated_at = CURRENT_TIMESTAMP
	`, rc.UserID, rc.CompletedAt, nullable(rc.LastAnalyzedPostID),
		nullable(rc.LastAnalyzedMessageID), string(scopeJSON))
	if err != nil {
		return fmt.Errorf("commit analysis state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// checkUnchanged enforces the optimistic-concurrency guard: the stored
// last_analysis_at must equal what this run observed at its state read.
func checkUnchanged(ctx context.Context, tx *sql.Tx, userID string, readAt *time.Time) error {
	var current sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT last_analysis_at FROM analysis_state WHERE user_id = ?`, userID,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if readAt != nil {
			return ErrSuperseded
		}
		return nil
	case err != nil:
		return fmt.Errorf("read current analysis state: %w", err)
	}

	if !current.Valid {
		if readAt != nil {
			return ErrSuperseded
		}
		return nil
	}
	if readAt == nil || !current.Time.Equal(*readAt) {
		return ErrSuperseded
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
