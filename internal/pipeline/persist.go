package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/postpilot/internal/store"
	"github.com/postpilot/postpilot/internal/types"
)

func newUUID() string {
	return uuid.NewString()
}

// persist resolves drafts back to their originating candidates, builds the
// suggested-post rows, and commits them together with the advanced analysis
// state in one transaction. An optimistic-concurrency loss surfaces as a
// superseded Result, not an error; the generated drafts are discarded.
func (p *Pipeline) persist(
	ctx context.Context,
	userID string,
	prefs types.UserPreferences,
	prior *store.AnalysisState,
	readAt *time.Time,
	runStarted time.Time,
	drafts []types.Draft,
	byID map[string]types.CandidateItem,
	sourcesWithData []string,
) (*Result, error) {
	persistCtx, cancel := context.WithTimeout(ctx, p.cfg.PersistTimeout)
	defer cancel()

	now := p.now().UTC()
	posts := make([]store.SuggestedPost, 0, len(drafts))
	for _, d := range drafts {
		origin, ok := byID[d.SourceID]
		if !ok {
			// The generator already validated ids; a miss here is a bug.
			p.logger.Error("draft references unresolvable candidate", "source_id", d.SourceID)
			continue
		}
		posts = append(posts, store.SuggestedPost{
			ID:                  p.newID(),
			UserID:              userID,
			Title:               d.Title,
			Content:             d.Content,
			Platform:            prefs.Platform,
			Topics:              d.Topics,
			SourceURL:           origin.URL,
			RecommendationScore: d.RecommendationScore,
			Status:              store.StatusSuggested,
			CreatedAt:           now,
		})
	}

	scope, lastPostID, lastMessageID, err := p.buildScope(persistCtx, userID, prior, posts, sourcesWithData)
	if err != nil {
		return nil, &StageError{Stage: StagePersisting, Err: err}
	}

	err = p.store.CommitRun(persistCtx, store.RunCommit{
		UserID:                userID,
		ReadAt:                readAt,
		CompletedAt:           runStarted,
		LastAnalyzedPostID:    lastPostID,
		LastAnalyzedMessageID: lastMessageID,
		Scope:                 scope,
		Posts:                 posts,
	})
	if errors.Is(err, store.ErrSuperseded) {
		p.logger.Info("run superseded by concurrent commit, discarding drafts",
			"user_id", userID, "discarded", len(posts))
		return &Result{Status: StatusSuperseded, Suggestions: []Suggestion{}}, nil
	}
	if err != nil {
		return nil, &StageError{Stage: StagePersisting, Err: err}
	}

	suggestions := make([]Suggestion, len(posts))
	for i, sp := range posts {
		suggestions[i] = Suggestion{
			PostID:              sp.ID,
			Content:             sp.Content,
			Topics:              sp.Topics,
			RecommendationScore: sp.RecommendationScore,
		}
	}
	return &Result{Status: StatusCompleted, Suggestions: suggestions}, nil
}

// buildScope assembles the audit summary committed with the run: feedback
// counts on the user's existing posts, which source scans produced data,
// and the advanced cursors.
func (p *Pipeline) buildScope(ctx context.Context, userID string, prior *store.AnalysisState, posts []store.SuggestedPost, sourcesWithData []string) (store.AnalysisScope, string, string, error) {
	var scope store.AnalysisScope

	scheduled, dismissed, err := p.store.CountSuggestedPosts(ctx, userID)
	if err != nil {
		return scope, "", "", err
	}
	scope.PostsAnalyzed.ScheduledCount = scheduled
	scope.PostsAnalyzed.DismissedCount = dismissed
	if sourcesWithData == nil {
		sourcesWithData = []string{}
	}
	scope.AnalysisTypesPerformed = sourcesWithData

	// Cursors carry forward when this run adds nothing new.
	lastPostID := ""
	lastMessageID := ""
	if prior != nil {
		lastPostID = prior.LastAnalyzedPostID
		lastMessageID = prior.LastAnalyzedMessageID
		scope.MessagesAnalyzed = prior.Scope.MessagesAnalyzed
	}
	if len(posts) > 0 {
		lastPostID = posts[len(posts)-1].ID
	}
	return scope, lastPostID, lastMessageID, nil
}
