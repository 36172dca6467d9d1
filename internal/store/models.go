package store

import "time"

// Suggested post lifecycle statuses. The pipeline only ever creates posts in
// StatusSuggested; the later transitions are driven by user feedback through
// the API layer.
const (
	StatusSuggested = "suggested"
	StatusScheduled = "scheduled"
	StatusDismissed = "dismissed"
	StatusPosted    = "posted"
)

// SuggestedPost is a generated draft persisted for user review.
type SuggestedPost struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	IdeaBankID          string    `json:"idea_bank_id,omitempty"`
	Title               string    `json:"title"`
	Content             string    `json:"content"`
	Platform            string    `json:"platform"`
	Topics              []string  `json:"topics"`
	SourceURL           string    `json:"source_url"`
	RecommendationScore int       `json:"recommendation_score"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// AnalysisScope is the audit summary of the last completed run. It describes
// what was processed, not what remains to process.
type AnalysisScope struct {
	PostsAnalyzed struct {
		ScheduledCount int `json:"scheduled_count"`
		DismissedCount int `json:"dismissed_count"`
	} `json:"posts_analyzed"`
	MessagesAnalyzed struct {
		TotalCount int `json:"total_count"`
	} `json:"messages_analyzed"`
	AnalysisTypesPerformed []string `json:"analysis_types_performed"`
}

// AnalysisState is the per-user incremental-processing record. A missing row
// means the user has never been analyzed.
type AnalysisState struct {
	UserID                string        `json:"user_id"`
	LastAnalysisAt        *time.Time    `json:"last_analysis_at,omitempty"`
	LastAnalyzedPostID    string        `json:"last_analyzed_post_id,omitempty"`
	LastAnalyzedMessageID string        `json:"last_analyzed_message_id,omitempty"`
	Scope                 AnalysisScope `json:"analysis_scope"`
}

// ScheduleConfig is the external scheduler's per-user trigger definition.
// This core only reads it; the cron expression is evaluated by the scheduler
// collaborator, never by the pipeline.
type ScheduleConfig struct {
	UserID         string     `json:"user_id"`
	CronExpression string     `json:"cron_expression"`
	Timezone       string     `json:"timezone"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
}
