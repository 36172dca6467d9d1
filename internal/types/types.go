package types

import "time"

// SourceType identifies where a candidate item came from.
type SourceType string

const (
	SourceNewsletter SourceType = "newsletter"
	SourceWebsite    SourceType = "website"
	SourceNetwork    SourceType = "network"
)

// SourcePriority orders sources for deterministic aggregation. Lower wins.
func SourcePriority(t SourceType) int {
	switch t {
	case SourceNewsletter:
		return 0
	case SourceWebsite:
		return 1
	case SourceNetwork:
		return 2
	default:
		return 3
	}
}

// CandidateItem is a piece of external content under consideration for one
// pipeline run. It is never persisted; SourceID is assigned during
// aggregation and is only meaningful within that run.
type CandidateItem struct {
	SourceID      string     `json:"source_id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	BodyText      string     `json:"body_text"`
	PublishedAt   time.Time  `json:"published_at"`
	SourceType    SourceType `json:"source_type"`
	TimeSensitive bool       `json:"time_sensitive"`
}

// Draft is a generated post candidate before persistence. SourceID refers
// back to the CandidateItem it was derived from.
type Draft struct {
	Title               string   `json:"title"`
	Content             string   `json:"content"`
	SourceID            string   `json:"source_id"`
	Topics              []string `json:"topics"`
	RecommendationScore int      `json:"recommendation_score"`
}

// UserPreferences is the per-user context fed into the LLM stages plus the
// source settings the fetchers need. Owned by the surrounding system; read
// only here.
type UserPreferences struct {
	UserID         string   `json:"user_id"`
	Bio            string   `json:"bio"`
	WritingStyle   string   `json:"writing_style"`
	Topics         []string `json:"topics"`
	Platform       string   `json:"platform"`
	NewsletterIDs  []string `json:"newsletter_ids"`
	WebsiteURLs    []string `json:"website_urls"`
	NetworkProfile string   `json:"network_profile"`
}

// Boundary is the incremental cutoff for a run: content published before
// Since (when set) or whose normalized URL appears in ExcludedURLs has
// already been considered and must not be re-suggested.
type Boundary struct {
	Since        time.Time
	ExcludedURLs map[string]struct{}
}

// Unbounded reports whether the boundary places no lower time bound on
// fetched content (first run for a user).
func (b Boundary) Unbounded() bool {
	return b.Since.IsZero()
}
