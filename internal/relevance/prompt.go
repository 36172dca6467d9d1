package relevance

import (
	"fmt"
	"strings"

	"github.com/postpilot/postpilot/internal/types"
)

// BuildFilterPrompt constructs the LLM prompt for selecting relevant
// candidates.
func BuildFilterPrompt(candidates []types.CandidateItem, prefs types.UserPreferences, k int) string {
	var sb strings.Builder

	sb.WriteString("You are selecting which external content a professional should turn into social posts.\n\n")

	sb.WriteString("## About the User\n")
	if prefs.Bio != "" {
		sb.WriteString(fmt.Sprintf("Bio: %s\n", prefs.Bio))
	}
	if prefs.WritingStyle != "" {
		sb.WriteString(fmt.Sprintf("Writing style: %s\n", prefs.WritingStyle))
	}
	if len(prefs.Topics) > 0 {
		sb.WriteString(fmt.Sprintf("Topics of interest: %s\n", strings.Join(prefs.Topics, ", ")))
	}
	if prefs.Bio == "" && prefs.WritingStyle == "" && len(prefs.Topics) == 0 {
		sb.WriteString("No profile configured. Select based on general professional interest.\n")
	}

	sb.WriteString("\n## Candidate Content\n\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("### Item %d (ID: %s)\n", i+1, c.SourceID))
		sb.WriteString(fmt.Sprintf("Source: %s\n", c.SourceType))
		sb.WriteString(fmt.Sprintf("Title: %s\n", c.Title))
		if c.BodyText != "" {
			sb.WriteString(fmt.Sprintf("Excerpt: %s\n", truncate(c.BodyText, 500)))
		}
		if c.TimeSensitive {
			sb.WriteString("Time-sensitive: yes\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Task\n\n")
	sb.WriteString(fmt.Sprintf("Select up to %d items most relevant to this user's interests and audience.\n", k))
	sb.WriteString("Only use IDs that appear above. If nothing is relevant, return an empty list.\n\n")
	sb.WriteString("IMPORTANT: Respond with ONLY a valid JSON object. No markdown, no code blocks, no explanation.\n\n")
	sb.WriteString("Example structure:\n")
	sb.WriteString(`{"selected_ids": ["c1", "c3"]}`)
	sb.WriteString("\n")

	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
