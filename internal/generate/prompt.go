package generate

import (
	"fmt"
	"strings"

	"github.com/postpilot/postpilot/internal/types"
)

// BuildGeneratePrompt constructs the LLM prompt for drafting posts from the
// filtered candidates.
func BuildGeneratePrompt(filtered []types.CandidateItem, prefs types.UserPreferences, n int) string {
	var sb strings.Builder

	sb.WriteString("You are ghostwriting social posts for a professional, based on content they follow.\n\n")

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

	sb.WriteString("\n## Platform Guidance\n")
	sb.WriteString(strategyFor(prefs.Platform))
	sb.WriteString("\n")

	sb.WriteString("\n## Source Content\n\n")
	for i, c := range filtered {
		sb.WriteString(fmt.Sprintf("### Item %d (ID: %s)\n", i+1, c.SourceID))
		sb.WriteString(fmt.Sprintf("Title: %s\n", c.Title))
		sb.WriteString(fmt.Sprintf("URL: %s\n", c.URL))
		if c.BodyText != "" {
			sb.WriteString(fmt.Sprintf("Content: %s\n", truncate(c.BodyText, 1500)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Task\n\n")
	sb.WriteString(fmt.Sprintf("Draft up to %d posts in the user's voice. For each post provide:\n", n))
	sb.WriteString("1. title (string): a short internal working title\n")
	sb.WriteString("2. content (string): the full post text\n")
	sb.WriteString("3. source_id (string): the ID of the item the post draws on - only IDs listed above\n")
	sb.WriteString("4. topics (array, max 3): key topics\n")
	sb.WriteString("5. recommendation_score (integer 0-100): predicted engagement quality\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- When a post uses facts from the source, name or reference the source in the text.\n")
	sb.WriteString("- Avoid stock AI phrasing: no \"delve\", no \"game-changer\", no emoji walls, no \"I'm excited to share\".\n")
	sb.WriteString("- Skip any item that would make a weak post; fewer good drafts beat filler.\n\n")
	sb.WriteString("IMPORTANT: Respond with ONLY a valid JSON array. No markdown, no code blocks, no explanation.\n\n")
	sb.WriteString("Example structure:\n")
	sb.WriteString(`[{"title": "...", "content": "...", "source_id": "c1", "topics": ["AI"], "recommendation_score": 72}]`)
	sb.WriteString("\n")

	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
