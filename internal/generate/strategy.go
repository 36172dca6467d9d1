package generate

// Platform engagement strategies: static guidance embedded into the
// generation prompt. Keyed by the user's configured platform; unknown
// platforms get the generic strategy.

const linkedinStrategy = `Write for LinkedIn:
- Open with a concrete observation or question, not a greeting.
- Short paragraphs, 1-3 sentences each, with whitespace between them.
- 900-1800 characters. End with a question that invites replies.
- At most 3 hashtags, placed at the end.`

const twitterStrategy = `Write for X/Twitter:
- One idea per post, under 280 characters.
- Lead with the strongest claim or number.
- No hashtag stuffing; at most 1 hashtag.`

const genericStrategy = `Write for a professional audience:
- Lead with the insight, not the source.
- Keep it under 1200 characters.
- End with a question or call to discussion.`

// strategyFor returns the engagement guidance for a platform.
func strategyFor(platform string) string {
	switch platform {
	case "linkedin":
		return linkedinStrategy
	case "twitter", "x":
		return twitterStrategy
	default:
		return genericStrategy
	}
}
