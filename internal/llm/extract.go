package llm

import "regexp"

var (
	fencedArrayRe  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*?\\])\\s*\\n?```")
	rawArrayRe     = regexp.MustCompile(`(?s)(\[.*\])`)
	fencedObjectRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*?\\})\\s*\\n?```")
	rawObjectRe    = regexp.MustCompile(`(?s)(\{.*\})`)
)

// ExtractJSONArray pulls a JSON array out of model output, tolerating
// markdown code fences and surrounding prose.
func ExtractJSONArray(text string) string {
	if m := fencedArrayRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := rawArrayRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}

// ExtractJSONObject pulls a JSON object out of model output, tolerating
// markdown code fences and surrounding prose.
func ExtractJSONObject(text string) string {
	if m := fencedObjectRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := rawObjectRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}
