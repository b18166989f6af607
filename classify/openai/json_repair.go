package openai

import "strings"

// repairJSON attempts to fix common formatting issues in model responses:
// markdown code fences around the object and stray text outside the braces.
func repairJSON(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown fences
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	// Keep only the outermost object
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	return strings.TrimSpace(s)
}
