package openai

import (
	"fmt"
	"strings"
)

const labelingResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "tags": {
      "type": "array",
      "items": {
        "type": "string"
      }
    }
  },
  "required": ["tags"],
  "additionalProperties": false
}`

const labelingPromptTemplate = `You label photos for an automatic photo organizer. Look at the image and decide which of the allowed labels apply to it, then return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- You may ONLY use labels from this closed list: %s.
- Include a label only when it clearly applies to the image content. Do not guess.
- Order does not matter; do not repeat labels.
- If none of the allowed labels apply, return "tags": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (allowed labels: beach, dog, sunset, mountain):
Image: a golden retriever running along a shoreline at dusk
Output:
{
  "tags": ["beach", "dog", "sunset"]
}

Example (none apply):
Image: a spreadsheet screenshot
Output:
{
  "tags": []
}`

// buildSystemPrompt creates the system prompt with the tenant's closed label
// set embedded.
func buildSystemPrompt(vocabulary []string) string {
	return fmt.Sprintf(labelingPromptTemplate,
		labelingResponseSchema,
		strings.Join(vocabulary, ", "))
}
