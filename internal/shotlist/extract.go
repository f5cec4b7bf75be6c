package shotlist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON isolates the structured payload from conversational wrapper
// text the generator may prepend or append. The interior of the first
// ```json fenced block wins, then the first generic ``` block; text without
// fences is returned unchanged. Best-effort: nested or malformed fences are
// not specifically handled beyond taking the first occurrence.
func ExtractJSON(raw string) string {
	if _, after, ok := strings.Cut(raw, "```json"); ok {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	if _, after, ok := strings.Cut(raw, "```"); ok {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	return raw
}

// Parse unwraps fences and decodes the payload into a document suitable for
// Validate and Repair. A payload that is valid JSON but not an object is an
// error: the validator and repairer both operate on key/value documents.
func Parse(raw string) (map[string]any, error) {
	payload := ExtractJSON(raw)

	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("parse shot list response: %w", err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse shot list response: expected a JSON object, got %T", v)
	}
	return doc, nil
}
