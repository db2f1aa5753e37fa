package pipeline

import (
	"encoding/json"
	"strings"
)

// tryUnmarshalJSON attempts a direct unmarshal, falling back to the
// first-brace/last-brace slice of raw — the same extraction-with-
// fallback idiom used throughout the structured-call collaborators.
func tryUnmarshalJSON(raw string, v interface{}) bool {
	if json.Unmarshal([]byte(raw), v) == nil {
		return true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(raw[start:end+1]), v) == nil
	}
	return false
}
