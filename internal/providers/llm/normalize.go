package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Normalize extracts the JSON document from free-form model text. The first
// fenced block wins when present; a top-level array is wrapped as
// {"<wrapKey>": [...]}. The result is not validated.
func Normalize(raw, wrapKey string) json.RawMessage {
	text := raw
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	if wrapKey != "" && strings.HasPrefix(text, "[") {
		key, _ := json.Marshal(wrapKey)
		return json.RawMessage("{" + string(key) + ":" + text + "}")
	}
	return json.RawMessage(text)
}
