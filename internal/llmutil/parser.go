// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Regex definitions use \x60 for backticks because Go raw strings cannot contain them.

	// fencedArrayRegex extracts a JSON array wrapped in a markdown code fence,
	// with or without a language tag.
	fencedArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:[a-zA-Z]*)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
	// fencedObjectRegex extracts a fenced JSON object.
	fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:[a-zA-Z]*)?\\s*({.*})\\s*\x60\x60\x60")
)

// ExtractJSON strips markdown code fences and surrounding conversational text
// from a model response, returning the innermost JSON array or object as a
// string. The action contract is an array, so array extraction takes priority
// over objects. When no structure can be isolated the trimmed input is
// returned unchanged for the caller's unmarshal to judge.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if m := fencedArrayRegex.FindStringSubmatch(response); len(m) > 1 {
			return m[1]
		}
		if m := fencedObjectRegex.FindStringSubmatch(response); len(m) > 1 {
			return m[1]
		}
		// A fence with no recognizable structure inside: drop the markers and
		// let the remainder speak for itself.
		trimmed := strings.TrimPrefix(response, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		return strings.TrimSpace(trimmed)
	}

	if strings.HasPrefix(response, "[") || strings.HasPrefix(response, "{") {
		return response
	}

	// Conversational padding around the structure: scan for the outermost
	// bracket pair, arrays first.
	if s, ok := sliceBetween(response, "[", "]"); ok {
		return s
	}
	if s, ok := sliceBetween(response, "{", "}"); ok {
		return s
	}
	return response
}

func sliceBetween(s, open, close string) (string, bool) {
	first := strings.Index(s, open)
	last := strings.LastIndex(s, close)
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}

// DecodeJSON extracts and unmarshals a model response into the target type.
func DecodeJSON[T any](response string) (*T, error) {
	extracted := ExtractJSON(response)
	var result T
	if err := json.UnmarshalFromString(extracted, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(extracted, 500))
	}
	return &result, nil
}

// truncateString truncates a string for error logging.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
