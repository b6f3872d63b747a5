package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// greedyObject spans from the first '{' to the last '}'. It is a heuristic:
// unrelated braces before or after the intended object make it fail, and the
// caller is expected to degrade rather than error out.
var greedyObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractGreedyJSON returns the greedy {...} span of input, or "" if none
func ExtractGreedyJSON(input string) string {
	return greedyObject.FindString(input)
}

// ParseModelJSON decodes a JSON object out of model output in two stages:
//   - the greedy {...} span of the text
//   - the whole text
//
// Each stage decodes into a fresh value so a failed attempt never leaks
// partially-filled fields into the result.
func ParseModelJSON[T any](input string) (*T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty input")
	}

	if extracted := ExtractGreedyJSON(input); extracted != "" {
		if v, err := decodeObject[T](extracted); err == nil {
			return v, nil
		}
	}

	if v, err := decodeObject[T](input); err == nil {
		return v, nil
	}

	return nil, fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// decodeObject decodes s into a new T, accepting only a JSON object
func decodeObject[T any](s string) (*T, error) {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// TruncateRunes cuts s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return TruncateRunes(s, maxLen) + "..."
}
