package ai

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a completion holds no {...} span.
var ErrNoJSONObject = errors.New("no JSON object in completion")

// ExtractJSONObject returns the text between the first '{' and the last '}'
// inclusive. Models often wrap JSON in prose or code fences.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}
