package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence, with or without a
// language tag
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ExtractJSON finds the JSON document in a model response. It tries the
// whole (unfenced) text, then the outermost object, then the outermost array.
func ExtractJSON(text string) ([]byte, error) {
	text = StripFences(text)
	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			candidate := []byte(text[start : end+1])
			if json.Valid(candidate) {
				return candidate, nil
			}
		}
	}

	preview := text
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return nil, fmt.Errorf("%w: %q", ErrNoJSON, preview)
}

// CompleteJSON runs req and decodes the JSON found in the response into v
func CompleteJSON(ctx context.Context, client Client, req Request, v any) error {
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return err
	}

	data, err := ExtractJSON(resp.Content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", describe(client), err)
	}
	return nil
}
