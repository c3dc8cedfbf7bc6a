package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseGarmentList decodes the model's JSON array of garment types.
// Markdown code fences around the array are stripped, as is any prose
// before the first '[' or after the last ']'. Blank entries are dropped.
func ParseGarmentList(text string) ([]string, error) {
	body := stripFences(strings.TrimSpace(text))

	start := strings.IndexByte(body, '[')
	end := strings.LastIndexByte(body, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in %q", ErrMalformedResponse, truncate(text, 80))
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	garments := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			garments = append(garments, s)
		}
	}
	return garments, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. "json"
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
