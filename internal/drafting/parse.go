package drafting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

type vagueness struct {
	IsVague  bool    `json:"isVague"`
	Feedback *string `json:"feedback"`
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// decodeLenient unmarshals model output into v, repairing it first when the
// model returned almost-JSON (single quotes, trailing commas, missing brackets).
func decodeLenient(text string, v any) error {
	text = stripFences(text)
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// parseVagueness reads the vagueness verdict. An unreadable verdict counts as
// not vague so drafting can proceed.
func parseVagueness(text string) vagueness {
	var v vagueness
	if err := decodeLenient(text, &v); err != nil {
		return vagueness{}
	}
	return v
}

// parseKeyResults reads a JSON array of key result strings, dropping blanks.
func parseKeyResults(text string) ([]string, error) {
	var raw []string
	if err := decodeLenient(text, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, kr := range raw {
		if kr = strings.TrimSpace(kr); kr != "" {
			out = append(out, kr)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no key results", ErrMalformedResponse)
	}
	return out, nil
}

// cleanObjective trims quotes and whitespace the model sometimes wraps text in.
func cleanObjective(text string) string {
	return strings.Trim(strings.TrimSpace(stripFences(text)), `"`)
}
