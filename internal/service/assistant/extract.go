package assistant

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/seu-repo/crm-ia/internal/domain"
)

// ExtractFirstJSON returns the first brace-balanced {...} substring of text
// parsed as an object. Braces inside string literals are not special-cased.
// The first balanced candidate is the only one tried: if it does not parse,
// the result is nil.
func ExtractFirstJSON(text string) map[string]any {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			var out map[string]any
			if err := json.Unmarshal([]byte(text[start:i+1]), &out); err != nil {
				return nil
			}
			return out
		}
	}
	return nil
}

// decodeReply recovers the JSON object of a model reply, falling back to
// decoding the whole reply.
func decodeReply(text string) map[string]any {
	if out := ExtractFirstJSON(text); out != nil {
		return out
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil
	}
	return out
}

func intentFromMap(m map[string]any) *domain.Intent {
	return &domain.Intent{
		Subject:       stringField(m, "subject"),
		ClientName:    stringField(m, "client_name", "clientName"),
		ClientCompany: stringField(m, "client_company", "clientCompany"),
		Duration:      minutesField(m, "duration"),
		Language:      stringField(m, "language"),
	}
}

func decisionFromMap(m map[string]any) *domain.SchedulingDecision {
	return &domain.SchedulingDecision{
		NaturalResponse: stringField(m, "natural_response", "naturalResponse"),
		Subject:         stringField(m, "subject"),
		ClientName:      stringField(m, "client_name", "clientName"),
		Date:            stringField(m, "date"),
		Time:            stringField(m, "time"),
		Duration:        minutesField(m, "duration"),
	}
}

// stringField returns the first non-empty value among keys, rendered as text.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func minutesField(m map[string]any, key string) domain.Minutes {
	switch v := m[key].(type) {
	case float64:
		if v <= 0 {
			return 0
		}
		return domain.Minutes(int(v + 0.5))
	case string:
		return domain.ParseMinutes(v)
	}
	return 0
}
