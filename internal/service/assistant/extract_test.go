package assistant

import (
	"reflect"
	"testing"
)

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{"bare object", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"wrapped in prose", `Sure! Here it is: {"subject":"Demo"} hope it helps`, map[string]any{"subject": "Demo"}},
		{"code fence", "```json\n{\"date\":\"2025-09-10\"}\n```", map[string]any{"date": "2025-09-10"}},
		{"nested", `x {"a":{"b":{"c":true}}} y`, map[string]any{"a": map[string]any{"b": map[string]any{"c": true}}}},
		{"first object wins", `{"n":1} and {"n":2}`, map[string]any{"n": float64(1)}},
		{"no braces", `I could not find a slot`, nil},
		{"unbalanced", `{"a": {"b": 1}`, nil},
		{"first candidate invalid, no backtracking", `{not json} {"a":1}`, nil},
		{"empty", ``, nil},
		{"closing brace inside a string", `{"a":"}"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFirstJSON(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractFirstJSON(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDecodeReply_WholeTextFallback(t *testing.T) {
	// Arrange
	text := `{"natural_response":"Rendez-vous {demain}","date":"2025-09-10"}`

	// Act
	first := ExtractFirstJSON(text)
	got := decodeReply(text)

	// Assert
	if first == nil {
		t.Fatalf("ExtractFirstJSON should parse balanced braces in strings")
	}
	if got["date"] != "2025-09-10" {
		t.Errorf("decodeReply date = %v", got["date"])
	}
	if decodeReply(`{"a":"}"}`)["a"] != "}" {
		t.Errorf("decodeReply should fall back to decoding the whole reply")
	}
}

func TestExtractFirstJSON_IsPure(t *testing.T) {
	text := `reply: {"subject":"Démo","duration":30}`

	first := ExtractFirstJSON(text)
	second := ExtractFirstJSON(text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestDecisionFromMap_FallsBackToCamelCase(t *testing.T) {
	d := decisionFromMap(map[string]any{
		"naturalResponse": "C'est noté",
		"duration":        "1h",
		"date":            "2025-09-10",
	})

	if d.NaturalResponse != "C'est noté" {
		t.Errorf("expected naturalResponse fallback, got %q", d.NaturalResponse)
	}
	if d.Duration != 60 {
		t.Errorf("expected 60 minutes, got %d", d.Duration)
	}
}

func TestIntentFromMap_NumericAndTextDuration(t *testing.T) {
	if got := intentFromMap(map[string]any{"duration": float64(45)}).Duration; got != 45 {
		t.Errorf("expected 45, got %d", got)
	}
	if got := intentFromMap(map[string]any{"duration": "30 minutes"}).Duration; got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	if got := intentFromMap(map[string]any{}).Duration; got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
