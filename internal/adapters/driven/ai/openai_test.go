package ai

import (
	"testing"
)

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIEmbedding("", "text-embedding-3-small", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	svc, err := NewOpenAIEmbedding("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "text-embedding-3-small" {
		t.Errorf("expected default model, got %s", svc.Model())
	}
	if svc.Dimensions() != 1536 {
		t.Errorf("expected 1536 dimensions, got %d", svc.Dimensions())
	}
}

func TestNewOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		dimensions int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"some-future-model", 1536},
	}

	for _, tc := range testCases {
		svc, err := NewOpenAIEmbedding("sk-test", tc.model, "")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.model, err)
		}
		if svc.Dimensions() != tc.dimensions {
			t.Errorf("%s: expected %d dimensions, got %d", tc.model, tc.dimensions, svc.Dimensions())
		}
	}
}

func TestNewOpenAIChat_Defaults(t *testing.T) {
	if _, err := NewOpenAIChat("", "", ""); err == nil {
		t.Error("expected error for empty API key")
	}

	svc, err := NewOpenAIChat("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "gpt-4o-mini" {
		t.Errorf("expected default model, got %s", svc.Model())
	}
}

func TestNewOpenAIFileChat_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIFileChat("", "", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestParseStructured(t *testing.T) {
	out, err := parseStructured(`{"orgao": {"value": "Prefeitura"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["orgao"]; !ok {
		t.Error("expected orgao key")
	}

	if _, err := parseStructured("not json"); err == nil {
		t.Error("expected error for invalid json")
	}
	if _, err := parseStructured(`[1, 2]`); err == nil {
		t.Error("expected error for non-object json")
	}
}

func TestEnsureStrictJSONSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object", "properties": map[string]any{}},
			},
		},
	}

	out, ok := ensureStrictJSONSchema(schema).(map[string]any)
	if !ok {
		t.Fatal("expected map result")
	}
	if out["additionalProperties"] != false {
		t.Error("expected additionalProperties false at root")
	}

	inner := out["properties"].(map[string]any)["items"].(map[string]any)["items"].(map[string]any)
	if inner["additionalProperties"] != false {
		t.Error("expected additionalProperties false on nested object")
	}
}
