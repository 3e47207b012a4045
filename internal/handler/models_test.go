package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"notaminda/internal/capabilities"
	"notaminda/internal/config"
)

func TestListModels_ReturnsRegistryOrderAndDefault(t *testing.T) {
	registry, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("capability registry: %v", err)
	}

	cfg := &config.Config{DefaultModel: "gpt-4o"}
	h := NewModelsHandler(cfg, slog.New(slog.DiscardHandler), registry)

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rec := httptest.NewRecorder()
	h.ListModels(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Models []ModelResponse `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(body.Models) == 0 {
		t.Fatal("expected at least one model")
	}
	if body.Models[0].ID != "gpt-4o" {
		t.Errorf("first model = %s, want registry order starting with gpt-4o", body.Models[0].ID)
	}

	defaults := 0
	for _, model := range body.Models {
		if model.IsDefault {
			defaults++
			if model.ID != "gpt-4o" {
				t.Errorf("default model = %s, want gpt-4o", model.ID)
			}
		}
		if model.ID == "gpt-3.5-turbo" && model.StructuredOutput {
			t.Error("gpt-3.5-turbo must not report structured output support")
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default model, got %d", defaults)
	}
}
