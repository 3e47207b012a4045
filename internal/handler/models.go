package handler

import (
	"log/slog"
	"net/http"

	"notaminda/internal/capabilities"
	"notaminda/internal/config"
	"notaminda/internal/httputil"
)

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	config   *config.Config
	logger   *slog.Logger
	registry *capabilities.Registry
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, logger *slog.Logger, registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}
}

// ModelResponse represents a model's capabilities for the API response
type ModelResponse struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	StructuredOutput bool   `json:"structured_output"`
	Streaming        bool   `json:"streaming"`
	ContextWindow    int    `json:"context_window"`
	IsDefault        bool   `json:"is_default"`
}

// ListModels returns the configured models in registry order so clients can
// offer a model picker
// GET /api/models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.registry.ListProviderModels("openai")
	if err != nil {
		handleError(w, err)
		return
	}

	response := make([]ModelResponse, len(models))
	for i, model := range models {
		response[i] = ModelResponse{
			ID:               model.ID,
			DisplayName:      model.DisplayName,
			StructuredOutput: model.SupportsStructuredOutput,
			Streaming:        model.SupportsStreaming,
			ContextWindow:    model.ContextWindow,
			IsDefault:        model.ID == h.config.DefaultModel,
		}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"models": response,
	})
}
