package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"notaminda/internal/httputil"
	"notaminda/internal/service/generation"
	"notaminda/internal/service/layout"
)

// GenerationHandler handles the AI generation HTTP requests
type GenerationHandler struct {
	childrenService *generation.ChildrenService
	noteService     *generation.NoteService
	logger          *slog.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(
	childrenService *generation.ChildrenService,
	noteService *generation.NoteService,
	logger *slog.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		childrenService: childrenService,
		noteService:     noteService,
		logger:          logger,
	}
}

// generateChildrenRequest is the body for child generation. NodesPosition is
// the client's snapshot of rendered node boxes on the canvas.
type generateChildrenRequest struct {
	NodesPosition []layout.Box `json:"nodes_position"`
	AIKey         string       `json:"ai_key"`
	AIModel       string       `json:"ai_model"`
}

// GenerateChildren generates subtopic children for a node
// POST /api/nodes/{id}/auto-generate-children
func (h *GenerationHandler) GenerateChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	// Every body field is optional, so an absent body is fine.
	var req generateChildrenRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	children, err := h.childrenService.GenerateChildren(r.Context(), &generation.GenerateChildrenRequest{
		UserID:    httputil.GetUserID(r),
		NodeID:    id,
		NodeBoxes: req.NodesPosition,
		AIKey:     req.AIKey,
		AIModel:   req.AIModel,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, children)
}

// generateNoteRequest is the body for note generation.
type generateNoteRequest struct {
	Instruction string `json:"instruction"`
	AIKey       string `json:"ai_key"`
	AIModel     string `json:"ai_model"`
}

// GenerateNote starts a background note stream for a node
// POST /api/nodes/{id}/auto-generate-note
func (h *GenerationHandler) GenerateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req generateNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.noteService.StartNoteGeneration(r.Context(), &generation.StartNoteGenerationRequest{
		UserID:      httputil.GetUserID(r),
		NodeID:      id,
		Instruction: req.Instruction,
		AIKey:       req.AIKey,
		AIModel:     req.AIModel,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "note generation started",
	})
}

// verifyKeyRequest is the body for key verification.
type verifyKeyRequest struct {
	AIKey   string `json:"ai_key"`
	AIModel string `json:"ai_model"`
}

// VerifyAIKey checks a caller-supplied key against the provider
// POST /api/verify-ai-key
func (h *GenerationHandler) VerifyAIKey(w http.ResponseWriter, r *http.Request) {
	var req verifyKeyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.childrenService.VerifyKey(r.Context(), req.AIKey, req.AIModel); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
