// Package handler exposes the service layer over HTTP. Handlers stay thin:
// parse, delegate, respond.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"notaminda/internal/httputil"
	"notaminda/internal/service/mindmap"
)

// MindMapHandler handles mind map HTTP requests
type MindMapHandler struct {
	mindMapService *mindmap.Service
	logger         *slog.Logger
}

// NewMindMapHandler creates a new mind map handler
func NewMindMapHandler(mindMapService *mindmap.Service, logger *slog.Logger) *MindMapHandler {
	return &MindMapHandler{
		mindMapService: mindMapService,
		logger:         logger,
	}
}

// CreateMindMap creates a new mind map with its root node
// POST /api/mindmaps
func (h *MindMapHandler) CreateMindMap(w http.ResponseWriter, r *http.Request) {
	var req mindmap.CreateMindMapRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	result, err := h.mindMapService.CreateMindMap(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ListMindMaps retrieves all mind maps owned by the user
// GET /api/mindmaps
func (h *MindMapHandler) ListMindMaps(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	maps, err := h.mindMapService.ListMindMaps(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, maps)
}

// GetMindMap retrieves a mind map with its full node list
// GET /api/mindmaps/{id}
func (h *MindMapHandler) GetMindMap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "mind map ID is required")
		return
	}
	userID := httputil.GetUserID(r)

	result, err := h.mindMapService.GetMindMap(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetPublicMindMap retrieves a non-private mind map without authentication
// GET /api/public/mindmaps/{id}
func (h *MindMapHandler) GetPublicMindMap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "mind map ID is required")
		return
	}

	result, err := h.mindMapService.GetPublicMindMap(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// UpdateMindMap updates a mind map and reconciles a submitted node list
// PATCH /api/mindmaps/{id}
func (h *MindMapHandler) UpdateMindMap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "mind map ID is required")
		return
	}
	userID := httputil.GetUserID(r)

	var req mindmap.UpdateMindMapRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.mindMapService.UpdateMindMap(r.Context(), userID, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteMindMap deletes a mind map and its nodes
// DELETE /api/mindmaps/{id}
func (h *MindMapHandler) DeleteMindMap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "mind map ID is required")
		return
	}
	userID := httputil.GetUserID(r)

	if err := h.mindMapService.DeleteMindMap(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *MindMapHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
