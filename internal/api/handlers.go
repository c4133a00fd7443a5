// Package api implements the HTTP surface of the Javari core.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/engine"
	"github.com/javariai/javari-core/internal/sanitize"
	"github.com/javariai/javari-core/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Core      *engine.Core
	Sanitizer *sanitize.Sanitizer
	Config    *config.Config
}

// NewHandlers creates a Handlers instance with all dependencies.
func NewHandlers(core *engine.Core, sanitizer *sanitize.Sanitizer, cfg *config.Config) *Handlers {
	return &Handlers{Core: core, Sanitizer: sanitizer, Config: cfg}
}

// Invoke handles POST /api/v1/invoke: one full mediation round trip.
// The engine never fails, so this endpoint only rejects malformed bodies.
func (h *Handlers) Invoke(w http.ResponseWriter, r *http.Request) {
	var req models.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "At least one message is required")
		return
	}

	resp := h.Core.Invoke(r.Context(), &req)
	respondJSON(w, http.StatusOK, resp)
}

// ListTools handles GET /api/v1/tools: the registered tool roster with live
// enablement state.
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Core.Tools())
}

// ExecuteTool handles POST /api/v1/tools/{toolName}: direct tool dispatch.
// Tool-level failures come back as a 200 with Success=false; the HTTP status
// reflects transport problems only.
func (h *Handlers) ExecuteTool(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "toolName")

	var params map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.Core.ExecuteTool(r.Context(), toolName, params)
	respondJSON(w, http.StatusOK, result)
}

// SanitizePreview handles POST /api/v1/sanitize: a debugging aid that shows
// what the egress sanitizer would do to a piece of text. Not mounted in
// production.
func (h *Handlers) SanitizePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, h.Sanitizer.Sanitize(req.Text, "preview"))
}

// ── Response Helpers ────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
