package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/services"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryHandler fronts the resolution pipeline. Every well-formed request
// gets HTTP 200 with a response envelope; the envelope's status field says
// whether the question succeeded, needs clarification, or failed.
type QueryHandler struct {
	router services.Router
	logger *zap.Logger
}

// NewQueryHandler creates the query endpoint handler.
func NewQueryHandler(router services.Router, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{router: router, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/query", h.Query)
}

// Query handles POST /api/query requests.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		if err := ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST with a JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON with a \"query\" field"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	question := strings.TrimSpace(req.Query)
	if question == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "empty_query", "The \"query\" field must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	envelope := h.router.Resolve(r.Context(), question)

	if err := WriteJSON(w, http.StatusOK, envelope); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
