// Package api provides HTTP handlers for the blueprint conversation endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forgeline/blueprint/internal/flow"
	"github.com/forgeline/blueprint/internal/models"
)

// turnRequest is the POST /api/turn payload.
type turnRequest struct {
	Text string `json:"text"`
}

// turnResult is the POST /api/turn result payload.
type turnResult struct {
	Phase          models.Phase `json:"phase"`
	Message        string       `json:"message"`
	BlueprintReady bool         `json:"blueprint_ready"`
}

func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.turnHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Turn text is required"))
		return
	}

	reply, err := s.orchestrator.SubmitTurn(r.Context(), req.Text)
	if err != nil {
		var upstream *flow.UpstreamError
		var violation *flow.SchemaViolationError
		switch {
		case errors.As(err, &upstream):
			slog.Error("Server.turnHandler: upstream model failure", "error", err, "status", upstream.StatusCode)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Model call failed; retry the same turn"))
		case errors.As(err, &violation):
			slog.Error("Server.turnHandler: structured reply rejected", "error", err)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Model returned an invalid reply; retry the same turn"))
		default:
			slog.Error("Server.turnHandler: turn failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process turn"))
		}
		return
	}

	snap := s.orchestrator.Snapshot()
	writeJSONResponse(w, http.StatusOK, models.Success(turnResult{
		Phase:          reply.Phase,
		Message:        reply.Message,
		BlueprintReady: snap.BlueprintReady,
	}))
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.orchestrator.Snapshot()))
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.orchestrator.Reset()
	slog.Info("Server.resetHandler: session reset")
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset", s.orchestrator.Snapshot()))
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	md, err := s.orchestrator.ExportBlueprint()
	if err != nil {
		if errors.Is(err, flow.ErrNotReady) {
			writeJSONResponse(w, http.StatusConflict, models.Error("Blueprint not ready; continue the conversation until Builder mode produces content"))
			return
		}
		slog.Error("Server.exportHandler: export failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to export blueprint"))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="blueprint.md"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(md)); err != nil {
		slog.Error("Server.exportHandler: failed to write blueprint", "error", err)
	}
}
