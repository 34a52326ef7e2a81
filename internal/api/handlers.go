package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iotzy/iotzy-bridge/internal/settings"
)

// handleHealth returns the server health status. It inspects nothing
// beyond the server itself, so a wedged camera never fails liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns the current sensed state snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// handleGetConfig returns the full runtime settings snapshot.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handlePatchConfig applies a partial settings patch. Fields absent
// from the body are left unchanged. A patch that fails validation is
// rejected whole; nothing is applied.
func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	updated, err := s.settings.Apply(patch)
	if err != nil {
		if errors.Is(err, settings.ErrInvalid) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("settings apply failed", "error", err)
		writeInternalError(w, "failed to apply settings")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleListEvents returns recent transition events, newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeNotFound(w, "event log not available")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.events.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("event query failed", "error", err)
		writeInternalError(w, "failed to query events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": list,
		"count":  len(list),
	})
}
