package handlers

import (
	"net/http"

	"github.com/avasquez/catador/internal/models"
)

// handleRegisterJudge adds a judge to the panel
func (h *Handlers) handleRegisterJudge(w http.ResponseWriter, r *http.Request) {
	var judge models.Judge
	if err := decodeJSON(r, &judge); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Assignment.RegisterJudge(r.Context(), judge, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}

	judge.ID = id
	respondCreated(w, judge)
}

// handleListJudges returns the panel, optionally filtered to evaluators
func (h *Handlers) handleListJudges(w http.ResponseWriter, r *http.Request) {
	evaluatorsOnly := r.URL.Query().Get("evaluators") == "true"

	judges, err := h.Assignment.ListJudges(r.Context(), evaluatorsOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, judges)
}

// handleAssignJudges replaces a sample's judge set
func (h *Handlers) handleAssignJudges(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req AssignJudgesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Assignment.AssignJudges(r.Context(), id, req.JudgeIDs, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Judges assigned")
}

// handleSetDefaultCapacity stores the default max assignments for new judges
func (h *Handlers) handleSetDefaultCapacity(w http.ResponseWriter, r *http.Request) {
	var req DefaultCapacityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Assignment.SetDefaultCapacity(r.Context(), req.MaxAssignments, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Default capacity updated")
}

// handleBulkAssign assigns a judge set across samples, all or nothing
func (h *Handlers) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	var req BulkAssignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Assignment.BulkAssign(r.Context(), req.SampleIDs, req.JudgeIDs, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Judges assigned")
}
