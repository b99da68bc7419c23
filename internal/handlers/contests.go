package handlers

import (
	"net/http"

	"github.com/avasquez/catador/internal/models"
)

// handleCreateContest creates a new contest
func (h *Handlers) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	var contest models.Contest
	if err := decodeJSON(r, &contest); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Contest.CreateContest(r.Context(), contest, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}

	contest.ID = id
	respondCreated(w, contest)
}

// handleListContests returns all contests
func (h *Handlers) handleListContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.Contest.ListContests(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, contests)
}

// handleGetContest returns a single contest
func (h *Handlers) handleGetContest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	contest, err := h.Contest.GetContest(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, contest)
}

// handleUpdateContest updates a contest's details
func (h *Handlers) handleUpdateContest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var contest models.Contest
	if err := decodeJSON(r, &contest); err != nil {
		respondError(w, err)
		return
	}
	contest.ID = id

	if err := h.Contest.UpdateContest(r.Context(), contest, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, contest)
}

// handleContestStatus reports the date-derived status
func (h *Handlers) handleContestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	status, err := h.Contest.ContestStatus(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ContestStatusResponse{ContestID: id, Status: string(status)})
}

// handleEnableFinalStage opens the paid final evaluation stage
func (h *Handlers) handleEnableFinalStage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Contest.EnableFinalStage(r.Context(), id, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Final stage enabled")
}
