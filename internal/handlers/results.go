package handlers

import (
	"net/http"
	"strconv"

	"github.com/avasquez/catador/internal/models"
)

func stageFromQuery(r *http.Request) models.EvaluationStage {
	if r.URL.Query().Get("stage") == string(models.StageFinal) {
		return models.StageFinal
	}
	return models.StageSensory
}

// handleRankings returns the ordered contest results for a stage
func (h *Handlers) handleRankings(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	rankings, err := h.Results.Rankings(r.Context(), id, stageFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rankings)
}

// handleTopN returns the leading n samples of a contest
func (h *Handlers) handleTopN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, BadRequest("Invalid n parameter"))
			return
		}
	}

	rankings, err := h.Results.TopN(r.Context(), id, n, stageFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rankings)
}

// handlePublishFinalRanking compiles the final rankings and notifies the
// medal winners
func (h *Handlers) handlePublishFinalRanking(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	rankings, err := h.Results.PublishFinalRanking(r.Context(), id, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rankings)
}

// handleMyStats returns the session participant's aggregate counters
func (h *Handlers) handleMyStats(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	stats, err := h.Results.ParticipantStats(r.Context(), actor.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// handleContestStats returns aggregate contest counters
func (h *Handlers) handleContestStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.Results.ContestStats(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// handleListNotifications returns the session user's notifications
func (h *Handlers) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.Notify.ListNotifications(r.Context(), actor.ID, unreadOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, notifications)
}

// handleMarkNotificationRead marks a notification as read
func (h *Handlers) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Notify.MarkRead(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Notification marked read")
}
