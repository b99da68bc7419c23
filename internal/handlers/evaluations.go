package handlers

import (
	"net/http"

	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/services"
)

// handleStartEvaluation marks a sample as being tasted
func (h *Handlers) handleStartEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Evaluation.StartEvaluation(r.Context(), id, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Evaluation started")
}

// handleSubmitEvaluation accepts a judge's sensory sheet
func (h *Handlers) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var input services.EvaluationInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, err)
		return
	}

	eval, err := h.Evaluation.SubmitEvaluation(r.Context(), input, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, eval)
}

// handleListEvaluations returns a sample's evaluations for a stage
func (h *Handlers) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	stage := models.StageSensory
	if r.URL.Query().Get("stage") == string(models.StageFinal) {
		stage = models.StageFinal
	}

	evals, err := h.Evaluation.ListEvaluations(r.Context(), id, stage)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, evals)
}

// handleFinalStageGate reports whether the evaluator may pay for and
// score the sample, without charging anything
func (h *Handlers) handleFinalStageGate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	actor := actorFrom(r)
	if err := h.FinalStage.CanPayAndEvaluate(r.Context(), actor.ID, id); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]bool{"allowed": true})
}

// handlePayForSample charges the final-stage fee for a sample
func (h *Handlers) handlePayForSample(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	actor := actorFrom(r)
	record, err := h.FinalStage.PayForSample(r.Context(), actor.ID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, PaymentResponse{Record: record})
}

// handleSubmitFinalEvaluation accepts an evaluator's final-stage sheet
func (h *Handlers) handleSubmitFinalEvaluation(w http.ResponseWriter, r *http.Request) {
	var input services.EvaluationInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, err)
		return
	}

	eval, err := h.FinalStage.SubmitFinalEvaluation(r.Context(), input, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, eval)
}
