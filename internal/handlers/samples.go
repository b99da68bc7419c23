package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/services"
)

// handleRegisterSample registers a new sample for the session's participant
func (h *Handlers) handleRegisterSample(w http.ResponseWriter, r *http.Request) {
	var input services.SampleInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, err)
		return
	}

	sample, err := h.Sample.RegisterSample(r.Context(), input, actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, SampleResponse{Sample: sample, DisplayStatus: h.Sample.DisplayStatus(sample)})
}

// handleGetSample returns a sample with its participant-facing status
func (h *Handlers) handleGetSample(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	sample, err := h.Sample.GetSample(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, SampleResponse{Sample: sample, DisplayStatus: h.Sample.DisplayStatus(sample)})
}

// handleTrackSample looks a sample up by its anonymous tracking code.
// Public: the response only carries the coarse display status.
func (h *Handlers) handleTrackSample(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, BadRequest("Missing tracking code"))
		return
	}

	sample, err := h.Sample.GetSampleByTrackingCode(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]string{
		"tracking_code": sample.TrackingCode,
		"status":        h.Sample.DisplayStatus(sample),
	})
}

// handleSampleQR renders the sample's tracking code as a QR PNG
func (h *Handlers) handleSampleQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Sample.TrackingQR(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleListContestSamples returns all samples in a contest
func (h *Handlers) handleListContestSamples(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	samples, err := h.Sample.ListSamplesByContest(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, samples)
}

// handleMySamples returns the session participant's samples
func (h *Handlers) handleMySamples(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	samples, err := h.Sample.ListSamplesByParticipant(r.Context(), actor.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, samples)
}

// handleSubmitSample moves a draft sample into the contest
func (h *Handlers) handleSubmitSample(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Lifecycle.SubmitSample(r.Context(), id, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Sample submitted")
}

// handleReceiveSample records physical arrival of a sample
func (h *Handlers) handleReceiveSample(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Lifecycle.MarkReceived(r.Context(), id, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Sample received")
}

// handleStartPhysicalEvaluation puts a sample on the bench
func (h *Handlers) handleStartPhysicalEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Lifecycle.StartPhysicalEvaluation(r.Context(), id, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Physical evaluation started")
}

// handleRecordPhysicalEvaluation records the bench result. A failed check
// disqualifies the sample, a pass approves it for judging.
func (h *Handlers) handleRecordPhysicalEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req PhysicalEvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actor := actorFrom(r)
	pe := models.PhysicalEvaluation{
		SampleID:        id,
		DirectorID:      actor.ID,
		MoisturePct:     req.MoisturePct,
		FermentationPct: req.FermentationPct,
		DefectCount:     req.DefectCount,
		LotWeightKG:     req.LotWeightKG,
		Notes:           req.Notes,
		Passed:          req.Passed,
	}
	if err := h.Lifecycle.RecordPhysicalEvaluation(r.Context(), pe, actor); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Physical evaluation recorded")
}

// handleDisqualifySample pulls a sample from the contest
func (h *Handlers) handleDisqualifySample(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req DisqualifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Lifecycle.Disqualify(r.Context(), id, req.Reasons, actorFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Sample disqualified")
}
