package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// validNext is the sample lifecycle transition table. Disqualification is
// handled separately: it applies from any state after submission that is
// not already terminal.
var validNext = map[models.SampleStatus]map[models.SampleStatus]bool{
	models.StatusDraft:              {models.StatusSubmitted: true},
	models.StatusSubmitted:          {models.StatusReceived: true},
	models.StatusReceived:           {models.StatusPhysicalEvaluation: true},
	models.StatusPhysicalEvaluation: {models.StatusApproved: true},
	models.StatusApproved:           {models.StatusAssigned: true},
	models.StatusAssigned:           {models.StatusEvaluating: true},
	models.StatusEvaluating:         {models.StatusEvaluated: true},
}

// LifecycleServiceRepository defines the repository methods needed by LifecycleService
type LifecycleServiceRepository interface {
	repository.SampleRepository
	repository.EvaluationRepository
	repository.JudgeRepository
}

// LifecycleService drives samples through the evaluation lifecycle. Every
// transition is a conditional write: when two actors race, exactly one wins
// and the loser gets a StaleWriteError.
type LifecycleService struct {
	log     logger.Logger
	repo    LifecycleServiceRepository
	notify  NotificationServicer
	metrics *metrics.Metrics
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(log logger.Logger, repo LifecycleServiceRepository, notify NotificationServicer, m *metrics.Metrics) *LifecycleService {
	return &LifecycleService{
		log:     log,
		repo:    repo,
		notify:  notify,
		metrics: m,
	}
}

func isStaff(role models.Role) bool {
	return role == models.RoleDirector || role == models.RoleAdmin
}

// transition applies a conditional status change, translating the CAS
// outcome into the typed error taxonomy.
func (s *LifecycleService) transition(ctx context.Context, sample *models.Sample, to models.SampleStatus) error {
	from := sample.Status
	if !validNext[from][to] {
		if s.metrics != nil {
			s.metrics.TransitionsRejected.WithLabelValues("invalid_transition").Inc()
		}
		return &InvalidTransitionError{SampleID: sample.ID, From: from, To: to}
	}

	ok, err := s.repo.UpdateSampleStatus(ctx, sample.ID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.TransitionsRejected.WithLabelValues("stale_write").Inc()
		}
		return &StaleWriteError{SampleID: sample.ID, Expected: from}
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(to)).Inc()
	}
	s.log.Info("sample transition", "sample_id", sample.ID, "from", from, "to", to)
	return nil
}

// SubmitSample moves a draft into the contest. Only the owning participant
// (or an admin) may submit.
func (s *LifecycleService) SubmitSample(ctx context.Context, sampleID int, actor Actor) error {
	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		if actor.Role != models.RoleParticipant {
			return ErrRoleNotAllowed
		}
		if sample.ParticipantID != actor.ID {
			return ErrNotOwner
		}
	}
	if err := s.transition(ctx, sample, models.StatusSubmitted); err != nil {
		return err
	}

	if s.notify != nil {
		s.notify.Announce(ctx, models.NotifySampleSubmitted,
			"Sample submitted",
			fmt.Sprintf("Sample %s was submitted and awaits reception", sample.TrackingCode),
			"normal")
	}
	return nil
}

// MarkReceived records the physical arrival of a submitted sample
func (s *LifecycleService) MarkReceived(ctx context.Context, sampleID int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	if err := s.transition(ctx, sample, models.StatusReceived); err != nil {
		return err
	}

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifySampleReceived,
			"Sample received",
			fmt.Sprintf("Sample %s arrived and is queued for physical evaluation", sample.TrackingCode),
			"normal")
	}
	return nil
}

// StartPhysicalEvaluation moves a received sample onto the inspection bench
func (s *LifecycleService) StartPhysicalEvaluation(ctx context.Context, sampleID int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	return s.transition(ctx, sample, models.StatusPhysicalEvaluation)
}

// RecordPhysicalEvaluation stores the inspection result and resolves the
// sample: approved when it passed, disqualified when it did not.
func (s *LifecycleService) RecordPhysicalEvaluation(ctx context.Context, pe models.PhysicalEvaluation, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	sample, err := s.repo.GetSample(ctx, pe.SampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	if sample.Status != models.StatusPhysicalEvaluation {
		return &InvalidTransitionError{SampleID: sample.ID, From: sample.Status, To: models.StatusApproved}
	}

	if _, err := s.repo.InsertPhysicalEvaluation(ctx, pe); err != nil {
		if err == repository.ErrDuplicate {
			return &InvalidTransitionError{SampleID: sample.ID, From: sample.Status, To: models.StatusApproved}
		}
		return err
	}

	if !pe.Passed {
		reason := "failed physical evaluation"
		if strings.TrimSpace(pe.Notes) != "" {
			reason = "failed physical evaluation: " + pe.Notes
		}
		return s.Disqualify(ctx, pe.SampleID, []string{reason}, actor)
	}

	if err := s.transition(ctx, sample, models.StatusApproved); err != nil {
		return err
	}

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifySampleApproved,
			"Sample approved",
			fmt.Sprintf("Sample %s passed physical evaluation", sample.TrackingCode),
			"normal")
	}
	return nil
}

// Disqualify removes a sample from the contest, recording why. It applies
// from any post-draft, non-terminal state and wins any race against a
// concurrent forward transition. Assigned judges get their capacity back.
func (s *LifecycleService) Disqualify(ctx context.Context, sampleID int, reasons []string, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	if len(reasons) == 0 {
		return ErrNoReasonsGiven
	}

	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}

	ok, err := s.repo.DisqualifySample(ctx, sampleID, reasons)
	if err != nil {
		return err
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.TransitionsRejected.WithLabelValues("invalid_transition").Inc()
		}
		return &InvalidTransitionError{SampleID: sampleID, From: sample.Status, To: models.StatusDisqualified}
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(models.StatusDisqualified)).Inc()
	}
	s.log.Info("sample disqualified", "sample_id", sampleID, "reasons", strings.Join(reasons, "; "))

	if err := s.repo.ReleaseSampleJudges(ctx, sampleID); err != nil {
		s.log.Error("failed to release judges for disqualified sample", "sample_id", sampleID, "error", err)
	}

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifySampleDisqualified,
			"Sample disqualified",
			fmt.Sprintf("Sample %s was disqualified: %s", sample.TrackingCode, strings.Join(reasons, "; ")),
			"high")
	}
	return nil
}
