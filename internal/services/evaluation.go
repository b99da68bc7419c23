package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
	"github.com/avasquez/catador/internal/scoring"
)

// EvaluationInput carries one actor's raw sensory sheet for a sample
type EvaluationInput struct {
	SampleID       int                           `json:"sample_id" validate:"required,gt=0"`
	Attributes     map[string]map[string]float64 `json:"attributes" validate:"required"`
	OverallQuality float64                       `json:"overall_quality" validate:"gte=0,lte=10"`
	Notes          string                        `json:"notes"`
}

// EvaluationServiceRepository defines the repository methods needed by EvaluationService
type EvaluationServiceRepository interface {
	repository.SampleRepository
	repository.EvaluationRepository
	repository.JudgeRepository
}

// EvaluationService accepts sensory sheets, runs the score aggregation and
// advances the sample when every assigned judge has turned theirs in.
type EvaluationService struct {
	log     logger.Logger
	repo    EvaluationServiceRepository
	notify  NotificationServicer
	metrics *metrics.Metrics
}

// NewEvaluationService creates a new EvaluationService
func NewEvaluationService(log logger.Logger, repo EvaluationServiceRepository, notify NotificationServicer, m *metrics.Metrics) *EvaluationService {
	return &EvaluationService{
		log:     log,
		repo:    repo,
		notify:  notify,
		metrics: m,
	}
}

func assignedTo(sample *models.Sample, judgeID int) bool {
	for _, id := range sample.JudgeIDs {
		if id == judgeID {
			return true
		}
	}
	return false
}

// StartEvaluation marks a sample as being tasted. The first judge to start
// wins the assigned-to-evaluating transition; everyone after finds the
// sample already evaluating, which is fine.
func (s *EvaluationService) StartEvaluation(ctx context.Context, sampleID int, actor Actor) error {
	if actor.Role != models.RoleJudge && actor.Role != models.RoleAdmin {
		return ErrRoleNotAllowed
	}

	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	if actor.Role == models.RoleJudge && !assignedTo(sample, actor.ID) {
		return ErrRoleNotAllowed
	}

	switch sample.Status {
	case models.StatusEvaluating:
		return nil
	case models.StatusAssigned, models.StatusApproved:
		ok, err := s.repo.UpdateSampleStatus(ctx, sampleID, sample.Status, models.StatusEvaluating)
		if err != nil {
			return err
		}
		if !ok {
			// Another judge started first, or the sample was pulled.
			current, err := s.repo.GetSample(ctx, sampleID)
			if err != nil {
				return err
			}
			if current.Status == models.StatusEvaluating {
				return nil
			}
			return &StaleWriteError{SampleID: sampleID, Expected: sample.Status}
		}
		if s.metrics != nil {
			s.metrics.Transitions.WithLabelValues(string(models.StatusEvaluating)).Inc()
		}
		return nil
	default:
		return &InvalidTransitionError{SampleID: sampleID, From: sample.Status, To: models.StatusEvaluating}
	}
}

// scoreSheet validates and aggregates a raw sheet into a stored evaluation.
// The returned missing list names defined children the sheet omitted; those
// default to zero and the evaluation still stands.
func scoreSheet(input EvaluationInput, actorID int, stage models.EvaluationStage) (*models.Evaluation, []string, error) {
	if err := validate.Struct(input); err != nil {
		return nil, nil, &ServiceError{Message: "invalid evaluation: " + err.Error()}
	}
	if err := scoring.ValidateOverall(input.OverallQuality); err != nil {
		return nil, nil, &ServiceError{Message: err.Error()}
	}

	result, err := scoring.Aggregate(input.Attributes)
	if err != nil {
		var oor *scoring.OutOfRangeError
		if errors.As(err, &oor) {
			return nil, nil, &ServiceError{Message: err.Error()}
		}
		return nil, nil, err
	}

	return &models.Evaluation{
		SampleID:       input.SampleID,
		ActorID:        actorID,
		Stage:          stage,
		Attributes:     result.Attributes,
		GroupTotals:    result.GroupTotals,
		Radar:          result.Radar,
		OverallQuality: input.OverallQuality,
		Notes:          input.Notes,
		CreatedAt:      time.Now(),
	}, result.Missing, nil
}

// SubmitEvaluation stores a judge's completed sheet. When the last assigned
// judge submits, the sample moves to evaluated and the judges get their
// capacity back.
func (s *EvaluationService) SubmitEvaluation(ctx context.Context, input EvaluationInput, actor Actor) (*models.Evaluation, error) {
	if actor.Role != models.RoleJudge && actor.Role != models.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}

	sample, err := s.repo.GetSample(ctx, input.SampleID)
	if err == repository.ErrNotFound {
		return nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleJudge && !assignedTo(sample, actor.ID) {
		return nil, ErrRoleNotAllowed
	}
	if sample.Status != models.StatusEvaluating && sample.Status != models.StatusAssigned {
		return nil, &InvalidTransitionError{SampleID: sample.ID, From: sample.Status, To: models.StatusEvaluating}
	}
	if sample.Status == models.StatusAssigned {
		if err := s.StartEvaluation(ctx, input.SampleID, actor); err != nil {
			return nil, err
		}
	}

	eval, missing, err := scoreSheet(input, actor.ID, models.StageSensory)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.log.Warn("evaluation sheet incomplete", "sample_id", input.SampleID,
			"actor_id", actor.ID, "missing", strings.Join(missing, ","))
	}

	id, err := s.repo.InsertEvaluation(ctx, *eval)
	if err == repository.ErrDuplicate {
		if s.metrics != nil {
			s.metrics.DuplicatesRejected.Inc()
		}
		return nil, &DuplicateEvaluationError{SampleID: input.SampleID, ActorID: actor.ID, Stage: models.StageSensory}
	}
	if err != nil {
		return nil, err
	}
	eval.ID = id

	if s.metrics != nil {
		s.metrics.EvaluationsSubmitted.WithLabelValues(string(models.StageSensory)).Inc()
	}
	s.log.Info("evaluation submitted", "sample_id", input.SampleID, "actor_id", actor.ID)

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifyJudgeEvaluated,
			"Sample scored",
			fmt.Sprintf("A judge finished scoring sample %s", sample.TrackingCode),
			"low")
	}

	if err := s.completeIfDone(ctx, sample); err != nil {
		// Evaluation is stored; completion will retry on the next submit.
		s.log.Error("failed to complete sample", "sample_id", sample.ID, "error", err)
	}

	return eval, nil
}

// completeIfDone moves the sample to evaluated once every assigned judge
// has submitted.
func (s *EvaluationService) completeIfDone(ctx context.Context, sample *models.Sample) error {
	count, err := s.repo.CountEvaluations(ctx, sample.ID, models.StageSensory)
	if err != nil {
		return err
	}
	if len(sample.JudgeIDs) == 0 || count < len(sample.JudgeIDs) {
		return nil
	}

	ok, err := s.repo.UpdateSampleStatus(ctx, sample.ID, models.StatusEvaluating, models.StatusEvaluated)
	if err != nil {
		return err
	}
	if !ok {
		// Someone else completed it or the sample was disqualified.
		return nil
	}
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(models.StatusEvaluated)).Inc()
	}
	s.log.Info("sample fully evaluated", "sample_id", sample.ID, "evaluations", count)

	if err := s.repo.ReleaseSampleJudges(ctx, sample.ID); err != nil {
		s.log.Error("failed to release judges for evaluated sample", "sample_id", sample.ID, "error", err)
	}

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifySampleEvaluated,
			"Evaluation complete",
			fmt.Sprintf("All judges finished scoring sample %s", sample.TrackingCode),
			"normal")
	}
	return nil
}

// ListEvaluations returns the stored evaluations of a sample for a stage
func (s *EvaluationService) ListEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) ([]models.Evaluation, error) {
	return s.repo.ListEvaluations(ctx, sampleID, stage)
}
