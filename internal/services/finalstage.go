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
	"github.com/avasquez/catador/pkg/payments"
)

// Gate denial conditions, in check order.
const (
	GateContestInactive   = "contest_inactive"
	GateFinalStageOff     = "final_stage_disabled"
	GateNotEvaluator      = "not_evaluator"
	GateSampleNotEligible = "sample_not_top_n"
	GateNotPaid           = "not_paid"
	GateAlreadyEvaluated  = "already_evaluated"
)

// FinalStageServiceRepository defines the repository methods needed by FinalStageService
type FinalStageServiceRepository interface {
	repository.ContestRepository
	repository.SampleRepository
	repository.JudgeRepository
	repository.EvaluationRepository
	repository.PaymentRepository
}

// FinalStageService gates the paid final evaluation stage. Every condition
// is re-checked at payment time and again at submission time, because the
// contest can close or the flag can flip between the two.
type FinalStageService struct {
	log     logger.Logger
	repo    FinalStageServiceRepository
	results ResultsServicer
	gateway payments.Client
	notify  NotificationServicer
	metrics *metrics.Metrics
}

// NewFinalStageService creates a new FinalStageService
func NewFinalStageService(log logger.Logger, repo FinalStageServiceRepository, results ResultsServicer, gateway payments.Client, notify NotificationServicer, m *metrics.Metrics) *FinalStageService {
	return &FinalStageService{
		log:     log,
		repo:    repo,
		results: results,
		gateway: gateway,
		notify:  notify,
		metrics: m,
	}
}

func (s *FinalStageService) deny(sampleID int, condition string) error {
	if s.metrics != nil {
		s.metrics.GateDenials.WithLabelValues(condition).Inc()
	}
	return &GateDeniedError{SampleID: sampleID, Condition: condition}
}

// gate checks the final-stage conditions for an evaluator and sample.
// requirePaid controls whether the payment check applies: payment itself
// runs the gate without it.
func (s *FinalStageService) gate(ctx context.Context, evaluatorID, sampleID int, requirePaid bool) (*models.Sample, *models.Contest, error) {
	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return nil, nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	contest, err := s.repo.GetContest(ctx, sample.ContestID)
	if err == repository.ErrNotFound {
		return nil, nil, ErrContestNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if contest.StatusAt(time.Now()) != models.ContestActive {
		return nil, nil, s.deny(sampleID, GateContestInactive)
	}
	if !contest.FinalEvaluation {
		return nil, nil, s.deny(sampleID, GateFinalStageOff)
	}

	judge, err := s.repo.GetJudge(ctx, evaluatorID)
	if err == repository.ErrNotFound {
		return nil, nil, ErrJudgeNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !judge.Evaluator {
		return nil, nil, s.deny(sampleID, GateNotEvaluator)
	}

	eligible, err := s.sampleInTopN(ctx, contest, sampleID)
	if err != nil {
		return nil, nil, err
	}
	if !eligible {
		return nil, nil, s.deny(sampleID, GateSampleNotEligible)
	}

	if requirePaid {
		_, err := s.repo.GetPaymentRecord(ctx, evaluatorID, sampleID)
		if err == repository.ErrNotFound {
			return nil, nil, s.deny(sampleID, GateNotPaid)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	done, err := s.repo.HasEvaluation(ctx, sampleID, evaluatorID, models.StageFinal)
	if err != nil {
		return nil, nil, err
	}
	if done {
		return nil, nil, s.deny(sampleID, GateAlreadyEvaluated)
	}

	return sample, contest, nil
}

// sampleInTopN reports whether the sample ranked in the contest's sensory
// top N, which is what the final stage is restricted to.
func (s *FinalStageService) sampleInTopN(ctx context.Context, contest *models.Contest, sampleID int) (bool, error) {
	top, err := s.results.TopN(ctx, contest.ID, contest.TopN, models.StageSensory)
	if err != nil {
		return false, err
	}
	for _, entry := range top {
		if entry.SampleID == sampleID {
			return true, nil
		}
	}
	return false, nil
}

// CanPayAndEvaluate reports whether an evaluator may enter the final stage
// for a sample. nil means every condition holds, including payment.
func (s *FinalStageService) CanPayAndEvaluate(ctx context.Context, evaluatorID, sampleID int) error {
	_, _, err := s.gate(ctx, evaluatorID, sampleID, true)
	return err
}

// finalIdempotencyKey is stable per (evaluator, sample), so a retry after a
// timed-out gateway call cannot double-charge.
func finalIdempotencyKey(evaluatorID, sampleID int) string {
	return fmt.Sprintf("final-%d-%d", evaluatorID, sampleID)
}

// PayForSample charges the contest's sample fee for one final-stage
// evaluation slot. An unknown gateway outcome is surfaced as-is: no payment
// record is written, and retrying with the stable key is safe.
func (s *FinalStageService) PayForSample(ctx context.Context, evaluatorID, sampleID int) (*models.PaymentRecord, error) {
	sample, contest, err := s.gate(ctx, evaluatorID, sampleID, false)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetPaymentRecord(ctx, evaluatorID, sampleID); err == nil {
		return existing, nil
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	key := finalIdempotencyKey(evaluatorID, sampleID)
	receipt, err := s.gateway.ConfirmPayment(ctx, payments.Charge{
		IdempotencyKey: key,
		Amount:         contest.SampleFee,
		Reference:      sample.TrackingCode,
	})
	if errors.Is(err, payments.ErrUnknownOutcome) {
		s.log.Warn("payment outcome unknown", "evaluator_id", evaluatorID, "sample_id", sampleID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	record := models.PaymentRecord{
		EvaluatorID:    evaluatorID,
		SampleID:       sampleID,
		Amount:         receipt.Amount,
		IdempotencyKey: key,
		ConfirmedAt:    time.Now(),
	}
	id, err := s.repo.InsertPaymentRecord(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	s.log.Info("sample fee paid", "evaluator_id", evaluatorID, "sample_id", sampleID, "amount", record.Amount)
	return &record, nil
}

// SubmitFinalEvaluation stores an evaluator's final-stage sheet. The gate
// runs again here: paying does not exempt anyone from the other conditions.
func (s *FinalStageService) SubmitFinalEvaluation(ctx context.Context, input EvaluationInput, actor Actor) (*models.Evaluation, error) {
	if actor.Role != models.RoleEvaluator && actor.Role != models.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}

	sample, _, err := s.gate(ctx, actor.ID, input.SampleID, true)
	if err != nil {
		return nil, err
	}

	eval, missing, err := scoreSheet(input, actor.ID, models.StageFinal)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.log.Warn("final sheet incomplete", "sample_id", input.SampleID,
			"evaluator_id", actor.ID, "missing", strings.Join(missing, ","))
	}

	id, err := s.repo.InsertEvaluation(ctx, *eval)
	if err == repository.ErrDuplicate {
		if s.metrics != nil {
			s.metrics.DuplicatesRejected.Inc()
		}
		return nil, &DuplicateEvaluationError{SampleID: input.SampleID, ActorID: actor.ID, Stage: models.StageFinal}
	}
	if err != nil {
		return nil, err
	}
	eval.ID = id

	if s.metrics != nil {
		s.metrics.EvaluationsSubmitted.WithLabelValues(string(models.StageFinal)).Inc()
	}
	s.log.Info("final evaluation submitted", "sample_id", input.SampleID, "evaluator_id", actor.ID)

	if s.notify != nil {
		s.notify.Notify(ctx, sample.ParticipantID, models.NotifyEvaluatorEvaluated,
			"Final stage score recorded",
			fmt.Sprintf("An evaluator scored sample %s in the final stage", sample.TrackingCode),
			"normal")
	}
	return eval, nil
}
