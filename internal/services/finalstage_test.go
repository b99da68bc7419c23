package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/internal/testutil"
	"github.com/avasquez/catador/pkg/payments"
)

type finalStageEnv struct {
	svc       *services.FinalStageService
	repo      *repository.Repository
	gateway   *payments.MockClient
	contestID int
	sampleID  int
	evaluator services.Actor
}

// setupFinalStage builds an active contest with the final stage enabled,
// one evaluated top-ranked sample and one pool evaluator.
func setupFinalStage(t *testing.T) *finalStageEnv {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	m, _ := metrics.New()
	gateway := payments.NewMockClient()
	notify := services.NewNotificationService(log, repo, nil)
	results := services.NewResultsService(log, repo, notify)
	svc := services.NewFinalStageService(log, repo, results, gateway, notify, m)

	contest := testutil.ActiveContest()
	contest.TopN = 2
	contestID, err := repo.CreateContest(ctx, contest)
	if err != nil {
		t.Fatalf("CreateContest failed: %v", err)
	}
	if err := repo.SetFinalEvaluation(ctx, contestID, true); err != nil {
		t.Fatalf("SetFinalEvaluation failed: %v", err)
	}

	sampleID := seedEvaluatedSample(t, repo, contestID, models.StageSensory, 9.0)

	evaluatorID, err := repo.CreateJudge(ctx, models.Judge{
		UserID:         400,
		Name:           "Valentina",
		Specialization: "any",
		MaxAssignments: 5,
		Evaluator:      true,
	})
	if err != nil {
		t.Fatalf("CreateJudge failed: %v", err)
	}

	return &finalStageEnv{
		svc:       svc,
		repo:      repo,
		gateway:   gateway,
		contestID: contestID,
		sampleID:  sampleID,
		evaluator: services.Actor{ID: evaluatorID, Role: models.RoleEvaluator},
	}
}

func gateCondition(t *testing.T, err error) string {
	t.Helper()
	var denied *services.GateDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected GateDeniedError, got %v", err)
	}
	return denied.Condition
}

func TestCanPayAndEvaluate_NotPaidYet(t *testing.T) {
	env := setupFinalStage(t)

	err := env.svc.CanPayAndEvaluate(context.Background(), env.evaluator.ID, env.sampleID)
	if cond := gateCondition(t, err); cond != services.GateNotPaid {
		t.Errorf("expected not_paid, got %s", cond)
	}
}

func TestCanPayAndEvaluate_AllConditionsHold(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	if _, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID); err != nil {
		t.Fatalf("PayForSample failed: %v", err)
	}
	if err := env.svc.CanPayAndEvaluate(ctx, env.evaluator.ID, env.sampleID); err != nil {
		t.Errorf("expected gate to pass after payment, got %v", err)
	}
}

func TestGate_FinalStageDisabled(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	if err := env.repo.SetFinalEvaluation(ctx, env.contestID, false); err != nil {
		t.Fatalf("SetFinalEvaluation failed: %v", err)
	}

	err := env.svc.CanPayAndEvaluate(ctx, env.evaluator.ID, env.sampleID)
	if cond := gateCondition(t, err); cond != services.GateFinalStageOff {
		t.Errorf("expected final_stage_disabled, got %s", cond)
	}
}

func TestGate_ContestInactive(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	contest, _ := env.repo.GetContest(ctx, env.contestID)
	contest.StartDate = time.Now().Add(-96 * time.Hour)
	contest.EndDate = time.Now().Add(-24 * time.Hour)
	if err := env.repo.UpdateContest(ctx, *contest); err != nil {
		t.Fatalf("UpdateContest failed: %v", err)
	}

	err := env.svc.CanPayAndEvaluate(ctx, env.evaluator.ID, env.sampleID)
	if cond := gateCondition(t, err); cond != services.GateContestInactive {
		t.Errorf("expected contest_inactive, got %s", cond)
	}
}

func TestGate_NonEvaluatorRejected(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	plainJudge, err := env.repo.CreateJudge(ctx, models.Judge{
		UserID: 401, Name: "Solo Juez", Specialization: "any", MaxAssignments: 5,
	})
	if err != nil {
		t.Fatalf("CreateJudge failed: %v", err)
	}

	gateErr := env.svc.CanPayAndEvaluate(ctx, plainJudge, env.sampleID)
	if cond := gateCondition(t, gateErr); cond != services.GateNotEvaluator {
		t.Errorf("expected not_evaluator, got %s", cond)
	}
}

func TestGate_SampleOutsideTopN(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	// Push two better samples in; top_n is 2, so env.sampleID drops out
	seedEvaluatedSample(t, env.repo, env.contestID, models.StageSensory, 9.5)
	seedEvaluatedSample(t, env.repo, env.contestID, models.StageSensory, 9.3)

	err := env.svc.CanPayAndEvaluate(ctx, env.evaluator.ID, env.sampleID)
	if cond := gateCondition(t, err); cond != services.GateSampleNotEligible {
		t.Errorf("expected sample_not_top_n, got %s", cond)
	}
}

func TestPayForSample_Idempotent(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	first, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID)
	if err != nil {
		t.Fatalf("PayForSample failed: %v", err)
	}
	second, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID)
	if err != nil {
		t.Fatalf("repeat PayForSample failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same payment record, got %d and %d", first.ID, second.ID)
	}
	if env.gateway.Calls() != 1 {
		t.Errorf("expected a single gateway charge, got %d", env.gateway.Calls())
	}
}

func TestPayForSample_UnknownOutcomeRetrySafe(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	env.gateway.SetConfirmError(payments.ErrUnknownOutcome)
	_, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID)
	if !errors.Is(err, payments.ErrUnknownOutcome) {
		t.Fatalf("expected ErrUnknownOutcome, got %v", err)
	}

	// No payment record written for an unknown outcome
	if _, err := env.repo.GetPaymentRecord(ctx, env.evaluator.ID, env.sampleID); err != repository.ErrNotFound {
		t.Errorf("expected no payment record, got err=%v", err)
	}

	// Gateway recovers; the retry reuses the same idempotency key
	env.gateway.SetConfirmError(nil)
	record, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID)
	if err != nil {
		t.Fatalf("retry PayForSample failed: %v", err)
	}
	if record.Amount != testutil.ActiveContest().SampleFee {
		t.Errorf("expected sample fee %v, got %v", testutil.ActiveContest().SampleFee, record.Amount)
	}
}

func TestSubmitFinalEvaluation_FullFlow(t *testing.T) {
	env := setupFinalStage(t)
	ctx := context.Background()

	if _, err := env.svc.PayForSample(ctx, env.evaluator.ID, env.sampleID); err != nil {
		t.Fatalf("PayForSample failed: %v", err)
	}

	input := services.EvaluationInput{
		SampleID: env.sampleID,
		Attributes: map[string]map[string]float64{
			"wood": {"light": 3, "dark_wood": 2},
		},
		OverallQuality: 9.1,
	}
	eval, err := env.svc.SubmitFinalEvaluation(ctx, input, env.evaluator)
	if err != nil {
		t.Fatalf("SubmitFinalEvaluation failed: %v", err)
	}
	if eval.Stage != models.StageFinal {
		t.Errorf("expected final stage evaluation, got %s", eval.Stage)
	}

	// A second submission hits the already-evaluated gate
	_, err = env.svc.SubmitFinalEvaluation(ctx, input, env.evaluator)
	if cond := gateCondition(t, err); cond != services.GateAlreadyEvaluated {
		t.Errorf("expected already_evaluated, got %s", cond)
	}
}

func TestSubmitFinalEvaluation_WithoutPayment(t *testing.T) {
	env := setupFinalStage(t)

	input := services.EvaluationInput{
		SampleID:       env.sampleID,
		Attributes:     map[string]map[string]float64{},
		OverallQuality: 8.0,
	}
	_, err := env.svc.SubmitFinalEvaluation(context.Background(), input, env.evaluator)
	if cond := gateCondition(t, err); cond != services.GateNotPaid {
		t.Errorf("expected not_paid, got %s", cond)
	}
}
