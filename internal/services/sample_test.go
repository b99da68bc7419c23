package services_test

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/internal/testutil"
)

func setupSample(t *testing.T) (*services.SampleService, *repository.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	svc := services.NewSampleService(logger.New(), repo)
	return svc, repo
}

// openContest returns a contest whose registration window is still open.
func openContest(t *testing.T, repo *repository.Repository) int {
	t.Helper()
	now := time.Now()
	id, err := repo.CreateContest(context.Background(), models.Contest{
		Name:                 "Upcoming Harvest",
		RegistrationDeadline: now.Add(24 * time.Hour),
		SubmissionDeadline:   now.Add(48 * time.Hour),
		StartDate:            now.Add(72 * time.Hour),
		EndDate:              now.Add(96 * time.Hour),
		SampleFee:            25,
		TopN:                 10,
	})
	if err != nil {
		t.Fatalf("CreateContest failed: %v", err)
	}
	return id
}

var trackingCodePattern = regexp.MustCompile(`^CAT-[0-9A-F]{8}$`)

func TestRegisterSample_CreatesDraftWithTrackingCode(t *testing.T) {
	svc, repo := setupSample(t)
	ctx := context.Background()
	contestID := openContest(t, repo)

	sample, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    contestID,
		Category:     models.CategoryBean,
		ProducerName: "Finca La Esperanza",
		Region:       "Manabi",
		HarvestYear:  2026,
	}, participant)
	if err != nil {
		t.Fatalf("RegisterSample failed: %v", err)
	}

	if sample.Status != models.StatusDraft {
		t.Errorf("expected draft, got %s", sample.Status)
	}
	if !trackingCodePattern.MatchString(sample.TrackingCode) {
		t.Errorf("unexpected tracking code format %q", sample.TrackingCode)
	}
	if sample.ParticipantID != participant.ID {
		t.Errorf("expected owner %d, got %d", participant.ID, sample.ParticipantID)
	}
}

func TestRegisterSample_RegistrationClosed(t *testing.T) {
	svc, repo := setupSample(t)
	ctx := context.Background()

	closedID, err := repo.CreateContest(ctx, testutil.ActiveContest()) // deadline already passed
	if err != nil {
		t.Fatalf("CreateContest failed: %v", err)
	}

	_, err = svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    closedID,
		Category:     models.CategoryBean,
		ProducerName: "Tardio",
	}, participant)
	if err == nil {
		t.Error("expected error for closed registration")
	}
}

func TestRegisterSample_RejectsInvalidInput(t *testing.T) {
	svc, repo := setupSample(t)
	ctx := context.Background()
	contestID := openContest(t, repo)

	if _, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID: contestID,
		Category:  models.CategoryBean,
	}, participant); err == nil {
		t.Error("expected error for missing producer name")
	}

	if _, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    contestID,
		Category:     "powder",
		ProducerName: "X",
	}, participant); err == nil {
		t.Error("expected error for unknown category")
	}

	if _, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    contestID,
		Category:     models.CategoryBean,
		ProducerName: "X",
	}, services.Actor{ID: 5, Role: models.RoleJudge}); err != services.ErrRoleNotAllowed {
		t.Error("expected ErrRoleNotAllowed for judge registering a sample")
	}
}

func TestTrackingQR_RendersPNG(t *testing.T) {
	svc, repo := setupSample(t)
	ctx := context.Background()
	contestID := openContest(t, repo)

	sample, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    contestID,
		Category:     models.CategoryLiquor,
		ProducerName: "Chocolatera Andina",
	}, participant)
	if err != nil {
		t.Fatalf("RegisterSample failed: %v", err)
	}

	png, err := svc.TrackingQR(ctx, sample.ID)
	if err != nil {
		t.Fatalf("TrackingQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestGetSampleByTrackingCode_Lookup(t *testing.T) {
	svc, repo := setupSample(t)
	ctx := context.Background()
	contestID := openContest(t, repo)

	sample, err := svc.RegisterSample(ctx, services.SampleInput{
		ContestID:    contestID,
		Category:     models.CategoryChocolate,
		ProducerName: "Taller Nibs",
	}, participant)
	if err != nil {
		t.Fatalf("RegisterSample failed: %v", err)
	}

	found, err := svc.GetSampleByTrackingCode(ctx, sample.TrackingCode)
	if err != nil {
		t.Fatalf("GetSampleByTrackingCode failed: %v", err)
	}
	if found.ID != sample.ID {
		t.Errorf("expected sample %d, got %d", sample.ID, found.ID)
	}

	if _, err := svc.GetSampleByTrackingCode(ctx, "CAT-00000000"); err != services.ErrSampleNotFound {
		t.Errorf("expected ErrSampleNotFound, got %v", err)
	}
}

func TestDisplayStatus_CollapsesBenchStates(t *testing.T) {
	svc, _ := setupSample(t)

	cases := map[models.SampleStatus]string{
		models.StatusDraft:              "draft",
		models.StatusReceived:           "in review",
		models.StatusPhysicalEvaluation: "in review",
		models.StatusApproved:           "in evaluation",
		models.StatusAssigned:           "in evaluation",
		models.StatusEvaluating:         "in evaluation",
		models.StatusEvaluated:          "evaluated",
		models.StatusDisqualified:       "disqualified",
	}
	for status, want := range cases {
		got := svc.DisplayStatus(&models.Sample{Status: status})
		if got != want {
			t.Errorf("status %s: expected %q, got %q", status, want, got)
		}
	}
}
