package testutil

import (
	"testing"
	"time"

	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// ActiveContest returns a contest whose date range covers the current time.
func ActiveContest() models.Contest {
	now := time.Now()
	return models.Contest{
		Name:                 "Test Contest",
		Location:             "Guayaquil",
		RegistrationDeadline: now.Add(-48 * time.Hour),
		SubmissionDeadline:   now.Add(-24 * time.Hour),
		StartDate:            now.Add(-1 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		EntryFee:             50,
		SampleFee:            25,
		TopN:                 10,
	}
}

// CompletedContest returns a contest whose date range is entirely in the past.
func CompletedContest() models.Contest {
	c := ActiveContest()
	c.StartDate = time.Now().Add(-96 * time.Hour)
	c.EndDate = time.Now().Add(-24 * time.Hour)
	return c
}
