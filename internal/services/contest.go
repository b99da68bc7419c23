package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// ContestServiceRepository defines the repository methods needed by ContestService
type ContestServiceRepository interface {
	repository.ContestRepository
}

// ContestService handles contest administration
type ContestService struct {
	log         logger.Logger
	repo        ContestServiceRepository
	results     ResultsServicer
	notify      NotificationServicer
	defaultTopN int
}

// NewContestService creates a new ContestService
func NewContestService(log logger.Logger, repo ContestServiceRepository, results ResultsServicer, notify NotificationServicer, defaultTopN int) *ContestService {
	return &ContestService{
		log:         log,
		repo:        repo,
		results:     results,
		notify:      notify,
		defaultTopN: defaultTopN,
	}
}

func validateContestDates(c models.Contest) error {
	if c.Name == "" {
		return &ServiceError{Message: "contest name is required"}
	}
	if !c.EndDate.After(c.StartDate) {
		return &ServiceError{Message: "contest end date must be after its start date"}
	}
	if c.RegistrationDeadline.After(c.SubmissionDeadline) {
		return &ServiceError{Message: "registration must close before the submission deadline"}
	}
	if c.SubmissionDeadline.After(c.StartDate) {
		return &ServiceError{Message: "submission deadline must not be after the contest start"}
	}
	return nil
}

// CreateContest creates a contest. The final-evaluation flag always starts
// off; it is enabled explicitly once the sensory stage has results.
func (s *ContestService) CreateContest(ctx context.Context, c models.Contest, actor Actor) (int, error) {
	if !isStaff(actor.Role) {
		return 0, ErrRoleNotAllowed
	}
	if err := validateContestDates(c); err != nil {
		return 0, err
	}
	if c.TopN <= 0 {
		c.TopN = s.defaultTopN
	}
	c.FinalEvaluation = false

	id, err := s.repo.CreateContest(ctx, c)
	if err != nil {
		return 0, err
	}
	s.log.Info("contest created", "contest_id", id, "name", c.Name)
	return id, nil
}

// GetContest retrieves a contest by id
func (s *ContestService) GetContest(ctx context.Context, id int) (*models.Contest, error) {
	contest, err := s.repo.GetContest(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrContestNotFound
	}
	return contest, err
}

// ListContests returns all contests
func (s *ContestService) ListContests(ctx context.Context) ([]models.Contest, error) {
	return s.repo.ListContests(ctx)
}

// UpdateContest updates a contest's schedule and fees
func (s *ContestService) UpdateContest(ctx context.Context, c models.Contest, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	if err := validateContestDates(c); err != nil {
		return err
	}
	err := s.repo.UpdateContest(ctx, c)
	if err == repository.ErrNotFound {
		return ErrContestNotFound
	}
	return err
}

// ContestStatus derives the contest's coarse status from its date range
func (s *ContestService) ContestStatus(ctx context.Context, id int) (models.ContestStatus, error) {
	contest, err := s.GetContest(ctx, id)
	if err != nil {
		return "", err
	}
	return contest.StatusAt(time.Now()), nil
}

// EnableFinalStage opens the paid final evaluation stage for a contest and
// tells the top-ranked participants their samples qualified.
func (s *ContestService) EnableFinalStage(ctx context.Context, contestID int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	contest, err := s.GetContest(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.StatusAt(time.Now()) != models.ContestActive {
		return &ServiceError{Message: "final stage can only be enabled on an active contest"}
	}

	if err := s.repo.SetFinalEvaluation(ctx, contestID, true); err != nil {
		if err == repository.ErrNotFound {
			return ErrContestNotFound
		}
		return err
	}
	s.log.Info("final stage enabled", "contest_id", contestID)

	if s.notify == nil || s.results == nil {
		return nil
	}
	top, err := s.results.TopN(ctx, contestID, contest.TopN, models.StageSensory)
	if err != nil {
		s.log.Error("failed to compute top samples for notification", "contest_id", contestID, "error", err)
		return nil
	}
	for _, entry := range top {
		s.notify.Notify(ctx, entry.ParticipantID, models.NotifyContestFinalStage,
			"Final stage open",
			fmt.Sprintf("Sample %s qualified for the final evaluation stage (rank %d)", entry.TrackingCode, entry.Rank),
			"high")
	}
	return nil
}
