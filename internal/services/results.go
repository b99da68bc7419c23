package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	repository.ContestRepository
	repository.EvaluationRepository
}

// ResultsService compiles rankings from stored evaluations. Rankings are
// recomputed from the evaluations on every call, so the same inputs always
// produce the same ordering.
type ResultsService struct {
	log    logger.Logger
	repo   ResultsServiceRepository
	notify NotificationServicer
}

// NewResultsService creates a new ResultsService. notify may be nil when no
// publication events are wanted.
func NewResultsService(log logger.Logger, repo ResultsServiceRepository, notify NotificationServicer) *ResultsService {
	return &ResultsService{
		log:    log,
		repo:   repo,
		notify: notify,
	}
}

var awards = [3]string{"gold", "silver", "bronze"}

// Rankings returns the ordered results of a contest for the given stage.
// Samples sort by average score descending; ties break on the earliest
// evaluation completion, then on sample id.
func (s *ResultsService) Rankings(ctx context.Context, contestID int, stage models.EvaluationStage) ([]models.RankingEntry, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	rows, err := s.repo.ListEvaluatedSamples(ctx, contestID, stage)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		row         repository.EvaluatedSampleRow
		score       float64
		evaluatedAt time.Time
	}
	entries := make([]ranked, len(rows))
	for i, row := range rows {
		at, _ := time.Parse(time.RFC3339Nano, row.EvaluatedAt)
		entries[i] = ranked{
			row:         row,
			score:       math.Round(row.AvgScore*10) / 10,
			evaluatedAt: at,
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		if !entries[i].evaluatedAt.Equal(entries[j].evaluatedAt) {
			return entries[i].evaluatedAt.Before(entries[j].evaluatedAt)
		}
		return entries[i].row.SampleID < entries[j].row.SampleID
	})

	result := make([]models.RankingEntry, len(entries))
	for i, e := range entries {
		entry := models.RankingEntry{
			SampleID:      e.row.SampleID,
			ContestID:     e.row.ContestID,
			TrackingCode:  e.row.TrackingCode,
			ParticipantID: e.row.ParticipantID,
			OverallScore:  e.score,
			Rank:          i + 1,
		}
		if stage == models.StageFinal && i < len(awards) {
			entry.Award = awards[i]
		}
		result[i] = entry
	}
	return result, nil
}

// TopN returns the first n ranking entries, or all of them when fewer
// samples finished evaluation.
func (s *ResultsService) TopN(ctx context.Context, contestID, n int, stage models.EvaluationStage) ([]models.RankingEntry, error) {
	rankings, err := s.Rankings(ctx, contestID, stage)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(rankings) > n {
		rankings = rankings[:n]
	}
	return rankings, nil
}

// PublishFinalRanking closes out a contest's final stage: it compiles the
// final rankings and tells the medal winners. Recomputing the ranking stays
// idempotent; publishing again re-notifies the same top three.
func (s *ResultsService) PublishFinalRanking(ctx context.Context, contestID int, actor Actor) ([]models.RankingEntry, error) {
	if !isStaff(actor.Role) {
		return nil, ErrRoleNotAllowed
	}

	rankings, err := s.Rankings(ctx, contestID, models.StageFinal)
	if err != nil {
		return nil, err
	}
	s.log.Info("final ranking published", "contest_id", contestID, "entries", len(rankings))

	if s.notify != nil {
		for _, entry := range rankings {
			if entry.Award == "" {
				break
			}
			s.notify.Notify(ctx, entry.ParticipantID, models.NotifyFinalRankingTop3,
				"Final ranking published",
				fmt.Sprintf("Sample %s placed %s (rank %d)", entry.TrackingCode, entry.Award, entry.Rank),
				"high")
		}
	}
	return rankings, nil
}

// ParticipantStats returns a participant's aggregate counters across all
// contests: samples by status, evaluation totals, average and best score.
func (s *ResultsService) ParticipantStats(ctx context.Context, participantID int) (map[string]interface{}, error) {
	return s.repo.GetParticipantStats(ctx, participantID)
}

// ContestStats returns aggregate contest counters plus the derived status
func (s *ResultsService) ContestStats(ctx context.Context, contestID int) (map[string]interface{}, error) {
	contest, err := s.repo.GetContest(ctx, contestID)
	if err == repository.ErrNotFound {
		return nil, ErrContestNotFound
	}
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetContestStats(ctx, contestID)
	if err != nil {
		return nil, err
	}
	stats["contest_status"] = string(contest.StatusAt(time.Now()))
	stats["final_evaluation"] = contest.FinalEvaluation
	return stats, nil
}
