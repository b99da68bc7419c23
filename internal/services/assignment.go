package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// AssignmentServiceRepository defines the repository methods needed by AssignmentService
type AssignmentServiceRepository interface {
	repository.JudgeRepository
	repository.SampleRepository
	repository.SettingsRepository
}

// defaultCapacityKey is the settings key holding the contest-wide override
// for new judges' max assignments.
const defaultCapacityKey = "default_max_assignments"

// AssignmentService manages judge workload. The capacity check lives in the
// repository transaction; this layer does role gating, status gating and
// error shaping.
type AssignmentService struct {
	log        logger.Logger
	repo       AssignmentServiceRepository
	notify     NotificationServicer
	metrics    *metrics.Metrics
	defaultMax int
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(log logger.Logger, repo AssignmentServiceRepository, notify NotificationServicer, m *metrics.Metrics, defaultMax int) *AssignmentService {
	return &AssignmentService{
		log:        log,
		repo:       repo,
		notify:     notify,
		metrics:    m,
		defaultMax: defaultMax,
	}
}

// RegisterJudge adds a judge to the pool
func (s *AssignmentService) RegisterJudge(ctx context.Context, j models.Judge, actor Actor) (int, error) {
	if !isStaff(actor.Role) {
		return 0, ErrRoleNotAllowed
	}
	if j.MaxAssignments <= 0 {
		j.MaxAssignments = s.defaultMaxAssignments(ctx)
	}
	if j.Specialization == "" {
		j.Specialization = "any"
	}
	if j.CurrentAssignments != 0 {
		j.CurrentAssignments = 0
	}
	return s.repo.CreateJudge(ctx, j)
}

// defaultMaxAssignments resolves the capacity given to judges registered
// without one: the stored override when set, the configured default otherwise.
func (s *AssignmentService) defaultMaxAssignments(ctx context.Context) int {
	raw, err := s.repo.GetSetting(ctx, defaultCapacityKey)
	if err != nil {
		s.log.Error("failed to read default capacity setting", "error", err)
		return s.defaultMax
	}
	if raw == "" {
		return s.defaultMax
	}
	max, err := strconv.Atoi(raw)
	if err != nil || max <= 0 {
		s.log.Warn("ignoring invalid default capacity setting", "value", raw)
		return s.defaultMax
	}
	return max
}

// SetDefaultCapacity stores the contest-wide default for new judges'
// max assignments. Existing judges keep their capacity.
func (s *AssignmentService) SetDefaultCapacity(ctx context.Context, max int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	if max <= 0 {
		return &ServiceError{Message: "default capacity must be positive"}
	}
	if err := s.repo.SetSetting(ctx, defaultCapacityKey, strconv.Itoa(max)); err != nil {
		return err
	}
	s.log.Info("default judge capacity updated", "max_assignments", max)
	return nil
}

// ListJudges returns the judge pool, optionally restricted to evaluators
func (s *AssignmentService) ListJudges(ctx context.Context, evaluatorsOnly bool) ([]models.Judge, error) {
	return s.repo.ListJudges(ctx, evaluatorsOnly)
}

// assignable reports whether a sample can receive judge assignments.
func assignable(status models.SampleStatus) bool {
	return status == models.StatusApproved || status == models.StatusAssigned
}

// loadJudges resolves every id to a judge, failing when any is missing.
func (s *AssignmentService) loadJudges(ctx context.Context, judgeIDs []int) ([]models.Judge, error) {
	judges, err := s.repo.GetJudges(ctx, judgeIDs)
	if err != nil {
		return nil, err
	}
	if len(judges) != len(judgeIDs) {
		return nil, ErrJudgeNotFound
	}
	return judges, nil
}

// checkSpecialization rejects judges whose specialization covers neither the
// sample's category nor "any".
func checkSpecialization(judges []models.Judge, category models.ProductCategory) error {
	for _, j := range judges {
		if j.Specialization == "any" || j.Specialization == string(category) {
			continue
		}
		return &ServiceError{Message: fmt.Sprintf(
			"judge %d specializes in %s, not %s", j.ID, j.Specialization, category)}
	}
	return nil
}

// AssignJudges replaces the judge set of a sample. A judge over capacity
// fails the whole operation; the error names every judge that blocked it.
func (s *AssignmentService) AssignJudges(ctx context.Context, sampleID int, judgeIDs []int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	if len(judgeIDs) == 0 {
		return ErrNoJudgesSpecified
	}

	sample, err := s.repo.GetSample(ctx, sampleID)
	if err == repository.ErrNotFound {
		return ErrSampleNotFound
	}
	if err != nil {
		return err
	}
	if !assignable(sample.Status) {
		return &InvalidTransitionError{SampleID: sampleID, From: sample.Status, To: models.StatusAssigned}
	}
	judges, err := s.loadJudges(ctx, judgeIDs)
	if err != nil {
		return err
	}
	if err := checkSpecialization(judges, sample.Category); err != nil {
		return err
	}

	overCapacity, err := s.repo.ReplaceSampleJudges(ctx, sampleID, judgeIDs)
	if err != nil {
		return err
	}
	if len(overCapacity) > 0 {
		if s.metrics != nil {
			s.metrics.CapacityRejections.Inc()
		}
		return &CapacityExceededError{JudgeIDs: overCapacity}
	}

	if err := s.markAssigned(ctx, sample); err != nil {
		return err
	}

	s.notifyJudges(ctx, judgeIDs, sample.TrackingCode)
	s.log.Info("judges assigned", "sample_id", sampleID, "judges", len(judgeIDs))
	return nil
}

// BulkAssign assigns every judge to every sample in one atomic batch. The
// cumulative load is checked against each judge's remaining capacity; any
// shortfall rejects the whole batch.
func (s *AssignmentService) BulkAssign(ctx context.Context, sampleIDs, judgeIDs []int, actor Actor) error {
	if !isStaff(actor.Role) {
		return ErrRoleNotAllowed
	}
	if len(judgeIDs) == 0 {
		return ErrNoJudgesSpecified
	}
	if len(sampleIDs) == 0 {
		return &ServiceError{Message: "no samples specified"}
	}

	samples := make([]*models.Sample, 0, len(sampleIDs))
	for _, id := range sampleIDs {
		sample, err := s.repo.GetSample(ctx, id)
		if err == repository.ErrNotFound {
			return ErrSampleNotFound
		}
		if err != nil {
			return err
		}
		if !assignable(sample.Status) {
			return &InvalidTransitionError{SampleID: id, From: sample.Status, To: models.StatusAssigned}
		}
		samples = append(samples, sample)
	}
	judges, err := s.loadJudges(ctx, judgeIDs)
	if err != nil {
		return err
	}
	for _, sample := range samples {
		if err := checkSpecialization(judges, sample.Category); err != nil {
			return err
		}
	}

	overCapacity, err := s.repo.BulkAssignJudges(ctx, sampleIDs, judgeIDs)
	if err != nil {
		return err
	}
	if len(overCapacity) > 0 {
		if s.metrics != nil {
			s.metrics.CapacityRejections.Inc()
		}
		return &CapacityExceededError{JudgeIDs: overCapacity}
	}

	for _, sample := range samples {
		if err := s.markAssigned(ctx, sample); err != nil {
			return err
		}
		s.notifyJudges(ctx, judgeIDs, sample.TrackingCode)
	}

	s.log.Info("bulk assignment applied", "samples", len(sampleIDs), "judges", len(judgeIDs))
	return nil
}

// markAssigned moves an approved sample to assigned. Re-assignment of an
// already-assigned sample leaves the status alone.
func (s *AssignmentService) markAssigned(ctx context.Context, sample *models.Sample) error {
	if sample.Status != models.StatusApproved {
		return nil
	}
	ok, err := s.repo.UpdateSampleStatus(ctx, sample.ID, models.StatusApproved, models.StatusAssigned)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race. The judge set is committed either way, so only a
		// concurrent disqualification matters and that releases judges itself.
		s.log.Warn("sample status changed during assignment", "sample_id", sample.ID)
		return nil
	}
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(models.StatusAssigned)).Inc()
	}
	return nil
}

func (s *AssignmentService) notifyJudges(ctx context.Context, judgeIDs []int, trackingCode string) {
	if s.notify == nil {
		return
	}
	judges, err := s.repo.GetJudges(ctx, judgeIDs)
	if err != nil {
		s.log.Error("failed to load judges for notification", "error", err)
		return
	}
	for _, j := range judges {
		s.notify.Notify(ctx, j.UserID, models.NotifySampleAssigned,
			"New sample assigned",
			fmt.Sprintf("Sample %s is waiting for your evaluation", trackingCode),
			"normal")
	}
}
