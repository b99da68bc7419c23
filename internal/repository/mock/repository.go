package mock

import (
	"context"

	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.UpdateSampleStatusError = errors.New("database error")
//	svc := services.NewLifecycleService(log, mockRepo, nil, nil)
//	err := svc.MarkReceived(ctx, sampleID, models.RoleDirector)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Contest Errors =====
	CreateContestError      error
	GetContestError         error
	ListContestsError       error
	UpdateContestError      error
	SetFinalEvaluationError error
	GetContestStatsError    error

	// ===== Sample Errors =====
	CreateSampleError             error
	GetSampleError                error
	GetSampleByTrackingCodeError  error
	ListSamplesByContestError     error
	ListSamplesByParticipantError error
	UpdateSampleStatusError       error
	DisqualifySampleError         error
	CountSamplesByStatusError     error

	// ===== Judge Errors =====
	CreateJudgeError         error
	GetJudgeError            error
	ListJudgesError          error
	GetJudgesError           error
	ListSampleJudgesError    error
	ReplaceSampleJudgesError error
	BulkAssignJudgesError    error
	ReleaseSampleJudgesError error

	// ===== Evaluation Errors =====
	InsertPhysicalEvaluationError error
	GetPhysicalEvaluationError    error
	InsertEvaluationError         error
	ListEvaluationsError          error
	HasEvaluationError            error
	CountEvaluationsError         error
	ListEvaluatedSamplesError     error
	GetParticipantStatsError      error

	// ===== Payment Errors =====
	InsertPaymentRecordError       error
	GetPaymentRecordError          error
	GetPaymentByIdempotencyKeyError error

	// ===== Notification Errors =====
	InsertNotificationError   error
	ListNotificationsError    error
	MarkNotificationReadError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Contest Methods =====

func (m *Repository) CreateContest(ctx context.Context, c models.Contest) (int, error) {
	if m.CreateContestError != nil {
		return 0, m.CreateContestError
	}
	return m.FullRepository.CreateContest(ctx, c)
}

func (m *Repository) GetContest(ctx context.Context, id int) (*models.Contest, error) {
	if m.GetContestError != nil {
		return nil, m.GetContestError
	}
	return m.FullRepository.GetContest(ctx, id)
}

func (m *Repository) ListContests(ctx context.Context) ([]models.Contest, error) {
	if m.ListContestsError != nil {
		return nil, m.ListContestsError
	}
	return m.FullRepository.ListContests(ctx)
}

func (m *Repository) UpdateContest(ctx context.Context, c models.Contest) error {
	if m.UpdateContestError != nil {
		return m.UpdateContestError
	}
	return m.FullRepository.UpdateContest(ctx, c)
}

func (m *Repository) SetFinalEvaluation(ctx context.Context, contestID int, enabled bool) error {
	if m.SetFinalEvaluationError != nil {
		return m.SetFinalEvaluationError
	}
	return m.FullRepository.SetFinalEvaluation(ctx, contestID, enabled)
}

func (m *Repository) GetContestStats(ctx context.Context, contestID int) (map[string]interface{}, error) {
	if m.GetContestStatsError != nil {
		return nil, m.GetContestStatsError
	}
	return m.FullRepository.GetContestStats(ctx, contestID)
}

// ===== Sample Methods =====

func (m *Repository) CreateSample(ctx context.Context, s models.Sample) (int, error) {
	if m.CreateSampleError != nil {
		return 0, m.CreateSampleError
	}
	return m.FullRepository.CreateSample(ctx, s)
}

func (m *Repository) GetSample(ctx context.Context, id int) (*models.Sample, error) {
	if m.GetSampleError != nil {
		return nil, m.GetSampleError
	}
	return m.FullRepository.GetSample(ctx, id)
}

func (m *Repository) GetSampleByTrackingCode(ctx context.Context, code string) (*models.Sample, error) {
	if m.GetSampleByTrackingCodeError != nil {
		return nil, m.GetSampleByTrackingCodeError
	}
	return m.FullRepository.GetSampleByTrackingCode(ctx, code)
}

func (m *Repository) ListSamplesByContest(ctx context.Context, contestID int) ([]models.Sample, error) {
	if m.ListSamplesByContestError != nil {
		return nil, m.ListSamplesByContestError
	}
	return m.FullRepository.ListSamplesByContest(ctx, contestID)
}

func (m *Repository) ListSamplesByParticipant(ctx context.Context, participantID int) ([]models.Sample, error) {
	if m.ListSamplesByParticipantError != nil {
		return nil, m.ListSamplesByParticipantError
	}
	return m.FullRepository.ListSamplesByParticipant(ctx, participantID)
}

func (m *Repository) UpdateSampleStatus(ctx context.Context, id int, from, to models.SampleStatus) (bool, error) {
	if m.UpdateSampleStatusError != nil {
		return false, m.UpdateSampleStatusError
	}
	return m.FullRepository.UpdateSampleStatus(ctx, id, from, to)
}

func (m *Repository) DisqualifySample(ctx context.Context, id int, reasons []string) (bool, error) {
	if m.DisqualifySampleError != nil {
		return false, m.DisqualifySampleError
	}
	return m.FullRepository.DisqualifySample(ctx, id, reasons)
}

func (m *Repository) CountSamplesByStatus(ctx context.Context, contestID int) (map[models.SampleStatus]int, error) {
	if m.CountSamplesByStatusError != nil {
		return nil, m.CountSamplesByStatusError
	}
	return m.FullRepository.CountSamplesByStatus(ctx, contestID)
}

// ===== Judge Methods =====

func (m *Repository) CreateJudge(ctx context.Context, j models.Judge) (int, error) {
	if m.CreateJudgeError != nil {
		return 0, m.CreateJudgeError
	}
	return m.FullRepository.CreateJudge(ctx, j)
}

func (m *Repository) GetJudge(ctx context.Context, id int) (*models.Judge, error) {
	if m.GetJudgeError != nil {
		return nil, m.GetJudgeError
	}
	return m.FullRepository.GetJudge(ctx, id)
}

func (m *Repository) ListJudges(ctx context.Context, evaluatorsOnly bool) ([]models.Judge, error) {
	if m.ListJudgesError != nil {
		return nil, m.ListJudgesError
	}
	return m.FullRepository.ListJudges(ctx, evaluatorsOnly)
}

func (m *Repository) GetJudges(ctx context.Context, ids []int) ([]models.Judge, error) {
	if m.GetJudgesError != nil {
		return nil, m.GetJudgesError
	}
	return m.FullRepository.GetJudges(ctx, ids)
}

func (m *Repository) ListSampleJudges(ctx context.Context, sampleID int) ([]int, error) {
	if m.ListSampleJudgesError != nil {
		return nil, m.ListSampleJudgesError
	}
	return m.FullRepository.ListSampleJudges(ctx, sampleID)
}

func (m *Repository) ReplaceSampleJudges(ctx context.Context, sampleID int, judgeIDs []int) ([]int, error) {
	if m.ReplaceSampleJudgesError != nil {
		return nil, m.ReplaceSampleJudgesError
	}
	return m.FullRepository.ReplaceSampleJudges(ctx, sampleID, judgeIDs)
}

func (m *Repository) BulkAssignJudges(ctx context.Context, sampleIDs, judgeIDs []int) ([]int, error) {
	if m.BulkAssignJudgesError != nil {
		return nil, m.BulkAssignJudgesError
	}
	return m.FullRepository.BulkAssignJudges(ctx, sampleIDs, judgeIDs)
}

func (m *Repository) ReleaseSampleJudges(ctx context.Context, sampleID int) error {
	if m.ReleaseSampleJudgesError != nil {
		return m.ReleaseSampleJudgesError
	}
	return m.FullRepository.ReleaseSampleJudges(ctx, sampleID)
}

// ===== Evaluation Methods =====

func (m *Repository) InsertPhysicalEvaluation(ctx context.Context, pe models.PhysicalEvaluation) (int, error) {
	if m.InsertPhysicalEvaluationError != nil {
		return 0, m.InsertPhysicalEvaluationError
	}
	return m.FullRepository.InsertPhysicalEvaluation(ctx, pe)
}

func (m *Repository) GetPhysicalEvaluation(ctx context.Context, sampleID int) (*models.PhysicalEvaluation, error) {
	if m.GetPhysicalEvaluationError != nil {
		return nil, m.GetPhysicalEvaluationError
	}
	return m.FullRepository.GetPhysicalEvaluation(ctx, sampleID)
}

func (m *Repository) InsertEvaluation(ctx context.Context, e models.Evaluation) (int, error) {
	if m.InsertEvaluationError != nil {
		return 0, m.InsertEvaluationError
	}
	return m.FullRepository.InsertEvaluation(ctx, e)
}

func (m *Repository) ListEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) ([]models.Evaluation, error) {
	if m.ListEvaluationsError != nil {
		return nil, m.ListEvaluationsError
	}
	return m.FullRepository.ListEvaluations(ctx, sampleID, stage)
}

func (m *Repository) HasEvaluation(ctx context.Context, sampleID, actorID int, stage models.EvaluationStage) (bool, error) {
	if m.HasEvaluationError != nil {
		return false, m.HasEvaluationError
	}
	return m.FullRepository.HasEvaluation(ctx, sampleID, actorID, stage)
}

func (m *Repository) CountEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) (int, error) {
	if m.CountEvaluationsError != nil {
		return 0, m.CountEvaluationsError
	}
	return m.FullRepository.CountEvaluations(ctx, sampleID, stage)
}

func (m *Repository) ListEvaluatedSamples(ctx context.Context, contestID int, stage models.EvaluationStage) ([]repository.EvaluatedSampleRow, error) {
	if m.ListEvaluatedSamplesError != nil {
		return nil, m.ListEvaluatedSamplesError
	}
	return m.FullRepository.ListEvaluatedSamples(ctx, contestID, stage)
}

func (m *Repository) GetParticipantStats(ctx context.Context, participantID int) (map[string]interface{}, error) {
	if m.GetParticipantStatsError != nil {
		return nil, m.GetParticipantStatsError
	}
	return m.FullRepository.GetParticipantStats(ctx, participantID)
}

// ===== Payment Methods =====

func (m *Repository) InsertPaymentRecord(ctx context.Context, p models.PaymentRecord) (int, error) {
	if m.InsertPaymentRecordError != nil {
		return 0, m.InsertPaymentRecordError
	}
	return m.FullRepository.InsertPaymentRecord(ctx, p)
}

func (m *Repository) GetPaymentRecord(ctx context.Context, evaluatorID, sampleID int) (*models.PaymentRecord, error) {
	if m.GetPaymentRecordError != nil {
		return nil, m.GetPaymentRecordError
	}
	return m.FullRepository.GetPaymentRecord(ctx, evaluatorID, sampleID)
}

func (m *Repository) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error) {
	if m.GetPaymentByIdempotencyKeyError != nil {
		return nil, m.GetPaymentByIdempotencyKeyError
	}
	return m.FullRepository.GetPaymentByIdempotencyKey(ctx, key)
}

// ===== Notification Methods =====

func (m *Repository) InsertNotification(ctx context.Context, n models.Notification) (int, error) {
	if m.InsertNotificationError != nil {
		return 0, m.InsertNotificationError
	}
	return m.FullRepository.InsertNotification(ctx, n)
}

func (m *Repository) ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error) {
	if m.ListNotificationsError != nil {
		return nil, m.ListNotificationsError
	}
	return m.FullRepository.ListNotifications(ctx, userID, unreadOnly)
}

func (m *Repository) MarkNotificationRead(ctx context.Context, id int) error {
	if m.MarkNotificationReadError != nil {
		return m.MarkNotificationReadError
	}
	return m.FullRepository.MarkNotificationRead(ctx, id)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
