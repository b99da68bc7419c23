package repository

import (
	"context"

	"github.com/avasquez/catador/internal/models"
)

// ContestRepository defines contest data operations
type ContestRepository interface {
	CreateContest(ctx context.Context, c models.Contest) (int, error)
	GetContest(ctx context.Context, id int) (*models.Contest, error)
	ListContests(ctx context.Context) ([]models.Contest, error)
	UpdateContest(ctx context.Context, c models.Contest) error
	SetFinalEvaluation(ctx context.Context, contestID int, enabled bool) error
	GetContestStats(ctx context.Context, contestID int) (map[string]interface{}, error)
}

// SampleRepository defines sample data operations.
// Status updates are conditional (compare-and-set on the current status) so
// concurrent transitions cannot both succeed.
type SampleRepository interface {
	CreateSample(ctx context.Context, s models.Sample) (int, error)
	GetSample(ctx context.Context, id int) (*models.Sample, error)
	GetSampleByTrackingCode(ctx context.Context, code string) (*models.Sample, error)
	ListSamplesByContest(ctx context.Context, contestID int) ([]models.Sample, error)
	ListSamplesByParticipant(ctx context.Context, participantID int) ([]models.Sample, error)
	UpdateSampleStatus(ctx context.Context, id int, from, to models.SampleStatus) (bool, error)
	DisqualifySample(ctx context.Context, id int, reasons []string) (bool, error)
	CountSamplesByStatus(ctx context.Context, contestID int) (map[models.SampleStatus]int, error)
}

// JudgeRepository defines judge and assignment data operations.
// ReplaceSampleJudges and BulkAssignJudges are all-or-nothing transactions:
// a non-empty over-capacity result means nothing was committed.
type JudgeRepository interface {
	CreateJudge(ctx context.Context, j models.Judge) (int, error)
	GetJudge(ctx context.Context, id int) (*models.Judge, error)
	ListJudges(ctx context.Context, evaluatorsOnly bool) ([]models.Judge, error)
	GetJudges(ctx context.Context, ids []int) ([]models.Judge, error)
	ListSampleJudges(ctx context.Context, sampleID int) ([]int, error)
	ReplaceSampleJudges(ctx context.Context, sampleID int, judgeIDs []int) ([]int, error)
	BulkAssignJudges(ctx context.Context, sampleIDs, judgeIDs []int) ([]int, error)
	ReleaseSampleJudges(ctx context.Context, sampleID int) error
}

// EvaluationRepository defines evaluation data operations
type EvaluationRepository interface {
	InsertPhysicalEvaluation(ctx context.Context, pe models.PhysicalEvaluation) (int, error)
	GetPhysicalEvaluation(ctx context.Context, sampleID int) (*models.PhysicalEvaluation, error)
	InsertEvaluation(ctx context.Context, e models.Evaluation) (int, error)
	ListEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) ([]models.Evaluation, error)
	HasEvaluation(ctx context.Context, sampleID, actorID int, stage models.EvaluationStage) (bool, error)
	CountEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) (int, error)
	ListEvaluatedSamples(ctx context.Context, contestID int, stage models.EvaluationStage) ([]EvaluatedSampleRow, error)
	GetParticipantStats(ctx context.Context, participantID int) (map[string]interface{}, error)
}

// PaymentRepository defines payment record operations
type PaymentRepository interface {
	InsertPaymentRecord(ctx context.Context, p models.PaymentRecord) (int, error)
	GetPaymentRecord(ctx context.Context, evaluatorID, sampleID int) (*models.PaymentRecord, error)
	GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error)
}

// NotificationRepository defines notification data operations
type NotificationRepository interface {
	InsertNotification(ctx context.Context, n models.Notification) (int, error)
	ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// EvaluatedSampleRow is one evaluated sample with its aggregate score,
// as consumed by the ranking compiler.
type EvaluatedSampleRow struct {
	SampleID      int
	ContestID     int
	TrackingCode  string
	ParticipantID int
	AvgScore      float64
	EvaluatedAt   string
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	ContestRepository
	SampleRepository
	JudgeRepository
	EvaluationRepository
	PaymentRepository
	NotificationRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
