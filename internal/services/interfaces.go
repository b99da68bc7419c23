package services

import (
	"context"

	"github.com/avasquez/catador/internal/models"
)

// Actor identifies who is performing an operation. Role gating happens in
// the services; the session layer only establishes identity.
type Actor struct {
	ID   int
	Role models.Role
}

// ContestServicer defines the interface for contest operations
type ContestServicer interface {
	CreateContest(ctx context.Context, c models.Contest, actor Actor) (int, error)
	GetContest(ctx context.Context, id int) (*models.Contest, error)
	ListContests(ctx context.Context) ([]models.Contest, error)
	UpdateContest(ctx context.Context, c models.Contest, actor Actor) error
	ContestStatus(ctx context.Context, id int) (models.ContestStatus, error)
	EnableFinalStage(ctx context.Context, contestID int, actor Actor) error
}

// SampleServicer defines the interface for sample intake and lookup
type SampleServicer interface {
	RegisterSample(ctx context.Context, input SampleInput, actor Actor) (*models.Sample, error)
	GetSample(ctx context.Context, id int) (*models.Sample, error)
	GetSampleByTrackingCode(ctx context.Context, code string) (*models.Sample, error)
	ListSamplesByContest(ctx context.Context, contestID int) ([]models.Sample, error)
	ListSamplesByParticipant(ctx context.Context, participantID int) ([]models.Sample, error)
	TrackingQR(ctx context.Context, sampleID int) ([]byte, error)
	DisplayStatus(s *models.Sample) string
}

// LifecycleServicer drives samples through their evaluation lifecycle
type LifecycleServicer interface {
	SubmitSample(ctx context.Context, sampleID int, actor Actor) error
	MarkReceived(ctx context.Context, sampleID int, actor Actor) error
	StartPhysicalEvaluation(ctx context.Context, sampleID int, actor Actor) error
	RecordPhysicalEvaluation(ctx context.Context, pe models.PhysicalEvaluation, actor Actor) error
	Disqualify(ctx context.Context, sampleID int, reasons []string, actor Actor) error
}

// AssignmentServicer manages judge workload
type AssignmentServicer interface {
	AssignJudges(ctx context.Context, sampleID int, judgeIDs []int, actor Actor) error
	BulkAssign(ctx context.Context, sampleIDs, judgeIDs []int, actor Actor) error
	ListJudges(ctx context.Context, evaluatorsOnly bool) ([]models.Judge, error)
	RegisterJudge(ctx context.Context, j models.Judge, actor Actor) (int, error)
	SetDefaultCapacity(ctx context.Context, max int, actor Actor) error
}

// EvaluationServicer accepts and aggregates sensory evaluations
type EvaluationServicer interface {
	StartEvaluation(ctx context.Context, sampleID int, actor Actor) error
	SubmitEvaluation(ctx context.Context, input EvaluationInput, actor Actor) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) ([]models.Evaluation, error)
}

// FinalStageServicer gates and executes the paid final evaluation stage
type FinalStageServicer interface {
	CanPayAndEvaluate(ctx context.Context, evaluatorID, sampleID int) error
	PayForSample(ctx context.Context, evaluatorID, sampleID int) (*models.PaymentRecord, error)
	SubmitFinalEvaluation(ctx context.Context, input EvaluationInput, actor Actor) (*models.Evaluation, error)
}

// ResultsServicer compiles rankings and contest statistics
type ResultsServicer interface {
	Rankings(ctx context.Context, contestID int, stage models.EvaluationStage) ([]models.RankingEntry, error)
	TopN(ctx context.Context, contestID, n int, stage models.EvaluationStage) ([]models.RankingEntry, error)
	PublishFinalRanking(ctx context.Context, contestID int, actor Actor) ([]models.RankingEntry, error)
	ContestStats(ctx context.Context, contestID int) (map[string]interface{}, error)
	ParticipantStats(ctx context.Context, participantID int) (map[string]interface{}, error)
}

// NotificationServicer persists and fans out typed events
type NotificationServicer interface {
	Notify(ctx context.Context, userID int, typ models.NotificationType, title, message, priority string)
	Announce(ctx context.Context, typ models.NotificationType, title, message, priority string)
	ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int) error
}

// Broadcaster pushes a message to every connected WebSocket client
type Broadcaster interface {
	Broadcast(msg models.WSMessage)
}
