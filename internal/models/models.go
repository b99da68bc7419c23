package models

import "time"

// Role identifies the kind of actor performing an operation. The core only
// branches on role; authentication is the session layer's problem.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDirector    Role = "director"
	RoleJudge       Role = "judge"
	RoleParticipant Role = "participant"
	RoleEvaluator   Role = "evaluator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleJudge, RoleParticipant, RoleEvaluator:
		return true
	}
	return false
}

// SampleStatus is the authoritative lifecycle status of a sample.
// Exactly one status holds at any time.
type SampleStatus string

const (
	StatusDraft              SampleStatus = "draft"
	StatusSubmitted          SampleStatus = "submitted"
	StatusReceived           SampleStatus = "received"
	StatusPhysicalEvaluation SampleStatus = "physical_evaluation"
	StatusApproved           SampleStatus = "approved"
	StatusAssigned           SampleStatus = "assigned"
	StatusEvaluating         SampleStatus = "evaluating"
	StatusEvaluated          SampleStatus = "evaluated"
	StatusDisqualified       SampleStatus = "disqualified"
)

// Terminal reports whether no further lifecycle events apply.
func (s SampleStatus) Terminal() bool {
	return s == StatusEvaluated || s == StatusDisqualified
}

// ProductCategory is the kind of product a sample contains.
type ProductCategory string

const (
	CategoryBean      ProductCategory = "bean"
	CategoryLiquor    ProductCategory = "liquor"
	CategoryChocolate ProductCategory = "chocolate"
)

// Valid reports whether c is a known product category.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryBean, CategoryLiquor, CategoryChocolate:
		return true
	}
	return false
}

// Sample is a single contest entry tracked through the evaluation stages.
type Sample struct {
	ID             int             `json:"id"`
	ContestID      int             `json:"contest_id"`
	ParticipantID  int             `json:"participant_id"`
	TrackingCode   string          `json:"tracking_code"`
	Category       ProductCategory `json:"category"`
	ProducerName   string          `json:"producer_name"`
	FarmName       string          `json:"farm_name,omitempty"`
	Region         string          `json:"region,omitempty"`
	Variety        string          `json:"variety,omitempty"`
	HarvestYear    int             `json:"harvest_year,omitempty"`
	Status         SampleStatus    `json:"status"`
	DisqualReasons []string        `json:"disqualification_reasons,omitempty"`
	JudgeIDs       []int           `json:"judge_ids,omitempty"`
	EvaluatorIDs   []int           `json:"evaluator_ids,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	ReceivedAt     *time.Time      `json:"received_at,omitempty"`
	EvaluatedAt    *time.Time      `json:"evaluated_at,omitempty"`
}

// PhysicalEvaluation is the pre-sensory inspection gating approval.
type PhysicalEvaluation struct {
	ID              int       `json:"id"`
	SampleID        int       `json:"sample_id"`
	DirectorID      int       `json:"director_id"`
	MoisturePct     float64   `json:"moisture_pct"`
	FermentationPct float64   `json:"fermentation_pct"`
	DefectCount     int       `json:"defect_count"`
	LotWeightKG     float64   `json:"lot_weight_kg"`
	Notes           string    `json:"notes,omitempty"`
	Passed          bool      `json:"passed"`
	CreatedAt       time.Time `json:"created_at"`
}

// EvaluationStage distinguishes main-contest judging from the paid final stage.
type EvaluationStage string

const (
	StageSensory EvaluationStage = "sensory"
	StageFinal   EvaluationStage = "final"
)

// Evaluation is one judge's or evaluator's completed scoring of a sample.
// Group totals and the radar vector are derived by the scoring package and
// never hand-edited after computation.
type Evaluation struct {
	ID             int                           `json:"id"`
	SampleID       int                           `json:"sample_id"`
	ActorID        int                           `json:"actor_id"`
	Stage          EvaluationStage               `json:"stage"`
	Attributes     map[string]map[string]float64 `json:"attributes"`
	GroupTotals    map[string]float64            `json:"group_totals"`
	Radar          map[string]float64            `json:"radar"`
	OverallQuality float64                       `json:"overall_quality"`
	Notes          string                        `json:"notes,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
}

// Judge scores samples during the main contest. Availability is always
// derived from the counters, never stored.
type Judge struct {
	ID                 int    `json:"id"`
	UserID             int    `json:"user_id"`
	Name               string `json:"name"`
	Specialization     string `json:"specialization"` // bean, liquor, chocolate or any
	MaxAssignments     int    `json:"max_assignments"`
	CurrentAssignments int    `json:"current_assignments"`
	Evaluator          bool   `json:"evaluator"` // member of the final-stage pool
}

// Available reports whether the judge can take one more assignment.
func (j Judge) Available() bool {
	return j.CurrentAssignments < j.MaxAssignments
}

// ContestStatus is derived from the contest date range at read time.
type ContestStatus string

const (
	ContestUpcoming  ContestStatus = "upcoming"
	ContestActive    ContestStatus = "active"
	ContestCompleted ContestStatus = "completed"
)

// Contest groups samples, deadlines and fees. FinalEvaluation is an
// orthogonal flag layered on top of the date-derived status.
type Contest struct {
	ID                   int       `json:"id"`
	Name                 string    `json:"name"`
	Location             string    `json:"location,omitempty"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	SubmissionDeadline   time.Time `json:"submission_deadline"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	EntryFee             float64   `json:"entry_fee"`
	SampleFee            float64   `json:"sample_fee"`
	FinalEvaluation      bool      `json:"final_evaluation"`
	TopN                 int       `json:"top_n"`
}

// StatusAt derives the coarse contest status for the given instant.
// The status is always recomputed from the date range, never cached.
func (c Contest) StatusAt(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartDate):
		return ContestUpcoming
	case now.After(c.EndDate):
		return ContestCompleted
	default:
		return ContestActive
	}
}

// PaymentRecord is the durable fact that an evaluator paid the sample fee.
type PaymentRecord struct {
	ID             int       `json:"id"`
	EvaluatorID    int       `json:"evaluator_id"`
	SampleID       int       `json:"sample_id"`
	Amount         float64   `json:"amount"`
	IdempotencyKey string    `json:"idempotency_key"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// RankingEntry is a computed view over the evaluated samples of a contest.
type RankingEntry struct {
	SampleID      int     `json:"sample_id"`
	ContestID     int     `json:"contest_id"`
	TrackingCode  string  `json:"tracking_code"`
	ParticipantID int     `json:"participant_id"`
	OverallScore  float64 `json:"overall_score"`
	Rank          int     `json:"rank"`
	Award         string  `json:"award,omitempty"` // gold, silver, bronze
}

// NotificationType tags events emitted to the notification sink.
type NotificationType string

const (
	NotifySampleSubmitted    NotificationType = "sample_submitted"
	NotifySampleReceived     NotificationType = "sample_received"
	NotifySampleApproved     NotificationType = "sample_approved"
	NotifySampleDisqualified NotificationType = "sample_disqualified"
	NotifySampleAssigned     NotificationType = "sample_assigned_to_judge"
	NotifyJudgeEvaluated     NotificationType = "judge_evaluated_sample"
	NotifyEvaluatorEvaluated NotificationType = "evaluator_evaluated_sample"
	NotifySampleEvaluated    NotificationType = "sample_evaluated"
	NotifyContestFinalStage  NotificationType = "contest_final_stage"
	NotifyFinalRankingTop3   NotificationType = "final_ranking_top3"
)

// Notification is a typed event delivered to a user. Delivery and storage
// are the sink's responsibility; the core only produces them.
type Notification struct {
	ID        int              `json:"id"`
	UserID    int              `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Priority  string           `json:"priority"` // low, normal, high
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
