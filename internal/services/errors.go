package services

import (
	"fmt"
	"strings"

	"github.com/avasquez/catador/internal/models"
)

// Service errors
var (
	ErrNotOwner          = &ServiceError{Message: "sample does not belong to this participant"}
	ErrRoleNotAllowed    = &ServiceError{Message: "role is not allowed to perform this operation"}
	ErrNoJudgesSpecified = &ServiceError{Message: "no judges specified"}
	ErrNoReasonsGiven    = &ServiceError{Message: "disqualification requires at least one reason"}
	ErrContestNotFound   = &ServiceError{Message: "contest not found"}
	ErrSampleNotFound    = &ServiceError{Message: "sample not found"}
	ErrJudgeNotFound     = &ServiceError{Message: "judge not found"}
	ErrNotAnEvaluator    = &ServiceError{Message: "judge is not part of the evaluator pool"}
	ErrNoPhysicalEval    = &ServiceError{Message: "sample has no passed physical evaluation"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// InvalidTransitionError is returned when a lifecycle event does not apply
// to the sample's current status.
type InvalidTransitionError struct {
	SampleID int
	From     models.SampleStatus
	To       models.SampleStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("sample %d: cannot transition from %s to %s", e.SampleID, e.From, e.To)
}

// StaleWriteError is returned when a conditional transition lost a race:
// the sample's status changed between read and write. Callers should
// re-fetch and re-evaluate.
type StaleWriteError struct {
	SampleID int
	Expected models.SampleStatus
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("sample %d: status changed concurrently, expected %s", e.SampleID, e.Expected)
}

// CapacityExceededError names every judge whose assignment limit blocked
// the operation. The whole batch was rolled back.
type CapacityExceededError struct {
	JudgeIDs []int
}

func (e *CapacityExceededError) Error() string {
	ids := make([]string, len(e.JudgeIDs))
	for i, id := range e.JudgeIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("judges at capacity: %s", strings.Join(ids, ", "))
}

// DuplicateEvaluationError is returned when an actor tries to score the
// same sample twice at the same stage.
type DuplicateEvaluationError struct {
	SampleID int
	ActorID  int
	Stage    models.EvaluationStage
}

func (e *DuplicateEvaluationError) Error() string {
	return fmt.Sprintf("actor %d already evaluated sample %d at stage %s", e.ActorID, e.SampleID, e.Stage)
}

// GateDeniedError is returned when the final-stage gate rejects an
// evaluator's access to a sample. Condition identifies the first check
// that failed.
type GateDeniedError struct {
	SampleID  int
	Condition string
}

func (e *GateDeniedError) Error() string {
	return fmt.Sprintf("final stage access to sample %d denied: %s", e.SampleID, e.Condition)
}
