package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/avasquez/catador/internal/errors"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/pkg/payments"
)

func TestToAPIError_ServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid transition",
			err:        &services.InvalidTransitionError{SampleID: 1, From: models.StatusDraft, To: models.StatusReceived},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeInvalidTransition,
		},
		{
			name:       "stale write",
			err:        &services.StaleWriteError{SampleID: 1, Expected: models.StatusApproved},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeConflict,
		},
		{
			name:       "capacity exceeded",
			err:        &services.CapacityExceededError{JudgeIDs: []int{3, 4}},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeCapacityExceeded,
		},
		{
			name:       "duplicate evaluation",
			err:        &services.DuplicateEvaluationError{SampleID: 1, ActorID: 2, Stage: models.StageSensory},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeDuplicateScore,
		},
		{
			name:       "gate denied",
			err:        &services.GateDeniedError{SampleID: 1, Condition: "not_paid"},
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeGateDenied,
		},
		{
			name:       "sample not found",
			err:        services.ErrSampleNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "role not allowed",
			err:        services.ErrRoleNotAllowed,
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
		},
		{
			name:       "plain service error",
			err:        &services.ServiceError{Message: "registration is closed for this contest"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "payment outcome unknown",
			err:        fmt.Errorf("confirm payment: %w", payments.ErrUnknownOutcome),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodePaymentUnknown,
		},
		{
			name:       "application not found",
			err:        errors.NotFound("record missing"),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "application validation",
			err:        errors.Validation("bad input"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "unknown error",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalServer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := ToAPIError(tc.err)
			if apiErr.Status != tc.wantStatus {
				t.Errorf("status: expected %d, got %d", tc.wantStatus, apiErr.Status)
			}
			if apiErr.Code != tc.wantCode {
				t.Errorf("code: expected %s, got %s", tc.wantCode, apiErr.Code)
			}
		})
	}
}

func TestToAPIError_CarriesGateCondition(t *testing.T) {
	apiErr := ToAPIError(&services.GateDeniedError{SampleID: 9, Condition: "sample_not_top_n"})
	if apiErr.Condition != "sample_not_top_n" {
		t.Errorf("expected condition in payload, got %q", apiErr.Condition)
	}
}
