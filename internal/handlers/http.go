package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avasquez/catador/internal/errors"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/pkg/payments"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	ErrCodeDuplicateScore    = "DUPLICATE_EVALUATION"
	ErrCodeGateDenied        = "GATE_DENIED"
	ErrCodePaymentUnknown    = "PAYMENT_OUTCOME_UNKNOWN"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"error"`
	Condition string `json:"condition,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBadRequest     = &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound       = &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Not found"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// Forbidden creates a 403 error with custom message
func Forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: ErrCodeForbidden, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error, logs the original error
func InternalError(err error) *APIError {
	log.Printf("Internal error: %v", err)
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondError writes an error response
func respondError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*APIError); ok {
		respondJSON(w, apiErr.Status, apiErr)
		return
	}
	apiErr := ToAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// parseIntParam extracts and parses an integer URL parameter
func parseIntParam(r *http.Request, name string) (int, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, BadRequest("Missing " + name + " parameter")
	}
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var transitionErr *services.InvalidTransitionError
	if stderrors.As(err, &transitionErr) {
		return &APIError{Status: http.StatusConflict, Code: ErrCodeInvalidTransition, Message: transitionErr.Error()}
	}
	var staleErr *services.StaleWriteError
	if stderrors.As(err, &staleErr) {
		return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: staleErr.Error()}
	}
	var capErr *services.CapacityExceededError
	if stderrors.As(err, &capErr) {
		return &APIError{Status: http.StatusConflict, Code: ErrCodeCapacityExceeded, Message: capErr.Error()}
	}
	var dupErr *services.DuplicateEvaluationError
	if stderrors.As(err, &dupErr) {
		return &APIError{Status: http.StatusConflict, Code: ErrCodeDuplicateScore, Message: dupErr.Error()}
	}
	var gateErr *services.GateDeniedError
	if stderrors.As(err, &gateErr) {
		return &APIError{Status: http.StatusForbidden, Code: ErrCodeGateDenied, Message: gateErr.Error(), Condition: gateErr.Condition}
	}

	if stderrors.Is(err, payments.ErrUnknownOutcome) {
		return &APIError{Status: http.StatusBadGateway, Code: ErrCodePaymentUnknown, Message: "Payment outcome unknown, retry the payment"}
	}
	if stderrors.Is(err, payments.ErrDeclined) {
		return &APIError{Status: http.StatusPaymentRequired, Code: ErrCodeBadRequest, Message: err.Error()}
	}

	// Check for application errors
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		switch errors.KindOf(err) {
		case errors.ErrNotFound:
			return NotFound(appErr.Message)
		case errors.ErrValidation, errors.ErrInvalidInput:
			return &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: appErr.Message}
		case errors.ErrConflict, errors.ErrDuplicate, errors.ErrStaleWrite:
			return Conflict(appErr.Message)
		default:
			return InternalError(err)
		}
	}

	if svcErr, ok := err.(*services.ServiceError); ok {
		switch svcErr {
		case services.ErrContestNotFound, services.ErrSampleNotFound, services.ErrJudgeNotFound:
			return NotFound(svcErr.Message)
		case services.ErrRoleNotAllowed, services.ErrNotOwner:
			return Forbidden(svcErr.Message)
		}
		return BadRequest(svcErr.Message)
	}

	return InternalError(err)
}
