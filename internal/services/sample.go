package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/repository"
)

var validate = validator.New()

// SampleInput carries the participant-provided fields of a new sample
type SampleInput struct {
	ContestID    int                    `json:"contest_id" validate:"required,gt=0"`
	Category     models.ProductCategory `json:"category" validate:"required"`
	ProducerName string                 `json:"producer_name" validate:"required"`
	FarmName     string                 `json:"farm_name"`
	Region       string                 `json:"region"`
	Variety      string                 `json:"variety"`
	HarvestYear  int                    `json:"harvest_year" validate:"omitempty,gte=1990,lte=2100"`
}

// SampleServiceRepository defines the repository methods needed by SampleService
type SampleServiceRepository interface {
	repository.SampleRepository
	repository.ContestRepository
}

// SampleService handles sample intake and lookup
type SampleService struct {
	log  logger.Logger
	repo SampleServiceRepository
}

// NewSampleService creates a new SampleService
func NewSampleService(log logger.Logger, repo SampleServiceRepository) *SampleService {
	return &SampleService{
		log:  log,
		repo: repo,
	}
}

// newTrackingCode derives an anonymous sample code. Judges only ever see
// this code, never the producer.
func newTrackingCode() string {
	id := uuid.New()
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return "CAT-" + hex[:8]
}

// RegisterSample creates a draft sample for a participant. Registration
// must still be open on the target contest.
func (s *SampleService) RegisterSample(ctx context.Context, input SampleInput, actor Actor) (*models.Sample, error) {
	if actor.Role != models.RoleParticipant && actor.Role != models.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	if err := validate.Struct(input); err != nil {
		return nil, &ServiceError{Message: "invalid sample: " + err.Error()}
	}
	if !input.Category.Valid() {
		return nil, &ServiceError{Message: "unknown product category: " + string(input.Category)}
	}

	contest, err := s.repo.GetContest(ctx, input.ContestID)
	if err == repository.ErrNotFound {
		return nil, ErrContestNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(contest.RegistrationDeadline) {
		return nil, &ServiceError{Message: "registration is closed for this contest"}
	}

	sample := models.Sample{
		ContestID:     input.ContestID,
		ParticipantID: actor.ID,
		TrackingCode:  newTrackingCode(),
		Category:      input.Category,
		ProducerName:  input.ProducerName,
		FarmName:      input.FarmName,
		Region:        input.Region,
		Variety:       input.Variety,
		HarvestYear:   input.HarvestYear,
		Status:        models.StatusDraft,
		CreatedAt:     time.Now(),
	}

	// Tracking codes are 8 hex chars; a collision is possible but rare,
	// retry a couple of times before giving up.
	for attempt := 0; ; attempt++ {
		id, err := s.repo.CreateSample(ctx, sample)
		if err == repository.ErrDuplicate && attempt < 2 {
			sample.TrackingCode = newTrackingCode()
			continue
		}
		if err != nil {
			return nil, err
		}
		sample.ID = id
		break
	}

	s.log.Info("sample registered", "sample_id", sample.ID, "contest_id", sample.ContestID, "tracking_code", sample.TrackingCode)
	return &sample, nil
}

// GetSample retrieves a sample by id
func (s *SampleService) GetSample(ctx context.Context, id int) (*models.Sample, error) {
	sample, err := s.repo.GetSample(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrSampleNotFound
	}
	return sample, err
}

// GetSampleByTrackingCode retrieves a sample by its anonymous code
func (s *SampleService) GetSampleByTrackingCode(ctx context.Context, code string) (*models.Sample, error) {
	sample, err := s.repo.GetSampleByTrackingCode(ctx, code)
	if err == repository.ErrNotFound {
		return nil, ErrSampleNotFound
	}
	return sample, err
}

// ListSamplesByContest returns all samples in a contest
func (s *SampleService) ListSamplesByContest(ctx context.Context, contestID int) ([]models.Sample, error) {
	return s.repo.ListSamplesByContest(ctx, contestID)
}

// ListSamplesByParticipant returns a participant's samples
func (s *SampleService) ListSamplesByParticipant(ctx context.Context, participantID int) ([]models.Sample, error) {
	return s.repo.ListSamplesByParticipant(ctx, participantID)
}

// TrackingQR renders the sample's tracking code as a QR PNG for the
// shipping label.
func (s *SampleService) TrackingQR(ctx context.Context, sampleID int) ([]byte, error) {
	sample, err := s.GetSample(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(sample.TrackingCode, qrcode.Medium, 256)
}

// DisplayStatus maps the authoritative status to the label shown to
// participants. Internal bench states collapse into "in evaluation".
func (s *SampleService) DisplayStatus(sample *models.Sample) string {
	switch sample.Status {
	case models.StatusDraft:
		return "draft"
	case models.StatusSubmitted:
		return "submitted"
	case models.StatusReceived, models.StatusPhysicalEvaluation:
		return "in review"
	case models.StatusApproved, models.StatusAssigned, models.StatusEvaluating:
		return "in evaluation"
	case models.StatusEvaluated:
		return "evaluated"
	case models.StatusDisqualified:
		return "disqualified"
	default:
		return string(sample.Status)
	}
}
