package service

import (
	"fmt"
	"strings"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// RateProfileService handles rate profile business logic
type RateProfileService struct {
	profileRepo    domain.RateProfileRepository
	eventPublisher websocket.EventPublisher
}

// NewRateProfileService creates a new RateProfileService
func NewRateProfileService(profileRepo domain.RateProfileRepository) *RateProfileService {
	return &RateProfileService{profileRepo: profileRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RateProfileService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// RateProfileInput contains input for creating or updating a rate profile
type RateProfileInput struct {
	Name              string
	DefaultDailyRate  *decimal.Decimal
	CostPerDay        *decimal.Decimal
	MarginCoefficient *decimal.Decimal
}

// CreateProfile creates a new rate profile. The margin coefficient defaults to 1.
func (s *RateProfileService) CreateProfile(workspaceID int32, input RateProfileInput) (*domain.RateProfile, error) {
	profile := &domain.RateProfile{WorkspaceID: workspaceID}
	applyProfileInput(profile, input)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	created, err := s.profileRepo.Create(profile)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, websocket.RateProfileCreated(created))
	}
	return created, nil
}

// GetProfiles retrieves all rate profiles for a workspace
func (s *RateProfileService) GetProfiles(workspaceID int32) ([]*domain.RateProfile, error) {
	return s.profileRepo.GetAllByWorkspace(workspaceID)
}

// GetProfileByID retrieves a rate profile by ID within a workspace
func (s *RateProfileService) GetProfileByID(workspaceID int32, id int32) (*domain.RateProfile, error) {
	return s.profileRepo.GetByID(workspaceID, id)
}

// UpdateProfile updates a rate profile that no budget line references yet.
// Referenced profiles price historical quotes and are refused with ErrRateProfileInUse.
func (s *RateProfileService) UpdateProfile(workspaceID int32, id int32, input RateProfileInput) (*domain.RateProfile, error) {
	existing, err := s.profileRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	referenced, err := s.profileRepo.IsReferenced(workspaceID, id)
	if err != nil {
		return nil, fmt.Errorf("check rate profile references: %w", err)
	}
	if referenced {
		return nil, domain.ErrRateProfileInUse
	}

	applyProfileInput(existing, input)
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	return s.profileRepo.Update(existing)
}

func applyProfileInput(profile *domain.RateProfile, input RateProfileInput) {
	profile.Name = strings.TrimSpace(input.Name)
	profile.DefaultDailyRate = input.DefaultDailyRate
	profile.CostPerDay = input.CostPerDay
	profile.MarginCoefficient = domain.DefaultMarginCoefficient
	if input.MarginCoefficient != nil {
		profile.MarginCoefficient = *input.MarginCoefficient
	}
}
