package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RateProfileHandler handles rate profile HTTP requests
type RateProfileHandler struct {
	profileService *service.RateProfileService
}

// NewRateProfileHandler creates a new RateProfileHandler
func NewRateProfileHandler(profileService *service.RateProfileService) *RateProfileHandler {
	return &RateProfileHandler{profileService: profileService}
}

// RateProfileRequest represents the create and update rate profile request body
type RateProfileRequest struct {
	Name              string  `json:"name"`
	DefaultDailyRate  *string `json:"defaultDailyRate,omitempty"`
	CostPerDay        *string `json:"costPerDay,omitempty"`
	MarginCoefficient *string `json:"marginCoefficient,omitempty"`
}

// RateProfileResponse represents a rate profile in API responses
type RateProfileResponse struct {
	ID                int32   `json:"id"`
	Name              string  `json:"name"`
	DefaultDailyRate  *string `json:"defaultDailyRate,omitempty"`
	CostPerDay        *string `json:"costPerDay,omitempty"`
	MarginCoefficient string  `json:"marginCoefficient"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

func toRateProfileResponse(p *domain.RateProfile) RateProfileResponse {
	return RateProfileResponse{
		ID:                p.ID,
		Name:              p.Name,
		DefaultDailyRate:  domain.FormatOptionalMoney(p.DefaultDailyRate),
		CostPerDay:        domain.FormatOptionalMoney(p.CostPerDay),
		MarginCoefficient: p.MarginCoefficient.String(),
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
}

func rateProfileInput(req RateProfileRequest) (service.RateProfileInput, []ValidationError) {
	input := service.RateProfileInput{Name: req.Name}
	errs := parseDecimalFields(
		decimalField{"defaultDailyRate", req.DefaultDailyRate, &input.DefaultDailyRate},
		decimalField{"costPerDay", req.CostPerDay, &input.CostPerDay},
		decimalField{"marginCoefficient", req.MarginCoefficient, &input.MarginCoefficient},
	)
	return input, errs
}

// CreateProfile creates a rate profile
// @Summary Create rate profile
// @Tags rate-profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RateProfileRequest true "Rate profile"
// @Success 201 {object} RateProfileResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /rate-profiles [post]
func (h *RateProfileHandler) CreateProfile(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req RateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := rateProfileInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	profile, err := h.profileService.CreateProfile(workspaceID, input)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to create rate profile")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("profile_id", profile.ID).Str("name", profile.Name).Msg("Rate profile created")

	return c.JSON(http.StatusCreated, toRateProfileResponse(profile))
}

// GetProfiles handles GET /api/v1/rate-profiles
func (h *RateProfileHandler) GetProfiles(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	profiles, err := h.profileService.GetProfiles(workspaceID)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to get rate profiles")
	}

	resp := make([]RateProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, toRateProfileResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetProfile handles GET /api/v1/rate-profiles/:id
func (h *RateProfileHandler) GetProfile(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rate profile ID", nil)
	}

	profile, err := h.profileService.GetProfileByID(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to get rate profile")
	}
	return c.JSON(http.StatusOK, toRateProfileResponse(profile))
}

// UpdateProfile handles PUT /api/v1/rate-profiles/:id.
// A profile referenced by budget lines is frozen and answers 409.
func (h *RateProfileHandler) UpdateProfile(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rate profile ID", nil)
	}

	var req RateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := rateProfileInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	profile, err := h.profileService.UpdateProfile(workspaceID, id, input)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to update rate profile")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("profile_id", profile.ID).Msg("Rate profile updated")

	return c.JSON(http.StatusOK, toRateProfileResponse(profile))
}
