package handler

import (
	"errors"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// fieldErrors maps domain validation errors to the request field they concern
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrQuoteNameRequired, "name"},
	{domain.ErrQuoteNameTooLong, "name"},
	{domain.ErrQuoteContractTypeInvalid, "contractType"},
	{domain.ErrQuoteContingencyInvalid, "contingencyPercentage"},
	{domain.ErrQuoteStatusInvalid, "status"},
	{domain.ErrSectionTitleRequired, "title"},
	{domain.ErrSectionTitleTooLong, "title"},
	{domain.ErrLineKindInvalid, "kind"},
	{domain.ErrLineDescriptionTooLong, "description"},
	{domain.ErrLineNegativeValue, "amount"},
	{domain.ErrLineDirectAmountRequired, "directAmount"},
	{domain.ErrLineDirectAmountOnly, "directAmount"},
	{domain.ErrLineServiceFieldsOnly, "kind"},
	{domain.ErrLineVATRateInvalid, "vatRate"},
	{domain.ErrMilestoneAmountTypeInvalid, "amountType"},
	{domain.ErrMilestonePercentInvalid, "percent"},
	{domain.ErrMilestoneFixedAmountInvalid, "fixedAmount"},
	{domain.ErrMilestoneBillingDateMissing, "billingDate"},
	{domain.ErrMilestoneLabelTooLong, "label"},
	{domain.ErrRateProfileRateNegative, "rate"},
	{domain.ErrRateProfileCoefficientInvalid, "marginCoefficient"},
	{domain.ErrNameRequired, "name"},
	{domain.ErrNameTooLong, "name"},
}

// notFoundErrors are reported as 404 with their own message
var notFoundErrors = []error{
	domain.ErrQuoteNotFound,
	domain.ErrSectionNotFound,
	domain.ErrLineNotFound,
	domain.ErrMilestoneNotFound,
	domain.ErrRateProfileNotFound,
	domain.ErrWorkspaceNotFound,
}

// conflictErrors are valid requests refused because of the current state of a quote or profile
var conflictErrors = []error{
	domain.ErrQuoteLocked,
	domain.ErrInvalidStatusTransition,
	domain.ErrScheduleNotCovered,
	domain.ErrTasksRequireAcceptedQuote,
	service.ErrExportStorageNotConfigured,
	domain.ErrRateProfileInUse,
}

// writeDomainError maps a service error to a Problem Details response.
// Anything unrecognised is logged and reported as an internal error with fallback as detail.
func writeDomainError(c echo.Context, err error, workspaceID int32, fallback string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.err.Error()},
			})
		}
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			return NewNotFoundError(c, capitalize(nf.Error()))
		}
	}
	for _, ce := range conflictErrors {
		if errors.Is(err, ce) {
			return NewConflictError(c, capitalize(ce.Error()))
		}
	}
	if errors.Is(err, domain.ErrInvalidDecimal) {
		return NewValidationError(c, "Invalid decimal value", nil)
	}

	log.Error().Err(err).Int32("workspace_id", workspaceID).Msg(fallback)
	return NewInternalError(c, fallback)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
