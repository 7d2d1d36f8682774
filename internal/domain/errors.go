package domain

import "errors"

// Shared validation errors
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 2000
)
