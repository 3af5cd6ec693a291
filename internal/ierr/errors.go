package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAPIKeyNotFound     = errors.New("api key not found or disabled")

	ErrQuotaExceeded = errors.New("daily usage limit exceeded")

	ErrGenerationNotConfigured = errors.New("image generation service not configured")
	ErrGenerationFailed        = errors.New("image generation failed")
)
