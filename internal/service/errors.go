package service

import "errors"

// Flows return only these errors, possibly wrapped. Storage and delivery
// failures never leave the service unwrapped.
var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInternal            = errors.New("internal error")
)
