// Package common defines shared constants and sentinel errors used across
// the machrent backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Account errors.
	ErrAlreadyRegistered      = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrPasswordUnchanged      = errors.New("new password must differ from the current one")
	ErrWeakPassword           = errors.New("password does not meet the policy")

	// Registration flow errors.
	ErrInvalidOrExpiredOtp        = errors.New("invalid or expired otp")
	ErrRegistrationSessionExpired = errors.New("registration session expired")
	ErrRegistrationDataNotFound   = errors.New("registration data not found")
	ErrAvatarRequired             = errors.New("avatar is required")

	// Token lifecycle errors.
	ErrInvalidToken               = errors.New("invalid token")
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
	ErrRefreshTokenExpired        = errors.New("refresh token expired")
	ErrRefreshTokenReuseDetected  = errors.New("refresh token reuse detected or token revoked")
)
