package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/machrent/machrent/internal/common"
	"github.com/machrent/machrent/internal/server/config"
	"github.com/machrent/machrent/internal/server/kvstore"
	"github.com/machrent/machrent/internal/server/models"
)

// Ephemeral-state key prefixes. All keys carry the subject email.
const (
	otpKeyPrefix           = "otp:"
	registrationKeyPrefix  = "reg:"
	verifiedKeyPrefix      = "verified:"
	passwordResetKeyPrefix = "password_reset:"
)

const otpLength = 6

// OtpService manages the ephemeral side of registration and password reset:
// one-time codes, pending registration payloads, verified-email markers, and
// password-reset token hashes. Everything lives behind a TTL; a key vanishing
// mid-flow is a normal outcome callers must handle.
type OtpService struct {
	store           kvstore.Store
	otpTTL          time.Duration
	registrationTTL time.Duration
	resetTokenTTL   time.Duration
}

func NewOtpService(store kvstore.Store, cfg *config.Config) *OtpService {
	return &OtpService{
		store:           store,
		otpTTL:          cfg.OtpTTL,
		registrationTTL: cfg.RegistrationTTL,
		resetTokenTTL:   cfg.ResetTokenTTL,
	}
}

// GenerateAndStoreOtp mints a fresh numeric code for the email, replacing any
// previous one, and returns the code together with its expiry moment.
func (s *OtpService) GenerateAndStoreOtp(ctx context.Context, email string) (string, time.Time, error) {
	code, err := common.RandomDigits(otpLength)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error generating otp: %w", err)
	}
	if err := s.store.Set(ctx, otpKeyPrefix+email, code, s.otpTTL); err != nil {
		return "", time.Time{}, fmt.Errorf("error storing otp: %w", err)
	}
	return code, time.Now().Add(s.otpTTL), nil
}

// ResendOtp discards any outstanding code and mints a fresh one. The pending
// registration keeps its original TTL.
func (s *OtpService) ResendOtp(ctx context.Context, email string) (string, time.Time, error) {
	if err := s.store.Delete(ctx, otpKeyPrefix+email); err != nil {
		return "", time.Time{}, fmt.Errorf("error discarding otp: %w", err)
	}
	return s.GenerateAndStoreOtp(ctx, email)
}

// VerifyOtp checks the submitted code against the stored one and consumes it
// on success. A wrong code leaves the stored one intact so the user may retry
// until it expires.
func (s *OtpService) VerifyOtp(ctx context.Context, email, code string) error {
	stored, ok, err := s.store.Get(ctx, otpKeyPrefix+email)
	if err != nil {
		return fmt.Errorf("error reading otp: %w", err)
	}
	if !ok || stored != code {
		return common.ErrInvalidOrExpiredOtp
	}
	if err := s.store.Delete(ctx, otpKeyPrefix+email); err != nil {
		return fmt.Errorf("error consuming otp: %w", err)
	}
	return nil
}

// StorePendingRegistration saves the registration payload under its own TTL.
func (s *OtpService) StorePendingRegistration(ctx context.Context, email string, pending *models.PendingRegistration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("error encoding pending registration: %w", err)
	}
	if err := s.store.Set(ctx, registrationKeyPrefix+email, string(data), s.registrationTTL); err != nil {
		return fmt.Errorf("error storing pending registration: %w", err)
	}
	return nil
}

// GetPendingRegistration loads the stored payload. A missing or expired key
// yields ErrRegistrationDataNotFound.
func (s *OtpService) GetPendingRegistration(ctx context.Context, email string) (*models.PendingRegistration, error) {
	data, ok, err := s.store.Get(ctx, registrationKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("error reading pending registration: %w", err)
	}
	if !ok {
		return nil, common.ErrRegistrationDataNotFound
	}
	var pending models.PendingRegistration
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return nil, fmt.Errorf("error decoding pending registration: %w", err)
	}
	return &pending, nil
}

// HasPendingRegistration reports whether a registration payload is still live.
func (s *OtpService) HasPendingRegistration(ctx context.Context, email string) (bool, error) {
	return s.store.Exists(ctx, registrationKeyPrefix+email)
}

// MarkEmailVerified records that the email passed OTP verification. The
// marker shares the registration TTL so both halves of the flow expire
// together.
func (s *OtpService) MarkEmailVerified(ctx context.Context, email string) error {
	if err := s.store.Set(ctx, verifiedKeyPrefix+email, "1", s.registrationTTL); err != nil {
		return fmt.Errorf("error storing verified marker: %w", err)
	}
	return nil
}

// IsEmailVerified reports whether the verified marker is still live.
func (s *OtpService) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	return s.store.Exists(ctx, verifiedKeyPrefix+email)
}

// ClearRegistrationState drops every registration key for the email.
func (s *OtpService) ClearRegistrationState(ctx context.Context, email string) error {
	keys := []string{
		otpKeyPrefix + email,
		registrationKeyPrefix + email,
		verifiedKeyPrefix + email,
	}
	if err := s.store.DeleteMany(ctx, keys); err != nil {
		return fmt.Errorf("error clearing registration state: %w", err)
	}
	return nil
}

// StorePasswordResetToken saves the hash of an issued reset token.
func (s *OtpService) StorePasswordResetToken(ctx context.Context, email, tokenHash string) error {
	if err := s.store.Set(ctx, passwordResetKeyPrefix+email, tokenHash, s.resetTokenTTL); err != nil {
		return fmt.Errorf("error storing reset token hash: %w", err)
	}
	return nil
}

// GetPasswordResetToken returns the stored reset token hash, if any.
func (s *OtpService) GetPasswordResetToken(ctx context.Context, email string) (string, bool, error) {
	return s.store.Get(ctx, passwordResetKeyPrefix+email)
}

// ClearPasswordResetToken invalidates the outstanding reset token.
func (s *OtpService) ClearPasswordResetToken(ctx context.Context, email string) error {
	return s.store.Delete(ctx, passwordResetKeyPrefix+email)
}
