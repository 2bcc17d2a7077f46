// Package auth issues and verifies the signed tokens used by the
// authentication flows: access/refresh pairs plus the purpose-scoped
// password-reset and registration-completion tokens.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/machrent/machrent/internal/common"
	"github.com/machrent/machrent/internal/server/config"
)

const (
	purposePasswordReset = "password_reset"
	stageEmailVerified   = "email_verified"
)

// Claims is the payload carried by access and refresh tokens.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the claims.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

type resetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type completionClaims struct {
	Email string `json:"email"`
	Stage string `json:"stage"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens. Access, refresh and reset tokens each use
// their own HMAC secret; completion tokens share the access secret.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	resetSecret   []byte

	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
	completionTTL time.Duration
}

// NewIssuer constructs an Issuer from server config.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		resetSecret:   []byte(cfg.JWTResetSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		resetTTL:      cfg.ResetTokenTTL,
		completionTTL: cfg.CompletionTokenTTL,
	}
}

// RefreshTTL reports the configured refresh-token lifetime so callers can
// compute the session expiry persisted alongside the token hash.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func signed(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return s, nil
}

func (i *Issuer) subjectClaims(userID int64, email string, roles []string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// AccessToken mints a short-lived access token.
func (i *Issuer) AccessToken(userID int64, email string, roles []string) (string, error) {
	return signed(i.subjectClaims(userID, email, roles, i.accessTTL), i.accessSecret)
}

// RefreshToken mints a long-lived refresh token signed with the refresh secret.
func (i *Issuer) RefreshToken(userID int64, email string, roles []string) (string, error) {
	return signed(i.subjectClaims(userID, email, roles, i.refreshTTL), i.refreshSecret)
}

// ResetToken mints a password-reset token scoped by purpose.
func (i *Issuer) ResetToken(userID int64, email string) (string, error) {
	now := time.Now()
	return signed(resetClaims{
		Email:   email,
		Purpose: purposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.resetTTL)),
		},
	}, i.resetSecret)
}

// CompletionToken mints the short-lived token handed out after OTP
// verification that authorizes registration-completion for the email.
func (i *Issuer) CompletionToken(email string) (string, error) {
	now := time.Now()
	return signed(completionClaims{
		Email: email,
		Stage: stageEmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.completionTTL)),
		},
	}, i.accessSecret)
}

func verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

// VerifyAccess checks signature and expiry of an access token.
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := verify(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry of a refresh token.
func (i *Issuer) VerifyRefresh(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := verify(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyReset checks a reset token's signature, expiry and purpose
// discriminant, returning the embedded email. A signature-valid token with
// the wrong purpose is rejected.
func (i *Issuer) VerifyReset(tokenString string) (string, error) {
	claims := &resetClaims{}
	if err := verify(tokenString, claims, i.resetSecret); err != nil {
		return "", err
	}
	if claims.Purpose != purposePasswordReset {
		return "", common.ErrInvalidToken
	}
	return claims.Email, nil
}

// ResetTokenInfo verifies a reset token and returns the email and expiry it
// carries.
func (i *Issuer) ResetTokenInfo(tokenString string) (string, time.Time, error) {
	claims := &resetClaims{}
	if err := verify(tokenString, claims, i.resetSecret); err != nil {
		return "", time.Time{}, err
	}
	if claims.Purpose != purposePasswordReset {
		return "", time.Time{}, common.ErrInvalidToken
	}
	return claims.Email, claims.ExpiresAt.Time, nil
}

// VerifyCompletion checks a registration-completion token against the email
// the caller claims to be finishing signup for.
func (i *Issuer) VerifyCompletion(tokenString, email string) error {
	claims := &completionClaims{}
	if err := verify(tokenString, claims, i.accessSecret); err != nil {
		return err
	}
	if claims.Stage != stageEmailVerified || claims.Email != email {
		return common.ErrInvalidToken
	}
	return nil
}

// DecodeUnsafe parses claims without checking the signature. Only for reading
// claims off a token whose validity was already established elsewhere.
func DecodeUnsafe(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
