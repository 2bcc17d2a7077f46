package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/machrent/machrent/internal/common"
	"github.com/machrent/machrent/internal/dbx"
	"github.com/machrent/machrent/internal/logging"
	"github.com/machrent/machrent/internal/server/auth"
	"github.com/machrent/machrent/internal/server/config"
	"github.com/machrent/machrent/internal/server/filestore"
	"github.com/machrent/machrent/internal/server/hashing"
	"github.com/machrent/machrent/internal/server/kvstore"
	"github.com/machrent/machrent/internal/server/models"
	"github.com/machrent/machrent/internal/server/notify"
	"github.com/machrent/machrent/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUpInput carries the fields for direct sign-up without OTP verification.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Bio       string
	UserType  models.UserType
}

// CompleteRegistrationInput finishes the three-stage OTP signup.
type CompleteRegistrationInput struct {
	Email      string
	TempToken  string
	UserType   models.UserType
	Nickname   string
	Phone      string
	Bio        string
	Avatar     []byte
	AvatarName string
}

// ResetTokenInfo describes an outstanding password-reset token.
type ResetTokenInfo struct {
	Email     string
	ExpiresAt time.Time
}

// AuthService ties the credential, token, session, and registration pieces
// together. It owns every account-facing flow: sign-up (direct and OTP
// staged), sign-in, refresh-token rotation, logout, and password
// change/reset.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	hasher      *hashing.Hasher
	otp         *OtpService
	files       filestore.Store
	notifier    notify.Notifier
	log         logging.Logger

	maxSessions int
	frontendURL string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, store kvstore.Store,
	files filestore.Store, notifier notify.Notifier, log logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		issuer:      auth.NewIssuer(cfg),
		hasher:      hashing.New(cfg.BcryptCost),
		otp:         NewOtpService(store, cfg),
		files:       files,
		notifier:    notifier,
		log:         log,
		maxSessions: cfg.MaxSessions,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (s *AuthService) sessions(db dbx.DBTX) *SessionService {
	return NewSessionService(s.repomanager.RefreshTokens(db), s.hasher)
}

func (s *AuthService) mintPair(user *models.User) (*TokenPair, error) {
	roles := []string{string(user.UserType)}
	access, err := s.issuer.AccessToken(user.ID, user.Email, roles)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := s.issuer.RefreshToken(user.ID, user.Email, roles)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// issueSession mints a token pair for the user and records the refresh half
// in the session ledger, trimming the oldest sessions past the cap.
func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta *models.ClientMeta) (*TokenPair, error) {
	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.issuer.RefreshTTL())
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.sessions(tx)
		if _, err := sessions.Create(ctx, pair.RefreshToken, user.ID, expiresAt, meta); err != nil {
			return err
		}
		return sessions.EnforceMaxSessions(ctx, user.ID, s.maxSessions)
	}); err != nil {
		return nil, fmt.Errorf("error persisting session: %w", err)
	}
	return pair, nil
}

// GetProfile returns the user the access token belongs to.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByID(ctx, userID)
}

// SignUp creates an account directly and signs the new user in.
func (s *AuthService) SignUp(ctx context.Context, in *SignUpInput, meta *models.ClientMeta) (*TokenPair, *models.User, error) {
	userRepo := s.repomanager.Users(s.db)
	if _, err := userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, nil, common.ErrAlreadyRegistered
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("error checking email: %w", err)
	}

	if err := ValidatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, common.ErrInternal
	}

	user, err := userRepo.Create(ctx, &models.User{
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Bio:       in.Bio,
		UserType:  in.UserType,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// SignIn verifies credentials and starts a new session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string, meta *models.ClientMeta) (*TokenPair, *models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error finding user: %w", err)
	}
	if !s.hasher.Compare(password, user.Password) {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates a refresh token. The presented token must match exactly one
// stored session; a signature-valid token with no matching record means the
// token was already consumed or revoked, and every session the user holds is
// revoked in response.
func (s *AuthService) Refresh(ctx context.Context, userID int64, presented string, meta *models.ClientMeta) (*TokenPair, error) {
	sessions := s.sessions(s.db)

	matched, err := sessions.FindMatchingToken(ctx, userID, presented)
	if err != nil {
		return nil, err
	}
	if matched == nil {
		if err := sessions.DeleteAllByUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("error revoking sessions: %w", err)
		}
		s.log.Warn(ctx, "refresh token reuse detected", "user_id", userID)
		return nil, common.ErrRefreshTokenReuseDetected
	}
	if matched.ExpiresAt.Before(time.Now()) {
		if err := sessions.DeleteByID(ctx, matched.ID); err != nil {
			return nil, fmt.Errorf("error deleting expired session: %w", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if err := sessions.DeleteAllByUser(ctx, userID); err != nil {
				return nil, fmt.Errorf("error revoking sessions: %w", err)
			}
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.issuer.RefreshTTL())

	// the matched record goes away in the same transaction that records the
	// replacement: each stored token is usable at most once
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txSessions := s.sessions(tx)
		if err := txSessions.DeleteByID(ctx, matched.ID); err != nil {
			return err
		}
		if _, err := txSessions.Create(ctx, pair.RefreshToken, user.ID, expiresAt, meta); err != nil {
			return err
		}
		return txSessions.EnforceMaxSessions(ctx, user.ID, s.maxSessions)
	}); err != nil {
		return nil, fmt.Errorf("error rotating session: %w", err)
	}
	return pair, nil
}

// Logout ends the session the raw refresh token belongs to. An unverifiable
// token means there is nothing to revoke; that is not an error here.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	claims, err := s.issuer.VerifyRefresh(rawRefreshToken)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	sessions := s.sessions(s.db)
	matched, err := sessions.FindMatchingToken(ctx, userID, rawRefreshToken)
	if err != nil {
		return err
	}
	if matched != nil {
		return sessions.DeleteByID(ctx, matched.ID)
	}
	return nil
}

// LogoutAll revokes every session the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.sessions(s.db).DeleteAllByUser(ctx, userID)
}

// ChangePassword replaces the password after re-checking the current one and
// revokes all sessions so every device must sign in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(currentPassword, user.Password) {
		return common.ErrInvalidCurrentPassword
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	if s.hasher.Compare(newPassword, user.Password) {
		return common.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrInternal
	}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.sessions(tx).DeleteAllByUser(ctx, userID)
	}); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// ForgotPassword issues a reset token for a known email and hands the reset
// link to the notifier. Unknown emails are silently ignored.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	token, err := s.issuer.ResetToken(user.ID, user.Email)
	if err != nil {
		return common.ErrInternal
	}
	hash, err := s.hasher.Hash(token)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.otp.StorePasswordResetToken(ctx, user.Email, hash); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.frontendURL, token)
	s.notifier.PasswordResetLink(ctx, user.Email, resetURL)
	return nil
}

// VerifyResetToken reports whether the token is signed, unexpired,
// reset-scoped, and still unused.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) bool {
	email, err := s.issuer.VerifyReset(token)
	if err != nil {
		return false
	}
	storedHash, ok, err := s.otp.GetPasswordResetToken(ctx, email)
	if err != nil || !ok {
		return false
	}
	return s.hasher.Compare(token, storedHash)
}

// GetResetTokenInfo returns the email and expiry a valid reset token carries,
// or ErrInvalidOrExpiredResetToken.
func (s *AuthService) GetResetTokenInfo(ctx context.Context, token string) (*ResetTokenInfo, error) {
	email, expiresAt, err := s.issuer.ResetTokenInfo(token)
	if err != nil {
		return nil, common.ErrInvalidOrExpiredResetToken
	}
	return &ResetTokenInfo{Email: email, ExpiresAt: expiresAt}, nil
}

// ResetPassword consumes a reset token: the new password replaces the old
// one, the stored token hash is deleted so the token works exactly once, and
// every session is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !s.VerifyResetToken(ctx, token) {
		return common.ErrInvalidOrExpiredResetToken
	}
	email, err := s.issuer.VerifyReset(token)
	if err != nil {
		return common.ErrInvalidOrExpiredResetToken
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.sessions(tx).DeleteAllByUser(ctx, user.ID)
	}); err != nil {
		return fmt.Errorf("error resetting password: %w", err)
	}

	if err := s.otp.ClearPasswordResetToken(ctx, email); err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "email", email)
	return nil
}

// RegisterInit starts the staged signup: checks the email is unclaimed,
// stores the hashed password and profile stub, and sends a one-time code.
// The returned expiry is informational; the code itself travels out-of-band.
func (s *AuthService) RegisterInit(ctx context.Context, email, password, firstName string, meta *models.ClientMeta) (time.Time, error) {
	if _, err := s.repomanager.Users(s.db).FindByEmail(ctx, email); err == nil {
		return time.Time{}, common.ErrAlreadyRegistered
	} else if !errors.Is(err, common.ErrNotFound) {
		return time.Time{}, fmt.Errorf("error checking email: %w", err)
	}

	if err := ValidatePassword(password); err != nil {
		return time.Time{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return time.Time{}, common.ErrInternal
	}

	code, expiry, err := s.otp.GenerateAndStoreOtp(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.otp.StorePendingRegistration(ctx, email, &models.PendingRegistration{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		Meta:         meta,
	}); err != nil {
		return time.Time{}, err
	}

	s.notifier.OtpCode(ctx, email, code)
	return expiry, nil
}

// VerifyEmail checks the one-time code and hands back a short-lived token
// that authorizes registration-completion for the email.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	if err := s.otp.VerifyOtp(ctx, email, code); err != nil {
		return "", err
	}
	if _, err := s.otp.GetPendingRegistration(ctx, email); err != nil {
		if errors.Is(err, common.ErrRegistrationDataNotFound) {
			return "", common.ErrRegistrationSessionExpired
		}
		return "", err
	}
	if err := s.otp.MarkEmailVerified(ctx, email); err != nil {
		return "", err
	}

	token, err := s.issuer.CompletionToken(email)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

// ResendOtp replaces the outstanding code with a fresh one and re-sends it.
func (s *AuthService) ResendOtp(ctx context.Context, email string) (time.Time, error) {
	ok, err := s.otp.HasPendingRegistration(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, common.ErrRegistrationSessionExpired
	}

	code, expiry, err := s.otp.ResendOtp(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	s.notifier.OtpCode(ctx, email, code)
	return expiry, nil
}

// CompleteRegistration finishes the staged signup: validates the completion
// token, stores the avatar, creates the verified user from the pending
// payload, signs the user in, and clears the ephemeral state.
func (s *AuthService) CompleteRegistration(ctx context.Context, in *CompleteRegistrationInput, meta *models.ClientMeta) (*TokenPair, *models.User, error) {
	if len(in.Avatar) == 0 {
		return nil, nil, common.ErrAvatarRequired
	}
	if err := s.issuer.VerifyCompletion(in.TempToken, in.Email); err != nil {
		return nil, nil, common.ErrRegistrationSessionExpired
	}

	// two completions can race; the durable store is the arbiter
	userRepo := s.repomanager.Users(s.db)
	if _, err := userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, nil, common.ErrAlreadyRegistered
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("error checking email: %w", err)
	}

	pending, err := s.otp.GetPendingRegistration(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}

	avatarPath, err := s.files.Upload(ctx, in.Avatar, in.AvatarName, "avatars")
	if err != nil {
		return nil, nil, fmt.Errorf("error uploading avatar: %w", err)
	}

	if meta == nil {
		meta = pending.Meta
	}

	var pair *TokenPair
	var user *models.User
	expiresAt := time.Now().Add(s.issuer.RefreshTTL())
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:      in.Email,
			Password:   pending.PasswordHash,
			FirstName:  pending.FirstName,
			LastName:   in.Nickname,
			Phone:      in.Phone,
			Bio:        in.Bio,
			Avatar:     avatarPath,
			UserType:   in.UserType,
			IsVerified: true,
		})
		if err != nil {
			return err
		}
		pair, err = s.mintPair(user)
		if err != nil {
			return err
		}
		sessions := s.sessions(tx)
		if _, err := sessions.Create(ctx, pair.RefreshToken, user.ID, expiresAt, meta); err != nil {
			return err
		}
		return sessions.EnforceMaxSessions(ctx, user.ID, s.maxSessions)
	}); err != nil {
		return nil, nil, fmt.Errorf("error completing registration: %w", err)
	}

	if err := s.otp.ClearRegistrationState(ctx, in.Email); err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "registration completed", "email", in.Email)
	return pair, user, nil
}
