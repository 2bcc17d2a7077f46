// Package services contains server-side business logic: session bookkeeping,
// one-time codes, password policy, and the authentication orchestrator.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/machrent/machrent/internal/server/hashing"
	"github.com/machrent/machrent/internal/server/models"
	"github.com/machrent/machrent/internal/server/repositories/refreshtokens"
)

// SessionService maintains the per-user ledger of refresh-token sessions.
// Raw tokens are hashed before persisting; matching a presented token means
// comparing it against every stored hash for the user, because salted hashes
// cannot be looked up directly.
type SessionService struct {
	repo   refreshtokens.Repository
	hasher *hashing.Hasher
}

func NewSessionService(repo refreshtokens.Repository, hasher *hashing.Hasher) *SessionService {
	return &SessionService{repo: repo, hasher: hasher}
}

// Create hashes rawToken and persists a session record for the user.
func (s *SessionService) Create(ctx context.Context, rawToken string, userID int64, expiresAt time.Time, meta *models.ClientMeta) (*models.RefreshToken, error) {
	hash, err := s.hasher.Hash(rawToken)
	if err != nil {
		return nil, fmt.Errorf("error hashing refresh token: %w", err)
	}
	record := &models.RefreshToken{
		UserID:    userID,
		Token:     hash,
		ExpiresAt: expiresAt,
	}
	if meta != nil {
		record.IP = meta.IP
		record.UserAgent = meta.UserAgent
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return created, nil
}

// FindMatchingToken scans the user's sessions for one whose stored hash
// matches rawToken. It returns (nil, nil) when no record matches.
func (s *SessionService) FindMatchingToken(ctx context.Context, userID int64, rawToken string) (*models.RefreshToken, error) {
	records, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	for i := range records {
		if s.hasher.Compare(rawToken, records[i].Token) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// DeleteByID removes a single session record.
func (s *SessionService) DeleteByID(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}

// DeleteAllByUser revokes every session the user holds.
func (s *SessionService) DeleteAllByUser(ctx context.Context, userID int64) error {
	return s.repo.DeleteAllByUser(ctx, userID)
}

// EnforceMaxSessions deletes the oldest sessions beyond max, keeping the
// newest max records. A non-positive max disables the cap.
func (s *SessionService) EnforceMaxSessions(ctx context.Context, userID int64, max int) error {
	if max <= 0 {
		return nil
	}
	records, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	for _, excess := range records[min(max, len(records)):] {
		if err := s.repo.DeleteByID(ctx, excess.ID); err != nil {
			return fmt.Errorf("error deleting excess session: %w", err)
		}
	}
	return nil
}
