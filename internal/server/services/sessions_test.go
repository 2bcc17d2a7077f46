package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/machrent/machrent/internal/server/hashing"
	"github.com/machrent/machrent/internal/server/models"
)

// fakeRefreshTokenRepo is an in-memory refreshtokens.Repository.
type fakeRefreshTokenRepo struct {
	nextID  int64
	records []models.RefreshToken

	findErr   error
	createErr error
	deleted   []int64
}

func (f *fakeRefreshTokenRepo) Create(ctx context.Context, record *models.RefreshToken) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	r := *record
	r.ID = f.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	f.records = append(f.records, r)
	return &r, nil
}

func (f *fakeRefreshTokenRepo) FindAllByUser(ctx context.Context, userID int64) ([]models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.RefreshToken
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeRefreshTokenRepo) DeleteByID(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	kept := f.records[:0]
	for _, r := range f.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeRefreshTokenRepo) DeleteAllByUser(ctx context.Context, userID int64) error {
	kept := f.records[:0]
	for _, r := range f.records {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func newSessionServiceForTest() (*SessionService, *fakeRefreshTokenRepo) {
	repo := &fakeRefreshTokenRepo{}
	return NewSessionService(repo, hashing.New(4)), repo
}

func TestSessionCreate_StoresHashNotToken(t *testing.T) {
	svc, repo := newSessionServiceForTest()

	meta := &models.ClientMeta{IP: "10.0.0.1", UserAgent: "test-agent"}
	created, err := svc.Create(context.Background(), "raw-refresh-token", 7, time.Now().Add(time.Hour), meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Token == "raw-refresh-token" {
		t.Fatalf("raw token persisted verbatim")
	}
	if len(repo.records) != 1 {
		t.Fatalf("want 1 record, got %d", len(repo.records))
	}
	if repo.records[0].IP != "10.0.0.1" || repo.records[0].UserAgent != "test-agent" {
		t.Fatalf("client metadata not persisted: %+v", repo.records[0])
	}
}

func TestFindMatchingToken(t *testing.T) {
	svc, _ := newSessionServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "token-one", 7, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, "token-two", 7, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := svc.FindMatchingToken(ctx, 7, "token-two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil {
		t.Fatalf("expected a match")
	}

	none, err := svc.FindMatchingToken(ctx, 7, "token-three")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no match, got %+v", none)
	}
}

func TestFindMatchingToken_OtherUser(t *testing.T) {
	svc, _ := newSessionServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "token-one", 7, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := svc.FindMatchingToken(ctx, 8, "token-one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Fatalf("token matched across users")
	}
}

func TestFindMatchingToken_RepoError(t *testing.T) {
	svc, repo := newSessionServiceForTest()
	repo.findErr = errors.New("db down")

	if _, err := svc.FindMatchingToken(context.Background(), 7, "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEnforceMaxSessions_DeletesOldest(t *testing.T) {
	svc, repo := newSessionServiceForTest()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 4; i++ {
		repo.nextID++
		repo.records = append(repo.records, models.RefreshToken{
			ID:        repo.nextID,
			UserID:    7,
			Token:     "hash",
			ExpiresAt: base.Add(time.Hour),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	if err := svc.EnforceMaxSessions(ctx, 7, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining, err := svc.repo.FindAllByUser(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("want 2 remaining sessions, got %d", len(remaining))
	}
	for _, r := range remaining {
		if r.ID != 3 && r.ID != 4 {
			t.Fatalf("oldest sessions were kept: %+v", remaining)
		}
	}
}

func TestEnforceMaxSessions_UnderLimit(t *testing.T) {
	svc, repo := newSessionServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "only", 7, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.EnforceMaxSessions(ctx, 7, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("no deletions expected, got %v", repo.deleted)
	}
}

func TestEnforceMaxSessions_Disabled(t *testing.T) {
	svc, repo := newSessionServiceForTest()
	repo.findErr = errors.New("should not be called")

	if err := svc.EnforceMaxSessions(context.Background(), 7, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
