// Package refreshtokens declares the repository contract for the refresh
// token ledger. Rows hold token hashes only; matching a caller-presented raw
// token against them happens in the session service, not here.
package refreshtokens

import (
	"context"

	"github.com/machrent/machrent/internal/server/models"
)

// Repository defines storage operations for refresh-token records.
type Repository interface {
	// Create inserts a record whose Token field already holds the hash.
	Create(ctx context.Context, record *models.RefreshToken) (*models.RefreshToken, error)

	// FindAllByUser returns the user's records ordered newest-first.
	FindAllByUser(ctx context.Context, userID int64) ([]models.RefreshToken, error)

	// DeleteByID removes a single record. Absent ids are not an error.
	DeleteByID(ctx context.Context, id int64) error

	// DeleteAllByUser removes every record for the user.
	DeleteAllByUser(ctx context.Context, userID int64) error
}
