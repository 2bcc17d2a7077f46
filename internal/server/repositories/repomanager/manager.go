// Package repomanager vends repository implementations bound to a DBTX and
// exposes the schema migration hook. Services obtain repositories through a
// manager so the same code paths work inside and outside transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/machrent/machrent/internal/dbx"
	"github.com/machrent/machrent/internal/server/repositories/refreshtokens"
	"github.com/machrent/machrent/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a database handle or transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
