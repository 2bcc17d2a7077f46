// Package filestore stores uploaded files, currently avatar images handed in
// during registration-completion.
package filestore

import "context"

// Store saves file contents and returns the path the file is reachable at.
type Store interface {
	Upload(ctx context.Context, data []byte, fileName, folder string) (string, error)
}
