//go:build !sqlite

package storage

import "errors"

// Stub used when the binary was built without the sqlite tag. Run
// persistence then needs the in-memory store.
func newSQLiteStore(_ string) (Store, error) {
	return nil, errors.New(`store kind "sqlite" needs a binary built with -tags sqlite`)
}
