package backup

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Target is a store that partition files are mirrored to. Names are slash
// separated paths relative to the storage base path, for example
// "sys1/person_sys1.json.gz".
type Target interface {
	// Put stores size bytes from r under name, replacing any previous object.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Delete removes name. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
	// List returns every object name starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
