package diskstorage

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partfile"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/scan"
)

var (
	// ErrIO is returned when reading, writing, listing or deleting on disk fails.
	ErrIO = errors.New("diskstorage: io failure")

	// ErrIntegrity is returned when the file tree is inconsistent, for
	// example a symbolic link whose target is missing.
	ErrIntegrity = errors.New("diskstorage: integrity failure")

	// ErrMalformedName is returned for a file below the base path whose
	// name is not <category>_<divider>.<ext>.
	ErrMalformedName = errors.New("diskstorage: malformed partition file name")

	// ErrDirectoryNotEmpty is returned when an emptied divider directory
	// could not be removed. It always matches ErrIO as well.
	ErrDirectoryNotEmpty = errors.New("diskstorage: divider directory could not be removed")

	// ErrCorruptPartition is returned for a partition file that is not valid
	// JSON or does not have the expected document structure.
	ErrCorruptPartition = errors.New("diskstorage: corrupt partition")

	// ErrClosed is returned by operations on a closed Storage.
	ErrClosed = errors.New("diskstorage: storage is closed")
)

// PartitionError records the partition file an operation failed on.
//
// The classified cause can be matched with errors.Is against the sentinel
// errors of this package.
type PartitionError struct {
	Op    string
	Path  string
	cause error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("diskstorage: %s %s: %v", e.Op, e.Path, e.cause)
}

func (e *PartitionError) Unwrap() error { return e.cause }

// translateError classifies errors coming from the disk layer. Errors it
// does not recognize are returned unchanged.
func translateError(err error) error {
	if t, ok := classify(err); ok {
		return t
	}
	return err
}

// diskError is translateError for errors that can only come from file
// operations: anything left unclassified is an IO failure.
func diskError(err error) error {
	if err == nil {
		return nil
	}
	if t, ok := classify(err); ok {
		return t
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

func classify(err error) (error, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, partition.ErrMalformedName) {
		return fmt.Errorf("%w: %w", ErrMalformedName, err), true
	}
	if errors.Is(err, scan.ErrDanglingSymlink) || errors.Is(err, scan.ErrSymlinkCycle) {
		return fmt.Errorf("%w: %w", ErrIntegrity, err), true
	}
	if errors.Is(err, partfile.ErrDirectoryNotEmpty) {
		return fmt.Errorf("%w: %w: %w", ErrDirectoryNotEmpty, ErrIO, err), true
	}
	if errors.Is(err, data.ErrMalformedDocument) || errors.Is(err, data.ErrChildNotFound) {
		return fmt.Errorf("%w: %w", ErrCorruptPartition, err), true
	}

	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %w", ErrIO, err), true
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return fmt.Errorf("%w: %w", ErrIO, err), true
	}
	if errors.Is(err, gzip.ErrHeader) || errors.Is(err, gzip.ErrChecksum) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrIO, err), true
	}

	return err, false
}
