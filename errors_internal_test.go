package diskstorage

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partfile"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/scan"
)

// multiError is not comparable; classify must not compare it with ==.
type multiError []error

func (m multiError) Error() string   { return fmt.Sprint([]error(m)) }
func (m multiError) Unwrap() []error { return m }

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		cause error
		want  []error
	}{
		{"malformed name", fmt.Errorf("parse: %w", partition.ErrMalformedName), partition.ErrMalformedName, []error{ErrMalformedName}},
		{"dangling symlink", scan.ErrDanglingSymlink, scan.ErrDanglingSymlink, []error{ErrIntegrity}},
		{"symlink cycle", scan.ErrSymlinkCycle, scan.ErrSymlinkCycle, []error{ErrIntegrity}},
		{"directory not empty", partfile.ErrDirectoryNotEmpty, partfile.ErrDirectoryNotEmpty, []error{ErrDirectoryNotEmpty, ErrIO}},
		{"malformed document", data.ErrMalformedDocument, data.ErrMalformedDocument, []error{ErrCorruptPartition}},
		{"missing child", data.ErrChildNotFound, data.ErrChildNotFound, []error{ErrCorruptPartition}},
		{"path error", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, os.ErrPermission, []error{ErrIO}},
		{"bad gzip", gzip.ErrHeader, gzip.ErrHeader, []error{ErrIO}},
		{"not comparable", multiError{errors.New("a"), scan.ErrSymlinkCycle}, scan.ErrSymlinkCycle, []error{ErrIntegrity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			for _, want := range tt.want {
				assert.ErrorIs(t, got, want)
			}
			assert.ErrorIs(t, got, tt.cause)
		})
	}
}

func TestTranslateError_Unknown(t *testing.T) {
	plain := errors.New("something else")
	assert.Same(t, plain, translateError(plain))
	assert.NoError(t, translateError(nil))

	wrapped := diskError(plain)
	assert.ErrorIs(t, wrapped, ErrIO)
	assert.ErrorIs(t, wrapped, plain)
	assert.NoError(t, diskError(nil))
}
