// Package partition encodes and decodes partition file names.
//
// A partition file holds every document of one category for one data
// divider and lives at
//
//	<base>/<divider>/<category>_<divider>.json[.gz]
//
// The category is a record type or one of the reserved categories
// [CollectedData] and [LinkLists].
package partition

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// CollectedData is the category holding collected storage terms.
	CollectedData = "collectedData"
	// LinkLists is the category holding record link lists.
	LinkLists = "linkLists"
	// StreamsDir is the attachment subtree directly under the base path.
	StreamsDir = "streams"

	// JSONExt is the extension of a plain partition file.
	JSONExt = ".json"
	// GzipExt is appended to JSONExt for compressed partition files.
	GzipExt = ".gz"

	tempMarker = ".tmp-"
)

// ErrMalformedName is returned for file names that do not follow
// <category>_<divider>.<ext>.
var ErrMalformedName = errors.New("malformed partition file name")

// Name is a parsed partition file name.
type Name struct {
	Category   string
	Divider    string
	Compressed bool
}

// Parse classifies a file name. The category is the text before the last
// '_' and the divider the text between that '_' and the first '.'.
func Parse(filename string) (Name, error) {
	us := strings.LastIndexByte(filename, '_')
	dot := strings.IndexByte(filename, '.')

	switch {
	case us < 0:
		return Name{}, fmt.Errorf("%w: %q has no '_'", ErrMalformedName, filename)
	case dot < 0:
		return Name{}, fmt.Errorf("%w: %q has no extension", ErrMalformedName, filename)
	case dot < us:
		return Name{}, fmt.Errorf("%w: %q has '.' before the last '_'", ErrMalformedName, filename)
	case us == 0:
		return Name{}, fmt.Errorf("%w: %q has an empty category", ErrMalformedName, filename)
	case dot == us+1:
		return Name{}, fmt.Errorf("%w: %q has an empty divider", ErrMalformedName, filename)
	}

	return Name{
		Category:   filename[:us],
		Divider:    filename[us+1 : dot],
		Compressed: strings.HasSuffix(filename, GzipExt),
	}, nil
}

// Validate checks that records of recordType in divider can be written to
// partition files that Parse reads back as the same category and divider.
func Validate(recordType, divider string) error {
	switch {
	case recordType == "":
		return fmt.Errorf("%w: empty record type", ErrMalformedName)
	case strings.ContainsAny(recordType, "./\\"):
		return fmt.Errorf("%w: record type %q contains '.' or a path separator", ErrMalformedName, recordType)
	case Name{Category: recordType}.Reserved():
		return fmt.Errorf("%w: record type %q is a reserved category", ErrMalformedName, recordType)
	case divider == "":
		return fmt.Errorf("%w: empty divider", ErrMalformedName)
	case strings.ContainsAny(divider, "._/\\"):
		return fmt.Errorf("%w: divider %q contains '.', '_' or a path separator", ErrMalformedName, divider)
	case divider == StreamsDir:
		return fmt.Errorf("%w: divider %q is reserved", ErrMalformedName, divider)
	}
	return nil
}

// FileName returns the file name for a partition.
func FileName(category, divider string, compressed bool) string {
	name := category + "_" + divider + JSONExt
	if compressed {
		name += GzipExt
	}
	return name
}

// Path returns the full path of a partition below base.
func Path(base, category, divider string, compressed bool) string {
	return filepath.Join(base, divider, FileName(category, divider, compressed))
}

// FileName returns the file name for n.
func (n Name) FileName() string {
	return FileName(n.Category, n.Divider, n.Compressed)
}

// String returns "category/divider".
func (n Name) String() string {
	return n.Category + "/" + n.Divider
}

// Reserved reports whether the category is collectedData or linkLists.
func (n Name) Reserved() bool {
	return n.Category == CollectedData || n.Category == LinkLists
}

// TempPattern returns the os.CreateTemp pattern used for atomic writes of
// the file called filename.
func TempPattern(filename string) string {
	return filename + tempMarker + "*"
}

// IsTemp reports whether filename is a leftover atomic-write temp file.
func IsTemp(filename string) bool {
	return strings.Contains(filename, tempMarker)
}
