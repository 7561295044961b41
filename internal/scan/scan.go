// Package scan lists the files below a storage base path.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	vfs "github.com/olovm/cora-diskstorage/internal/fs"
	"github.com/olovm/cora-diskstorage/internal/partition"
)

var (
	// ErrDanglingSymlink is returned for a symbolic link whose target does not exist.
	ErrDanglingSymlink = errors.New("dangling symbolic link")
	// ErrSymlinkCycle is returned for a symbolic link that points back to a
	// directory on the current descent path.
	ErrSymlinkCycle = errors.New("symbolic link cycle")
)

// Scan walks base depth-first and returns every non-directory path found.
// The streams directory directly under base is skipped, also when it is a
// symbolic link. Other symbolic links are resolved; links to directories are
// descended into.
func Scan(fsys vfs.FileSystem, base string) ([]string, error) {
	info, err := fsys.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: base, Err: errors.New("not a directory")}
	}

	w := &walker{fsys: fsys, base: base}
	if err := w.walk(base, []os.FileInfo{info}); err != nil {
		return nil, err
	}
	return w.files, nil
}

type walker struct {
	fsys  vfs.FileSystem
	base  string
	files []string
}

func (w *walker) walk(dir string, path []os.FileInfo) error {
	entries, err := w.fsys.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := filepath.Join(dir, entry.Name())

		// A linked streams directory is skipped without resolving the link.
		if dir == w.base && entry.Name() == partition.StreamsDir && (entry.IsDir() || entry.Type()&fs.ModeSymlink != 0) {
			continue
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := w.fsys.Stat(name)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w: %s", ErrDanglingSymlink, name)
				}
				return err
			}
			if !target.IsDir() {
				w.files = append(w.files, name)
				continue
			}
			for _, ancestor := range path {
				if os.SameFile(ancestor, target) {
					return fmt.Errorf("%w: %s", ErrSymlinkCycle, name)
				}
			}
			if err := w.walk(name, append(path, target)); err != nil {
				return err
			}
			continue
		}

		if !entry.IsDir() {
			w.files = append(w.files, name)
			continue
		}
		info, err := w.fsys.Stat(name)
		if err != nil {
			return err
		}
		if err := w.walk(name, append(path, info)); err != nil {
			return err
		}
	}
	return nil
}
