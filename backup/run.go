package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/olovm/cora-diskstorage/internal/fs"
)

// File is one local file to mirror.
type File struct {
	// Name is the object name on the target.
	Name string
	// Path is the local path.
	Path string
}

// Result summarizes a Run.
type Result struct {
	Uploaded int
	Pruned   int
	Bytes    int64
}

// Run uploads every file to target and then deletes every object on target
// that is not among files. It stops at the first error.
func Run(ctx context.Context, fsys fs.FileSystem, files []File, target Target) (Result, error) {
	var res Result
	keep := make(map[string]struct{}, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := upload(ctx, fsys, f, target)
		if err != nil {
			return res, err
		}
		keep[f.Name] = struct{}{}
		res.Uploaded++
		res.Bytes += n
	}

	names, err := target.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("backup: list: %w", err)
	}
	for _, name := range names {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := target.Delete(ctx, name); err != nil {
			return res, fmt.Errorf("backup: delete %s: %w", name, err)
		}
		res.Pruned++
	}
	return res, nil
}

func upload(ctx context.Context, fsys fs.FileSystem, f File, target Target) (int64, error) {
	file, err := fsys.OpenFile(f.Path, os.O_RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if err := target.Put(ctx, f.Name, file, info.Size()); err != nil {
		return 0, fmt.Errorf("backup: put %s: %w", f.Name, err)
	}
	return info.Size(), nil
}
