package partfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/fs"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/resource"
)

// ErrDirectoryNotEmpty is returned when a divider directory that should be
// empty could not be removed.
var ErrDirectoryNotEmpty = errors.New("divider directory not removable")

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Converter turns documents into JSON text and back.
type Converter interface {
	Parse(text []byte) (*data.Group, error)
	Serialize(g *data.Group) ([]byte, error)
}

// Options configures a Store.
type Options struct {
	// FS defaults to fs.Default.
	FS fs.FileSystem
	// Converter defaults to data.NewConverter(nil).
	Converter Converter
	// Level is the gzip compression level. Zero selects gzip.DefaultCompression.
	Level int
	// Atomic writes go through a temp file and a rename.
	Atomic bool
	// Limiter throttles bytes written to disk. Nil means unlimited.
	Limiter *resource.Controller
}

// Store reads and writes the partition files below one base path.
type Store struct {
	base    string
	fsys    fs.FileSystem
	conv    Converter
	level   int
	atomic  bool
	limiter *resource.Controller
}

// New returns a Store rooted at base.
func New(base string, opts Options) (*Store, error) {
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	if opts.Converter == nil {
		opts.Converter = data.NewConverter(nil)
	}
	if opts.Level == 0 {
		opts.Level = gzip.DefaultCompression
	}
	if opts.Level < gzip.HuffmanOnly || opts.Level > gzip.BestCompression {
		return nil, fmt.Errorf("partfile: invalid compression level %d", opts.Level)
	}
	return &Store{
		base:    base,
		fsys:    opts.FS,
		conv:    opts.Converter,
		level:   opts.Level,
		atomic:  opts.Atomic,
		limiter: opts.Limiter,
	}, nil
}

// Base returns the base path.
func (s *Store) Base() string { return s.base }

// Read decodes the document stored at path.
func (s *Store) Read(path string) (*data.Group, error) {
	text, err := s.ReadText(path)
	if err != nil {
		return nil, err
	}
	g, err := s.conv.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("partfile: parse %s: %w", path, err)
	}
	return g, nil
}

// ReadText returns the JSON text stored at path with line terminators removed.
func (s *Store) ReadText(path string) ([]byte, error) {
	f, err := s.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(path) == partition.GzipExt {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("partfile: read %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	text, err := io.ReadAll(lineJoiner{r: r})
	if err != nil {
		return nil, fmt.Errorf("partfile: read %s: %w", path, err)
	}
	return text, nil
}

// Write stores doc as the compressed partition of category and divider and
// returns the number of bytes written to disk.
func (s *Store) Write(ctx context.Context, category, divider string, doc *data.Group) (int64, error) {
	text, err := s.conv.Serialize(doc)
	if err != nil {
		return 0, fmt.Errorf("partfile: serialize %s_%s: %w", category, divider, err)
	}
	return s.WriteText(ctx, category, divider, text)
}

// WriteText stores already serialized JSON text as the compressed partition
// of category and divider.
func (s *Store) WriteText(ctx context.Context, category, divider string, text []byte) (int64, error) {
	plain := partition.Path(s.base, category, divider, false)
	compressed := partition.Path(s.base, category, divider, true)

	if s.atomic {
		if err := s.ensureDir(filepath.Dir(compressed)); err != nil {
			return 0, err
		}
		n, err := s.writeAtomic(ctx, compressed, text)
		if err != nil {
			return n, err
		}
		if err := s.removeIfExists(plain); err != nil {
			return n, err
		}
		return n, nil
	}

	if err := s.removeIfExists(plain); err != nil {
		return 0, err
	}
	if err := s.removeIfExists(compressed); err != nil {
		return 0, err
	}
	if err := s.ensureDir(filepath.Dir(compressed)); err != nil {
		return 0, err
	}

	f, err := s.fsys.OpenFile(compressed, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return 0, err
	}
	n, err := s.compress(ctx, f, text)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("partfile: write %s: %w", compressed, err)
	}
	return n, nil
}

func (s *Store) writeAtomic(ctx context.Context, filename string, text []byte) (int64, error) {
	tmp, err := s.fsys.CreateTemp(filepath.Dir(filename), partition.TempPattern(filepath.Base(filename)))
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = s.fsys.Remove(tmpName)
		}
	}()

	n, err := s.compress(ctx, tmp, text)
	if err != nil {
		return n, fmt.Errorf("partfile: write %s: %w", filename, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("partfile: sync %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("partfile: close %s: %w", filename, err)
	}
	if err := s.fsys.Rename(tmpName, filename); err != nil {
		return n, err
	}
	tmpName = ""
	return n, nil
}

func (s *Store) compress(ctx context.Context, w io.Writer, text []byte) (int64, error) {
	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, s.limiter)}
	zw, err := gzip.NewWriterLevel(cw, s.level)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(text); err != nil {
		_ = zw.Close()
		return cw.n, err
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Remove deletes every physical form of the partition of category and
// divider, then the divider directory if nothing else is left in it. It
// reports whether a partition file was removed. A missing partition is not
// an error.
func (s *Store) Remove(category, divider string) (bool, error) {
	removed := false
	for _, compressed := range []bool{false, true} {
		path := partition.Path(s.base, category, divider, compressed)
		ok, err := fs.Exists(s.fsys, path)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		if err := s.fsys.Remove(path); err != nil {
			return removed, err
		}
		removed = true
	}

	return removed, s.removeDirIfEmpty(filepath.Join(s.base, divider))
}

func (s *Store) removeDirIfEmpty(dir string) error {
	entries, err := s.fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	if err := s.fsys.Remove(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectoryNotEmpty, err)
	}
	return nil
}

func (s *Store) removeIfExists(path string) error {
	ok, err := fs.Exists(s.fsys, path)
	if err != nil || !ok {
		return err
	}
	return s.fsys.Remove(path)
}

func (s *Store) ensureDir(dir string) error {
	err := s.fsys.Mkdir(dir, dirPerm)
	if err != nil && !errors.Is(err, iofs.ErrExist) {
		return err
	}
	return nil
}

// lineJoiner drops '\r' and '\n' bytes from the stream.
type lineJoiner struct {
	r io.Reader
}

func (l lineJoiner) Read(p []byte) (int, error) {
	for {
		n, err := l.r.Read(p)
		j := 0
		for _, b := range p[:n] {
			if b != '\n' && b != '\r' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil || n == 0 {
			return j, err
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
