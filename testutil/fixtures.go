package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partfile"
)

// Record builds a record document named recordType with a recordInfo/id
// child and one atomic child per name/value pair in fields.
func Record(recordType, id string, fields ...string) *data.Group {
	info := data.NewGroup("recordInfo")
	info.AddChild(data.NewAtomic("id", id), data.NewAtomic("type", recordType))
	g := data.NewGroup(recordType)
	g.AddChild(info)
	for i := 0; i+1 < len(fields); i += 2 {
		g.AddChild(data.NewAtomic(fields[i], fields[i+1]))
	}
	return g
}

// Terms builds a collected terms document holding one collectedDataTerm
// per collectTermId/collectTermValue pair.
func Terms(pairs ...string) *data.Group {
	storage := data.NewGroup("storage")
	for i := 0; i+1 < len(pairs); i += 2 {
		term := data.NewGroup("collectedDataTerm")
		term.AddChild(
			data.NewAtomic("collectTermId", pairs[i]),
			data.NewAtomic("collectTermValue", pairs[i+1]),
		)
		storage.AddChild(term)
	}
	g := data.NewGroup("collectedData")
	g.AddChild(storage)
	return g
}

// Links builds a collectedDataLinks document with one link per
// "type:id" target.
func Links(targets ...string) *data.Group {
	g := data.NewGroup("collectedDataLinks")
	for i, target := range targets {
		link := data.NewGroup("recordToRecordLink")
		link.SetRepeatID(string(rune('0' + i%10)))
		link.AddChild(data.NewAtomic("to", target))
		g.AddChild(link)
	}
	return g
}

// Files returns every file below base as sorted slash-separated relative paths.
func Files(tb testing.TB, base string) []string {
	tb.Helper()
	var files []string
	err := filepath.WalkDir(base, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(tb, err)
	slices.Sort(files)
	return files
}

// ReadPartition decodes a partition file in either form.
func ReadPartition(tb testing.TB, path string) *data.Group {
	tb.Helper()
	store, err := partfile.New(filepath.Dir(path), partfile.Options{})
	require.NoError(tb, err)
	g, err := store.Read(path)
	require.NoError(tb, err)
	return g
}

// ChildNames returns the names of the direct children of g.
func ChildNames(g *data.Group) []string {
	names := make([]string, 0, len(g.Children()))
	for _, c := range g.Children() {
		names = append(names, c.NameInData())
	}
	return names
}

// WritePlain writes text as an uncompressed partition file, creating
// parent directories.
func WritePlain(tb testing.TB, path, text string) {
	tb.Helper()
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tb, os.WriteFile(path, []byte(text), 0o644))
}

// WriteGzip writes text as a gzip-compressed partition file, creating
// parent directories.
func WriteGzip(tb testing.TB, path, text string) {
	tb.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(text))
	require.NoError(tb, err)
	require.NoError(tb, zw.Close())
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tb, os.WriteFile(path, buf.Bytes(), 0o644))
}
