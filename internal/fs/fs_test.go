package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "sys1")
	require.NoError(t, lfs.Mkdir(dir, 0755))
	assert.Error(t, lfs.Mkdir(dir, 0755))

	fpath := filepath.Join(dir, "person_sys1.json.gz")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.Equal(t, fpath, f.Name())

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	tmpFile, err := lfs.CreateTemp(dir, "person_sys1.json.gz.tmp-*")
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, lfs.Rename(tmpFile.Name(), fpath))

	exists, err := Exists(lfs, fpath)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, lfs.Remove(fpath))
	exists, err = Exists(lfs, fpath)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, lfs.Remove(dir))
}

func TestLocalFS_LstatDoesNotFollowLinks(t *testing.T) {
	tmp := t.TempDir()
	link := filepath.Join(tmp, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(tmp, "missing"), link))

	info, err := LocalFS{}.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	_, err = LocalFS{}.Stat(link)
	assert.True(t, os.IsNotExist(err))

	exists, err := Exists(LocalFS{}, link)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	ffs.SetLimit(5) // Fail after 5 bytes

	fpath := filepath.Join(tmp, "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.GetWritten())
	require.NoError(t, f.Close())

	assert.NoError(t, ffs.Rename(fpath, fpath+".renamed"))
	_, err = ffs.Stat(fpath + ".renamed")
	assert.NoError(t, err)
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	injected := errors.New("disk on fire")

	ffs.AddRule("blocked", Fault{FailAfterBytes: -1, FailOnOpen: true, FailOnRemove: true, FailOnReadDir: true, Err: injected})
	ffs.AddRule("limited", Fault{FailAfterBytes: 2, FailOnSync: true, FailOnClose: true})

	_, err := ffs.OpenFile(filepath.Join(tmp, "blocked.txt"), os.O_CREATE|os.O_RDWR, 0644)
	assert.ErrorIs(t, err, injected)
	var pe *os.PathError
	assert.ErrorAs(t, err, &pe)

	assert.ErrorIs(t, ffs.Remove(filepath.Join(tmp, "blocked.txt")), injected)
	_, err = ffs.ReadDir(filepath.Join(tmp, "blocked"))
	assert.ErrorIs(t, err, injected)

	f, err := ffs.OpenFile(filepath.Join(tmp, "limited.txt"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("ab"))
	assert.NoError(t, err)
	_, err = f.Write([]byte("c"))
	assert.Error(t, err)
	assert.Error(t, f.Sync())
	assert.Error(t, f.Close())

	ffs.ClearRules()
	f, err = ffs.OpenFile(filepath.Join(tmp, "blocked.txt"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, ffs.Remove(filepath.Join(tmp, "blocked.txt")))
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.Mkdir(dir, 0755))

	tf, err := ffs.CreateTemp(dir, "x.tmp-*")
	require.NoError(t, err)
	require.NoError(t, tf.Close())

	_, err = ffs.Lstat(tf.Name())
	assert.NoError(t, err)
	assert.NoError(t, ffs.Remove(tf.Name()))

	entries, err := ffs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFaultyFS_LongestRuleWins(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("data", Fault{FailAfterBytes: -1, FailOnOpen: true})
	ffs.AddRule("data_ok", Fault{FailAfterBytes: -1})

	f, err := ffs.OpenFile(filepath.Join(tmp, "data_ok.txt"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ffs.OpenFile(filepath.Join(tmp, "data_bad.txt"), os.O_CREATE|os.O_RDWR, 0644)
	assert.ErrorIs(t, err, ffs.Err)
}

func TestFaultyFS_FaultWithoutErr(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.Err = nil
	ffs.AddRule("sync.dat", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close.dat", Fault{FailAfterBytes: -1, FailOnClose: true})
	ffs.AddRule("write.dat", Fault{FailAfterBytes: 0})
	ffs.AddRule("open.dat", Fault{FailAfterBytes: -1, FailOnOpen: true})

	create := func(name string) File {
		f, err := ffs.OpenFile(filepath.Join(tmp, name), os.O_RDWR|os.O_CREATE, 0o644)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })
		return f
	}

	assert.ErrorIs(t, create("sync.dat").Sync(), ErrInjected)
	assert.ErrorIs(t, create("close.dat").Close(), ErrInjected)
	_, err := create("write.dat").Write([]byte("x"))
	assert.ErrorIs(t, err, ErrInjected)

	_, err = ffs.OpenFile(filepath.Join(tmp, "open.dat"), os.O_RDWR|os.O_CREATE, 0o644)
	assert.ErrorIs(t, err, ErrInjected)

	ffs.SetLimit(0)
	_, err = create("other.dat").Write([]byte("x"))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFile_ZeroFault(t *testing.T) {
	f, err := Default.OpenFile(filepath.Join(t.TempDir(), "f"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	ff := &faultyFile{File: f, fs: &FaultyFS{globalLimit: -1}, fault: Fault{FailAfterBytes: -1, FailOnSync: true, FailOnClose: true}}

	assert.ErrorIs(t, ff.Sync(), ErrInjected)
	assert.ErrorIs(t, ff.Close(), ErrInjected)
}
