package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskstorage "github.com/olovm/cora-diskstorage"
	"github.com/olovm/cora-diskstorage/memory"
	"github.com/olovm/cora-diskstorage/testutil"
)

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	resetFlags(rootCmd)
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// buildTree writes a small partition tree through the storage itself.
func buildTree(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	base := t.TempDir()
	s, err := diskstorage.Open(ctx, base, memory.New())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "person", "p1", testutil.Record("person", "p1", "name", "Anna"), testutil.Terms("nameTerm", "Anna"), testutil.Links("place:pl1"), "sys1"))
	require.NoError(t, s.Create(ctx, "person", "p2", testutil.Record("person", "p2"), nil, nil, "sys2"))
	require.NoError(t, s.Create(ctx, "place", "pl1", testutil.Record("place", "pl1"), nil, nil, "sys1"))
	return base
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diskstorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLs(t *testing.T) {
	base := buildTree(t)
	testutil.WritePlain(t, filepath.Join(base, "sys1", "notes.txt"), "x")
	testutil.WritePlain(t, filepath.Join(base, "sys2", "person_sys2.json.gz.tmp-42"), "x")

	stdout, _, err := runCmd(t, "--base", base, "ls")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PATH")
	assert.Regexp(t, `sys1/person_sys1\.json\.gz\s+person\s+sys1\s+gzip`, stdout)

	stdout, _, err = runCmd(t, "--base", base, "ls", "-o", "json")
	require.NoError(t, err)
	var entries []fileEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))

	forms := make(map[string]string)
	for _, e := range entries {
		forms[e.Path] = e.Form
	}
	assert.Equal(t, map[string]string{
		"sys1/collectedData_sys1.json.gz": "gzip",
		"sys1/linkLists_sys1.json.gz":     "gzip",
		"sys1/notes.txt":                  "invalid",
		"sys1/person_sys1.json.gz":        "gzip",
		"sys1/place_sys1.json.gz":         "gzip",
		"sys2/person_sys2.json.gz":        "gzip",
		"sys2/person_sys2.json.gz.tmp-42": "temp",
	}, forms)
}

func TestLs_RequiresBase(t *testing.T) {
	_, _, err := runCmd(t, "ls")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	base := buildTree(t)

	stdout, _, err := runCmd(t, "--base", base, "verify")
	require.NoError(t, err)
	assert.Contains(t, stdout, "files: 5 (legacy: 0)")
	assert.Regexp(t, `person\s+2`, stdout)
	assert.Regexp(t, `place\s+1`, stdout)

	stdout, _, err = runCmd(t, "--base", base, "verify", "-o", "json")
	require.NoError(t, err)
	var report verifyReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, map[string]int{"person": 2, "place": 1}, report.Records)
	assert.Equal(t, map[string]int{"sys1": 1}, report.CollectedTerms)
	assert.Equal(t, 1, report.LinkLists)
}

func TestVerify_CorruptTree(t *testing.T) {
	base := buildTree(t)
	testutil.WritePlain(t, filepath.Join(base, "sys3", "person_sys3.json"), "{broken")

	_, _, err := runCmd(t, "--base", base, "verify")
	assert.ErrorIs(t, err, diskstorage.ErrCorruptPartition)
}

func TestVerify_JSONLog(t *testing.T) {
	base := buildTree(t)
	_, stderr, err := runCmd(t, "--base", base, "--log-format", "json", "--log-level", "debug", "verify")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"recovery completed"`)
}

func TestVerify_InvalidLogLevel(t *testing.T) {
	_, _, err := runCmd(t, "--base", t.TempDir(), "--log-level", "chatty", "verify")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestVerify_MetricsServer(t *testing.T) {
	base := buildTree(t)
	_, _, err := runCmd(t, "--base", base, "--metrics-addr", "127.0.0.1:0", "verify")
	require.NoError(t, err)
	assert.Nil(t, metricsServer)
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	base := buildTree(t)
	path := writeConfig(t, fmt.Sprintf("base: %s\nstorage:\n  recovery_workers: 3\n", filepath.Join(t.TempDir(), "missing")))

	_, _, err := runCmd(t, "--config", path, "verify")
	assert.ErrorIs(t, err, diskstorage.ErrIO)

	_, _, err = runCmd(t, "--config", path, "--base", base, "verify")
	assert.NoError(t, err)
}

func TestCat(t *testing.T) {
	base := buildTree(t)
	file := filepath.Join(base, "sys1", "person_sys1.json.gz")

	stdout, _, err := runCmd(t, "cat", file)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "recordList", doc["name"])
	assert.Contains(t, stdout, "\n  ")

	stdout, _, err = runCmd(t, "cat", file, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: recordList")
	assert.Contains(t, stdout, "value: Anna")

	_, _, err = runCmd(t, "cat", filepath.Join(base, "nope.json.gz"))
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	base := t.TempDir()
	testutil.WritePlain(t, filepath.Join(base, "sys1", "person_sys1.json"),
		`{"name":"recordList","children":[{"name":"person","children":[{"name":"recordInfo","children":[{"name":"id","value":"p1"}]}]}]}`)

	stdout, _, err := runCmd(t, "--base", base, "migrate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "migrated 1 file(s)")
	assert.Equal(t, []string{"sys1/person_sys1.json.gz"}, testutil.Files(t, base))
}

func TestBackup_Dir(t *testing.T) {
	base := buildTree(t)
	target := t.TempDir()
	path := writeConfig(t, fmt.Sprintf("base: %s\nbackup:\n  kind: dir\n  dir: %s\n", base, target))

	stdout, _, err := runCmd(t, "--config", path, "backup")
	require.NoError(t, err)
	assert.Contains(t, stdout, "uploaded 5 file(s)")
	assert.Equal(t, testutil.Files(t, base), testutil.Files(t, target))
}

func TestBackup_Misconfigured(t *testing.T) {
	base := buildTree(t)
	for name, content := range map[string]string{
		"no kind":      "",
		"unknown kind": "backup:\n  kind: tape\n",
		"dir missing":  "backup:\n  kind: dir\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, fmt.Sprintf("base: %s\n%s", base, content))
			_, _, err := runCmd(t, "--config", path, "backup")
			assert.Error(t, err)
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "diskstorage dev")
}
