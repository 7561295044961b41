package partition

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		filename string
		want     Name
	}{
		{"person_sys1.json.gz", Name{Category: "person", Divider: "sys1", Compressed: true}},
		{"person_sys1.json", Name{Category: "person", Divider: "sys1"}},
		{"collectedData_cora.json.gz", Name{Category: CollectedData, Divider: "cora", Compressed: true}},
		{"linkLists_cora.json", Name{Category: LinkLists, Divider: "cora"}},
		{"metadata_group_cora.json.gz", Name{Category: "metadata_group", Divider: "cora", Compressed: true}},
		{"place_sys-2.txt", Name{Category: "place", Divider: "sys-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Parse(tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, filename := range []string{
		"README",
		"person.json",
		"person_sys1",
		".DS_Store",
		"a.b_c.json",
		"_sys1.json",
		"person_.json",
	} {
		t.Run(filename, func(t *testing.T) {
			_, err := Parse(filename)
			assert.ErrorIs(t, err, ErrMalformedName)
			assert.Contains(t, err.Error(), filename)
		})
	}
}

func TestFileNameIsInverseOfParse(t *testing.T) {
	for _, compressed := range []bool{true, false} {
		name := FileName("metadata_group", "cora", compressed)
		parsed, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, Name{Category: "metadata_group", Divider: "cora", Compressed: compressed}, parsed)
		assert.Equal(t, name, parsed.FileName())
	}
}

func TestValidate(t *testing.T) {
	for _, tt := range []struct{ recordType, divider string }{
		{"person", "sys1"},
		{"metadata_group", "cora"},
		{"place", "sys-2"},
	} {
		require.NoError(t, Validate(tt.recordType, tt.divider))

		parsed, err := Parse(FileName(tt.recordType, tt.divider, true))
		require.NoError(t, err)
		assert.Equal(t, tt.recordType, parsed.Category)
		assert.Equal(t, tt.divider, parsed.Divider)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name                string
		recordType, divider string
	}{
		{"empty type", "", "sys1"},
		{"dot in type", "per.son", "sys1"},
		{"slash in type", "a/b", "sys1"},
		{"backslash in type", `a\b`, "sys1"},
		{"collectedData type", CollectedData, "sys1"},
		{"linkLists type", LinkLists, "sys1"},
		{"empty divider", "person", ""},
		{"underscore in divider", "person", "cora_sys"},
		{"dot in divider", "person", "sys.1"},
		{"parent divider", "person", ".."},
		{"slash in divider", "person", "a/b"},
		{"streams divider", "person", StreamsDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.recordType, tt.divider), ErrMalformedName)
		})
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("base", "sys1", "person_sys1.json.gz"), Path("base", "person", "sys1", true))
	assert.Equal(t, filepath.Join("base", "sys1", "person_sys1.json"), Path("base", "person", "sys1", false))
}

func TestName_Reserved(t *testing.T) {
	assert.True(t, Name{Category: CollectedData}.Reserved())
	assert.True(t, Name{Category: LinkLists}.Reserved())
	assert.False(t, Name{Category: "person"}.Reserved())
	assert.Equal(t, "person/sys1", Name{Category: "person", Divider: "sys1"}.String())
}

func TestTempFiles(t *testing.T) {
	assert.Equal(t, "person_sys1.json.gz.tmp-*", TempPattern("person_sys1.json.gz"))
	assert.True(t, IsTemp("person_sys1.json.gz.tmp-123456"))
	assert.False(t, IsTemp("person_sys1.json.gz"))
}
