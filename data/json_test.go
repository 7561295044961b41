package data

import (
	"testing"

	"github.com/olovm/cora-diskstorage/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Serialize(t *testing.T) {
	list := NewGroup("recordList")
	list.AddChild(newPerson("p1"))

	b, err := NewConverter(nil).Serialize(list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"recordList","children":[
		{"name":"person","children":[
			{"name":"recordInfo","children":[
				{"name":"id","value":"p1"},
				{"name":"type","value":"person"}]},
			{"name":"name","value":"Anna","repeatId":"0"}]}]}`, string(b))
}

func TestConverter_EmptyGroupKeepsChildrenArray(t *testing.T) {
	b, err := NewConverter(codec.JSON{}).Serialize(NewGroup("linkLists"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"linkLists","children":[]}`, string(b))
}

func TestConverter_RoundTrip(t *testing.T) {
	g := newPerson("p1")
	g.AddAttribute("lang", "sv")
	g.SetRepeatID("7")

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			conv := NewConverter(c)
			b, err := conv.Serialize(g)
			require.NoError(t, err)

			back, err := conv.Parse(b)
			require.NoError(t, err)
			assert.Equal(t, g, back)
		})
	}
}

func TestConverter_ParseErrors(t *testing.T) {
	conv := NewConverter(nil)

	tests := []struct {
		name string
		text string
	}{
		{"invalid json", `{"name":`},
		{"atomic root", `{"name":"id","value":"p1"}`},
		{"missing name", `{"children":[]}`},
		{"value and children", `{"name":"x","value":"v","children":[{"name":"y","value":"z"}]}`},
		{"nested missing name", `{"name":"x","children":[{"value":"z"}]}`},
		{"non-string value", `{"name":"x","children":[{"name":"y","value":5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conv.Parse([]byte(tt.text))
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestConverter_SerializeNil(t *testing.T) {
	_, err := NewConverter(nil).Serialize(nil)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}
