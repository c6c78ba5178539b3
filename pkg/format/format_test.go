package format_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibsift/bibsift/pkg/format"
	"github.com/bibsift/bibsift/pkg/marc"
)

func testRecord() *marc.Record {
	rec := marc.NewRecord()
	rec.AddField(&marc.Field{Tag: "001", Data: "42"})

	return rec
}

func TestMarcFormat(t *testing.T) {
	t.Parallel()

	f := format.Marc()

	assert.Equal(t, ".mrc", f.Extension)
	assert.True(t, f.Binary)
	assert.Empty(t, f.Header)
	assert.Empty(t, f.Footer)
	assert.Empty(t, f.MultiPrefix)
	assert.Empty(t, f.MultiSuffix)
	assert.Empty(t, f.MultiSeparator)

	rec := testRecord()

	data, err := f.Serialize(rec)
	require.NoError(t, err)
	assert.Equal(t, marc.EncodeBinary(rec), data)
}

func TestJSONFormat_Compact(t *testing.T) {
	t.Parallel()

	f := format.JSON(false)

	assert.Equal(t, ".json", f.Extension)
	assert.False(t, f.Binary)
	assert.Equal(t, []byte("["), f.MultiPrefix)
	assert.Equal(t, []byte("]"), f.MultiSuffix)
	assert.Equal(t, []byte(","), f.MultiSeparator)

	data, err := f.Serialize(testRecord())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	got := &marc.Record{}
	require.NoError(t, json.Unmarshal(data, got))
	assert.Equal(t, "42", got.ControlField("001"))
}

func TestJSONFormat_Pretty(t *testing.T) {
	t.Parallel()

	f := format.JSON(true)

	assert.Equal(t, []byte("[\n"), f.MultiPrefix)
	assert.Equal(t, []byte("\n]"), f.MultiSuffix)
	assert.Equal(t, []byte(",\n"), f.MultiSeparator)

	data, err := f.Serialize(testRecord())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n")

	got := &marc.Record{}
	require.NoError(t, json.Unmarshal(data, got))
	assert.Equal(t, "42", got.ControlField("001"))
}
