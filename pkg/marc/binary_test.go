package marc_test

import (
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibsift/bibsift/pkg/marc"
)

func sampleRecord(id int) *marc.Record {
	rec := marc.NewRecord()
	rec.AddField(
		&marc.Field{Tag: "001", Data: strconv.Itoa(id)},
		&marc.Field{Tag: "008", Data: "01012000s2020    xx            001 0 eng  "},
		varField("100", marc.Subfield{Code: "a", Value: "Test Author " + strconv.Itoa(id)}),
		varField("245", marc.Subfield{Code: "a", Value: "Test Title " + strconv.Itoa(id)}),
	)

	return rec
}

func TestEncodeBinary_LeaderSlots(t *testing.T) {
	t.Parallel()

	raw := marc.EncodeBinary(sampleRecord(1))

	require.GreaterOrEqual(t, len(raw), marc.LeaderLen)

	recordLen, err := strconv.Atoi(string(raw[0:5]))
	require.NoError(t, err)
	assert.Equal(t, len(raw), recordLen)

	baseAddr, err := strconv.Atoi(string(raw[12:17]))
	require.NoError(t, err)
	assert.Equal(t, byte(0x1e), raw[baseAddr-1], "directory must end with a field terminator")
	assert.Equal(t, byte(0x1d), raw[len(raw)-1], "record must end with the record terminator")
}

func TestBinaryRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleRecord(7)

	got, err := marc.DecodeBinary(marc.EncodeBinary(want))
	require.NoError(t, err)

	require.Len(t, got.Fields, len(want.Fields))

	for i, field := range want.Fields {
		assert.Equal(t, field.Tag, got.Fields[i].Tag)
		assert.Equal(t, field.Data, got.Fields[i].Data)
		assert.Equal(t, field.Subfields, got.Fields[i].Subfields)

		if !field.IsControl() {
			assert.Equal(t, field.Indicators, got.Fields[i].Indicators)
		}
	}
}

func TestDecodeBinary_TooShort(t *testing.T) {
	t.Parallel()

	_, err := marc.DecodeBinary([]byte("0012"))
	assert.ErrorIs(t, err, marc.ErrBadLeader)
}

func TestDecodeBinary_BadBaseAddress(t *testing.T) {
	t.Parallel()

	raw := marc.EncodeBinary(sampleRecord(1))
	copy(raw[12:17], "xxxxx")

	_, err := marc.DecodeBinary(raw)
	assert.ErrorIs(t, err, marc.ErrBadRecord)
}

func TestDecodeBinary_BaseAddressInsideLeader(t *testing.T) {
	t.Parallel()

	// A base address at or below the leader length leaves no room for
	// the directory terminator; the record is malformed, not a crash.
	for _, slot := range []string{"00000", "00012", "00024"} {
		raw := marc.EncodeBinary(sampleRecord(1))
		copy(raw[12:17], slot)

		_, err := marc.DecodeBinary(raw)
		assert.ErrorIs(t, err, marc.ErrBadRecord, "base address %s", slot)
	}
}

func TestBinaryDecoder_Stream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(marc.EncodeBinary(sampleRecord(0)))
	buf.Write(marc.EncodeBinary(sampleRecord(1)))

	dec := marc.NewBinaryDecoder(&buf)

	first, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "0", first.ControlField("001"))

	second, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", second.ControlField("001"))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBinaryDecoder_Garbage(t *testing.T) {
	t.Parallel()

	dec := marc.NewBinaryDecoder(bytes.NewReader([]byte("nonsense data")))

	_, err := dec.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
