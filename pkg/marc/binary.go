package marc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ISO 2709 structural bytes.
const (
	subfieldDelimiter = 0x1f
	fieldTerminator   = 0x1e
	recordTerminator  = 0x1d
)

// Directory entry geometry.
const (
	dirEntryLen    = 12
	dirTagLen      = 3
	dirFieldLenLen = 4
	dirOffsetLen   = 5
	leaderLengthAt = 0
	leaderBaseAt   = 12
)

var (
	// ErrBadLeader indicates a leader that is too short or carries a
	// non-numeric record length.
	ErrBadLeader = errors.New("malformed MARC leader")
	// ErrBadRecord indicates structurally invalid binary record data.
	ErrBadRecord = errors.New("malformed MARC record")
)

// EncodeBinary serializes a record as one binary MARC (ISO 2709) record.
// The leader's record-length and base-address slots are recomputed; the
// rest of the leader is written as-is, padded to 24 bytes if short.
func EncodeBinary(rec *Record) []byte {
	var dir, data bytes.Buffer

	for _, f := range rec.Fields {
		start := data.Len()
		writeFieldData(&data, f)
		data.WriteByte(fieldTerminator)
		fmt.Fprintf(&dir, "%3s%04d%05d", f.Tag, data.Len()-start, start)
	}

	baseAddr := LeaderLen + dir.Len() + 1
	recordLen := baseAddr + data.Len() + 1

	leader := []byte(padLeader(rec.Leader))
	copy(leader[leaderLengthAt:], fmt.Sprintf("%05d", recordLen))
	copy(leader[leaderBaseAt:], fmt.Sprintf("%05d", baseAddr))

	out := make([]byte, 0, recordLen)
	out = append(out, leader...)
	out = append(out, dir.Bytes()...)
	out = append(out, fieldTerminator)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)

	return out
}

func writeFieldData(buf *bytes.Buffer, f *Field) {
	if f.IsControl() {
		buf.WriteString(f.Data)

		return
	}

	buf.WriteString(indicator(f.Indicators[0]))
	buf.WriteString(indicator(f.Indicators[1]))

	for _, sf := range f.Subfields {
		buf.WriteByte(subfieldDelimiter)
		buf.WriteString(sf.Code)
		buf.WriteString(sf.Value)
	}
}

func indicator(ind string) string {
	if ind == "" {
		return " "
	}

	return ind
}

func padLeader(leader string) string {
	if len(leader) >= LeaderLen {
		return leader[:LeaderLen]
	}

	return leader + string(bytes.Repeat([]byte{' '}, LeaderLen-len(leader)))
}

// DecodeBinary parses one binary MARC record from raw. The slice must
// hold exactly one record, leader through record terminator.
func DecodeBinary(raw []byte) (*Record, error) {
	if len(raw) < LeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadLeader, len(raw))
	}

	baseAddr, err := strconv.Atoi(string(raw[leaderBaseAt : leaderBaseAt+dirOffsetLen]))
	if err != nil || baseAddr <= LeaderLen || baseAddr > len(raw) {
		return nil, fmt.Errorf("%w: bad base address", ErrBadRecord)
	}

	rec := &Record{Leader: string(raw[:LeaderLen])}
	data := raw[baseAddr:]

	dir := raw[LeaderLen : baseAddr-1]
	if len(dir)%dirEntryLen != 0 {
		return nil, fmt.Errorf("%w: directory length %d", ErrBadRecord, len(dir))
	}

	for i := 0; i < len(dir); i += dirEntryLen {
		entry := dir[i : i+dirEntryLen]
		tag := string(entry[:dirTagLen])

		fieldLen, lenErr := strconv.Atoi(string(entry[dirTagLen : dirTagLen+dirFieldLenLen]))
		start, startErr := strconv.Atoi(string(entry[dirTagLen+dirFieldLenLen:]))

		if lenErr != nil || startErr != nil || start+fieldLen > len(data) {
			return nil, fmt.Errorf("%w: directory entry for tag %s", ErrBadRecord, tag)
		}

		field, fieldErr := decodeField(tag, data[start:start+fieldLen])
		if fieldErr != nil {
			return nil, fieldErr
		}

		rec.Fields = append(rec.Fields, field)
	}

	return rec, nil
}

func decodeField(tag string, raw []byte) (*Field, error) {
	raw = bytes.TrimSuffix(raw, []byte{fieldTerminator})
	field := &Field{Tag: tag}

	if field.IsControl() {
		field.Data = string(raw)

		return field, nil
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: variable field %s too short", ErrBadRecord, tag)
	}

	field.Indicators[0] = string(raw[0])
	field.Indicators[1] = string(raw[1])

	for _, chunk := range bytes.Split(raw[2:], []byte{subfieldDelimiter}) {
		if len(chunk) == 0 {
			continue
		}

		field.Subfields = append(field.Subfields, Subfield{
			Code:  string(chunk[:1]),
			Value: string(chunk[1:]),
		})
	}

	return field, nil
}

// BinaryDecoder reads consecutive binary MARC records from a stream.
type BinaryDecoder struct {
	r io.Reader
}

// NewBinaryDecoder returns a decoder reading from r.
func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{r: r}
}

// Next decodes and returns the next record. It returns io.EOF once the
// stream is exhausted.
func (d *BinaryDecoder) Next() (*Record, error) {
	lenBuf := make([]byte, dirOffsetLen)

	_, err := io.ReadFull(d.r, lenBuf)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	if err != nil {
		return nil, fmt.Errorf("read record length: %w", err)
	}

	recordLen, err := strconv.Atoi(string(lenBuf))
	if err != nil || recordLen < LeaderLen {
		return nil, fmt.Errorf("%w: record length %q", ErrBadLeader, lenBuf)
	}

	raw := make([]byte, recordLen)
	copy(raw, lenBuf)

	_, err = io.ReadFull(d.r, raw[dirOffsetLen:])
	if err != nil {
		return nil, fmt.Errorf("read record body: %w", err)
	}

	return DecodeBinary(raw)
}
