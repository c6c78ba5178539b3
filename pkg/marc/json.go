package marc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonVarField is the wire shape of one variable field in MARC-in-JSON.
type jsonVarField struct {
	Subfields []map[string]string `json:"subfields"`
	Ind1      string              `json:"ind1"`
	Ind2      string              `json:"ind2"`
}

// MarshalJSON renders the record in the MARC-in-JSON shape: the leader
// plus a "fields" array of single-key objects, preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"leader":`)

	leader, err := json.Marshal(r.Leader)
	if err != nil {
		return nil, err
	}

	buf.Write(leader)
	buf.WriteString(`,"fields":[`)

	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		entry, entryErr := marshalField(f)
		if entryErr != nil {
			return nil, entryErr
		}

		buf.Write(entry)
	}

	buf.WriteString(`]}`)

	return buf.Bytes(), nil
}

func marshalField(f *Field) ([]byte, error) {
	if f.IsControl() {
		return json.Marshal(map[string]string{f.Tag: f.Data})
	}

	subfields := make([]map[string]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		subfields = append(subfields, map[string]string{sf.Code: sf.Value})
	}

	return json.Marshal(map[string]jsonVarField{f.Tag: {
		Subfields: subfields,
		Ind1:      indicator(f.Indicators[0]),
		Ind2:      indicator(f.Indicators[1]),
	}})
}

// UnmarshalJSON parses the MARC-in-JSON shape produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		Leader string            `json:"leader"`
		Fields []json.RawMessage `json:"fields"`
	}

	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}

	r.Leader = wire.Leader
	r.Fields = nil

	for _, raw := range wire.Fields {
		field, err := unmarshalField(raw)
		if err != nil {
			return err
		}

		r.Fields = append(r.Fields, field)
	}

	return nil
}

func unmarshalField(raw json.RawMessage) (*Field, error) {
	var entry map[string]json.RawMessage

	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal field: %w", err)
	}

	if len(entry) != 1 {
		return nil, fmt.Errorf("%w: field object with %d keys", ErrBadRecord, len(entry))
	}

	for tag, body := range entry {
		field := &Field{Tag: tag}

		if field.IsControl() {
			if err := json.Unmarshal(body, &field.Data); err != nil {
				return nil, fmt.Errorf("unmarshal control field %s: %w", tag, err)
			}

			return field, nil
		}

		var wire jsonVarField
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("unmarshal field %s: %w", tag, err)
		}

		field.Indicators[0] = wire.Ind1
		field.Indicators[1] = wire.Ind2

		for _, sf := range wire.Subfields {
			for code, val := range sf {
				field.Subfields = append(field.Subfields, Subfield{Code: code, Value: val})
			}
		}

		return field, nil
	}

	return nil, ErrBadRecord // unreachable, entry has one key
}
