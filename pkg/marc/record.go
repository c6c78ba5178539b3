// Package marc provides the MARC bibliographic record model, a per-record
// field index, and codecs for binary MARC (ISO 2709) and MARC-in-JSON.
package marc

import "strings"

// ControlTagMax is the highest tag treated as a control field. Control
// fields ("001" through "009") carry flat positional data instead of
// indicators and subfields.
const ControlTagMax = "009"

// DefaultLeader is the leader used for records built without one. Length
// and base-address positions are recomputed on binary encoding.
const DefaultLeader = "00000nam a2200000 a 4500"

// LeaderLen is the fixed byte length of a MARC leader.
const LeaderLen = 24

// Subfield is one coded value inside a variable field.
type Subfield struct {
	Code  string
	Value string
}

// Field is one tagged unit of data in a Record. Control fields carry
// Data; variable fields carry Indicators and Subfields.
type Field struct {
	Tag        string
	Data       string
	Indicators [2]string
	Subfields  []Subfield
}

// IsControl reports whether the field is a control field (tag 001-009).
func (f *Field) IsControl() bool {
	return f.Tag <= ControlTagMax
}

// Value returns the field's effective value: the flat data for control
// fields, otherwise all subfield values joined with a single space.
func (f *Field) Value() string {
	if f.Data != "" || f.IsControl() {
		return f.Data
	}

	vals := make([]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		vals = append(vals, sf.Value)
	}

	return strings.Join(vals, " ")
}

// SubfieldValues returns the values of subfields whose code is in codes,
// in field order. An empty codes set selects nothing.
func (f *Field) SubfieldValues(codes ...string) []string {
	var vals []string

	for _, sf := range f.Subfields {
		for _, code := range codes {
			if sf.Code == code {
				vals = append(vals, sf.Value)

				break
			}
		}
	}

	return vals
}

// Record is one bibliographic unit: a leader plus an ordered field list.
// The sift engine treats records as immutable once read.
type Record struct {
	Leader string
	Fields []*Field
}

// NewRecord returns an empty record with the default leader.
func NewRecord() *Record {
	return &Record{Leader: DefaultLeader}
}

// AddField appends fields to the record, preserving order.
func (r *Record) AddField(fields ...*Field) {
	r.Fields = append(r.Fields, fields...)
}

// GetFields returns all fields with the given tag, in record order.
func (r *Record) GetFields(tag string) []*Field {
	var out []*Field

	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}

	return out
}

// ControlField returns the data of the first field with the given tag,
// or the empty string when the tag is absent.
func (r *Record) ControlField(tag string) string {
	for _, f := range r.Fields {
		if f.Tag == tag {
			return f.Data
		}
	}

	return ""
}
