// Package format defines the pluggable record output format contract
// consumed by the batch writer, plus the built-in binary MARC and
// MARC-in-JSON formats.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bibsift/bibsift/pkg/marc"
)

// File extensions for the built-in formats.
const (
	ExtMarc = ".mrc"
	ExtJSON = ".json"
)

const jsonIndent = "  "

// SerializeFunc converts one record to its on-file byte form. It must
// be pure and must not retain the record.
type SerializeFunc func(rec *marc.Record) ([]byte, error)

// Format describes one record output format: the file extension
// (leading dot included), whether files are binary, the per-file
// framing, and the multi-record framing applied when a file may hold
// more than one record. Formats are plain values; concrete encodings
// differ only in data, never in writer behavior.
type Format struct {
	Name      string
	Extension string
	Binary    bool

	Header []byte
	Footer []byte

	MultiPrefix    []byte
	MultiSuffix    []byte
	MultiSeparator []byte

	Serialize SerializeFunc
}

// Marc returns the raw binary MARC (ISO 2709) format.
func Marc() Format {
	return Format{
		Name:      "marc",
		Extension: ExtMarc,
		Binary:    true,
		Serialize: func(rec *marc.Record) ([]byte, error) {
			return marc.EncodeBinary(rec), nil
		},
	}
}

// JSON returns the MARC-in-JSON format. Multi-record files are wrapped
// as a JSON array. Pretty-printing indents each record and moves the
// array framing onto its own lines so the container stays valid JSON.
func JSON(pretty bool) Format {
	f := Format{
		Name:           "json",
		Extension:      ExtJSON,
		MultiPrefix:    []byte("["),
		MultiSuffix:    []byte("]"),
		MultiSeparator: []byte(","),
		Serialize:      serializeJSON,
	}

	if pretty {
		f.Name = "json-pretty"
		f.MultiPrefix = []byte("[\n")
		f.MultiSuffix = []byte("\n]")
		f.MultiSeparator = []byte(",\n")
		f.Serialize = serializeJSONPretty
	}

	return f
}

func serializeJSON(rec *marc.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	return data, nil
}

func serializeJSONPretty(rec *marc.Record) ([]byte, error) {
	data, err := serializeJSON(rec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	err = json.Indent(&buf, data, "", jsonIndent)
	if err != nil {
		return nil, fmt.Errorf("indent record: %w", err)
	}

	return buf.Bytes(), nil
}
