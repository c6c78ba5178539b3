package marc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Source is a forward-only stream of records. Next returns io.EOF once
// the stream is exhausted; any other error is fatal to the consumer.
// Sources are never rewound.
type Source interface {
	Next() (*Record, error)
}

// SliceSource yields records from an in-memory slice.
type SliceSource struct {
	records []*Record
	pos     int
}

// NewSliceSource returns a Source over records.
func NewSliceSource(records []*Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next() (*Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}

	rec := s.records[s.pos]
	s.pos++

	return rec, nil
}

// jsonDecoder reads records from a MARC-in-JSON file: either one JSON
// array of record objects or a concatenated stream of record objects.
type jsonDecoder struct {
	dec     *json.Decoder
	inArray bool
}

func newJSONDecoder(r io.Reader, inArray bool) (*jsonDecoder, error) {
	dec := json.NewDecoder(r)

	if inArray {
		// Consume the opening bracket; elements decode one at a time.
		_, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read JSON input: %w", err)
		}
	}

	return &jsonDecoder{dec: dec, inArray: inArray}, nil
}

func (d *jsonDecoder) Next() (*Record, error) {
	if d.inArray && !d.dec.More() {
		return nil, io.EOF
	}

	rec := &Record{}

	err := d.dec.Decode(rec)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	if err != nil {
		return nil, fmt.Errorf("decode JSON record: %w", err)
	}

	return rec, nil
}

// FileSource streams records from one or more MARC files, in order.
// Each file may hold binary MARC or MARC-in-JSON; the format is sniffed
// from the first byte. Files are opened lazily and closed as they are
// exhausted.
type FileSource struct {
	paths   []string
	file    *os.File
	decoder Source
}

// NewFileSource returns a Source spanning the given files.
func NewFileSource(paths ...string) *FileSource {
	return &FileSource{paths: paths}
}

// Next returns the next record across all configured files, or io.EOF
// after the last file is exhausted.
func (s *FileSource) Next() (*Record, error) {
	for {
		if s.decoder == nil {
			if len(s.paths) == 0 {
				return nil, io.EOF
			}

			if err := s.openNext(); err != nil {
				return nil, err
			}
		}

		rec, err := s.decoder.Next()
		if errors.Is(err, io.EOF) {
			closeErr := s.file.Close()
			s.file, s.decoder = nil, nil

			if closeErr != nil {
				return nil, fmt.Errorf("close input: %w", closeErr)
			}

			continue
		}

		return rec, err
	}
}

// Close releases the currently open file, if any. Exhausting the source
// closes files as it goes; Close covers abandoning it mid-stream.
func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file, s.decoder = nil, nil

	return err
}

func (s *FileSource) openNext() error {
	path := s.paths[0]
	s.paths = s.paths[1:]

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	buffered := bufio.NewReader(file)

	first, err := buffered.Peek(1)
	if err != nil && !errors.Is(err, io.EOF) {
		file.Close()

		return fmt.Errorf("read input %s: %w", path, err)
	}

	s.file = file

	if len(first) == 1 && (first[0] == '{' || first[0] == '[') {
		dec, decErr := newJSONDecoder(buffered, first[0] == '[')
		if decErr != nil {
			file.Close()
			s.file = nil

			return decErr
		}

		s.decoder = dec

		return nil
	}

	s.decoder = NewBinaryDecoder(buffered)

	return nil
}
