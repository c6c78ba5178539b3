// Package sift implements the single-pass multi-output dispatch engine:
// rotating batch writers, output data-set specifications, and the job
// that routes one record stream to every configured output at once.
package sift

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/bibsift/bibsift/pkg/format"
	"github.com/bibsift/bibsift/pkg/marc"
)

// lz4Extension is appended after the format extension for compressed
// batch files.
const lz4Extension = ".lz4"

// BatchWriter writes one output's records as a rotating sequence of
// size-bounded files named {base}-{NNNN}{ext}, with the sequence
// 1-based, zero-padded to four digits, and widening past 9999.
//
// The first file opens lazily on the first write; a file closes (with
// its framing suffix and footer) as soon as it holds maxPerFile
// records. Close must run on every exit path of a run so the last
// file's framing is flushed; it is idempotent.
type BatchWriter struct {
	dir        string
	base       string
	fmt        format.Format
	maxPerFile int
	compress   bool

	fileCount   int
	recordCount int
	written     int
	bytes       int64
	paths       []string

	file *os.File
	lz   *lz4.Writer
	out  io.Writer
}

// NewBatchWriter returns a writer rotating files under dir. A
// maxPerFile below 1 means unlimited records per file. With compress
// set, each file is LZ4-framed and named with a trailing ".lz4".
func NewBatchWriter(dir, base string, f format.Format, maxPerFile int, compress bool) *BatchWriter {
	if maxPerFile < 1 {
		maxPerFile = 0
	}

	return &BatchWriter{dir: dir, base: base, fmt: f, maxPerFile: maxPerFile, compress: compress}
}

// Multi reports whether files may hold more than one record, which is
// every configuration except an exact per-file cap of 1.
func (w *BatchWriter) Multi() bool {
	return w.maxPerFile != 1
}

// PathToNthFile returns the path of the nth file in the sequence.
func (w *BatchWriter) PathToNthFile(nth int) string {
	name := fmt.Sprintf("%s-%04d%s", w.base, nth, w.fmt.Extension)
	if w.compress {
		name += lz4Extension
	}

	return filepath.Join(w.dir, name)
}

// Paths returns the paths of all files opened so far, in order.
func (w *BatchWriter) Paths() []string {
	return w.paths
}

// FileCount returns the number of files opened so far.
func (w *BatchWriter) FileCount() int {
	return w.fileCount
}

// Written returns the total number of records written across all files.
func (w *BatchWriter) Written() int {
	return w.written
}

// Bytes returns the total serialized payload bytes written, before
// compression.
func (w *BatchWriter) Bytes() int64 {
	return w.bytes
}

// Write serializes one record into the current file, opening the next
// file in the sequence if none is open and rotating once the per-file
// cap is reached.
func (w *BatchWriter) Write(rec *marc.Record) error {
	if w.file == nil {
		if err := w.openNext(); err != nil {
			return err
		}
	}

	if w.recordCount > 0 && w.Multi() {
		if err := w.push(w.fmt.MultiSeparator); err != nil {
			return err
		}
	}

	data, err := w.fmt.Serialize(rec)
	if err != nil {
		return fmt.Errorf("serialize record for %s: %w", w.base, err)
	}

	if err := w.push(data); err != nil {
		return err
	}

	w.recordCount++
	w.written++

	if w.maxPerFile > 0 && w.recordCount == w.maxPerFile {
		return w.Close()
	}

	return nil
}

// Close finishes the current file: multi-record suffix (when multi),
// footer, flush, handle release. Calling it with no open file is a
// no-op, so closing an already-closed writer is safe.
func (w *BatchWriter) Close() error {
	if w.file == nil {
		return nil
	}

	if w.Multi() {
		if err := w.push(w.fmt.MultiSuffix); err != nil {
			return err
		}
	}

	if err := w.push(w.fmt.Footer); err != nil {
		return err
	}

	if w.lz != nil {
		if err := w.lz.Close(); err != nil {
			return fmt.Errorf("flush %s: %w", w.paths[len(w.paths)-1], err)
		}

		w.lz = nil
	}

	file := w.file
	w.file, w.out = nil, nil
	w.recordCount = 0

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", file.Name(), err)
	}

	return nil
}

func (w *BatchWriter) openNext() error {
	if err := w.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", w.dir, err)
	}

	w.fileCount++
	path := w.PathToNthFile(w.fileCount)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	w.file = file
	w.out = file
	w.paths = append(w.paths, path)

	if w.compress {
		w.lz = lz4.NewWriter(file)
		w.out = w.lz
	}

	if err := w.push(w.fmt.Header); err != nil {
		return err
	}

	if w.Multi() {
		return w.push(w.fmt.MultiPrefix)
	}

	return nil
}

func (w *BatchWriter) push(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	n, err := w.out.Write(data)
	w.bytes += int64(n)

	if err != nil {
		return fmt.Errorf("write %s: %w", w.paths[len(w.paths)-1], err)
	}

	return nil
}
