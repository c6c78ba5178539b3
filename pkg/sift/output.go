package sift

import (
	"github.com/bibsift/bibsift/pkg/filter"
	"github.com/bibsift/bibsift/pkg/format"
)

// Output specifies one named data set: which records it collects, how
// they are formatted, and how many it takes at most. The name also
// names the output directory and file stems, so it must be unique
// within a job.
type Output struct {
	Name string

	// Pipeline selects the records belonging to this data set. The
	// zero pipeline lets everything through.
	Pipeline filter.Pipeline

	// Format overrides the job's default record format when non-nil.
	Format *format.Format

	// Limit caps the records collected. Nil defers to the job's
	// default limit; a value below 1 means unlimited.
	Limit *int

	// Compress wraps this output's files in LZ4 framing.
	Compress bool
}

// Limited is a convenience for building an Output limit.
func Limited(n int) *int {
	return &n
}
