// Package filter provides composable record predicates and the AND/OR
// pipeline algebra used to define output data sets.
package filter

import (
	"errors"
	"io"

	"github.com/bibsift/bibsift/pkg/marc"
)

// Func is the evaluation function backing a Predicate. It must be pure:
// idempotent, side-effect-free, and total over well-formed indices. An
// error aborts the run that triggered the evaluation.
type Func func(idx *marc.FieldIndex) (bool, error)

// Predicate is an opaque handle around a Func. Pipelines deduplicate
// predicates by handle identity, not by behavior, so the same *Predicate
// added twice collapses while two predicates built from identical
// specs remain distinct.
type Predicate struct {
	eval Func
}

// NewPredicate wraps eval in a fresh predicate handle.
func NewPredicate(eval Func) *Predicate {
	return &Predicate{eval: eval}
}

// Eval applies the predicate to a field index.
func (p *Predicate) Eval(idx *marc.FieldIndex) (bool, error) {
	return p.eval(idx)
}

// Pipeline is an immutable ordered predicate sequence with AND
// semantics: a record passes iff every predicate passes, evaluated
// left to right with short-circuit on the first failure. The zero
// value is the always-true pipeline. Combinators return new pipelines;
// the receiver is never mutated.
type Pipeline struct {
	preds []*Predicate
}

// New returns a pipeline over the given predicates, in order.
func New(preds ...*Predicate) Pipeline {
	return Pipeline{preds: append([]*Predicate(nil), preds...)}
}

// Len returns the number of predicates in the pipeline.
func (p Pipeline) Len() int {
	return len(p.preds)
}

// Add returns a copy of the pipeline with preds appended. Predicates
// already present (same handle) are skipped.
func (p Pipeline) Add(preds ...*Predicate) Pipeline {
	out := append([]*Predicate(nil), p.preds...)

	for _, pred := range preds {
		if !containsPredicate(out, pred) {
			out = append(out, pred)
		}
	}

	return Pipeline{preds: out}
}

// Intersect returns a pipeline requiring both p and other to pass:
// p's predicates followed by other's predicates not already present.
func (p Pipeline) Intersect(other Pipeline) Pipeline {
	return p.Add(other.preds...)
}

// Union returns a pipeline requiring p or other to pass. Identical
// pipelines (same predicate handles in the same order) collapse to a
// copy of p; otherwise the result is a single-predicate pipeline
// wrapping the OR, so nested unions compose without flattening.
func (p Pipeline) Union(other Pipeline) Pipeline {
	if samePredicates(p.preds, other.preds) {
		return New(p.preds...)
	}

	left, right := p, other

	return New(NewPredicate(func(idx *marc.FieldIndex) (bool, error) {
		ok, err := left.Check(idx)
		if err != nil || ok {
			return ok, err
		}

		return right.Check(idx)
	}))
}

// Check evaluates the pipeline against a field index. Predicates after
// the first false are never invoked.
func (p Pipeline) Check(idx *marc.FieldIndex) (bool, error) {
	for _, pred := range p.preds {
		ok, err := pred.Eval(idx)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// CheckRecord indexes a record and evaluates the pipeline against it.
func (p Pipeline) CheckRecord(rec *marc.Record) (bool, error) {
	return p.Check(marc.IndexRecord(rec))
}

// Run returns the records matching the pipeline, in input order.
func (p Pipeline) Run(records []*marc.Record) ([]*marc.Record, error) {
	var out []*marc.Record

	for _, rec := range records {
		ok, err := p.CheckRecord(rec)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, rec)
		}
	}

	return out, nil
}

// Filter wraps a source, yielding only records matching the pipeline.
func (p Pipeline) Filter(src marc.Source) marc.Source {
	return &filteredSource{pipeline: p, src: src}
}

type filteredSource struct {
	pipeline Pipeline
	src      marc.Source
}

func (f *filteredSource) Next() (*marc.Record, error) {
	for {
		rec, err := f.src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}

			return nil, err
		}

		ok, err := f.pipeline.CheckRecord(rec)
		if err != nil {
			return nil, err
		}

		if ok {
			return rec, nil
		}
	}
}

func containsPredicate(preds []*Predicate, pred *Predicate) bool {
	for _, p := range preds {
		if p == pred {
			return true
		}
	}

	return false
}

func samePredicates(a, b []*Predicate) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
