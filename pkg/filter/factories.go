package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bibsift/bibsift/pkg/marc"
)

// Op is a comparison operator for character-position matching. For
// ordering and equality operators the comparison value is the left
// operand: OpLe with value 5 passes when 5 <= extracted. OpContains
// reverses the operands: the extracted slice is the container and the
// comparison value the member.
type Op string

// Supported comparison operators.
const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpLt       Op = "lt"
	OpLe       Op = "le"
	OpGt       Op = "gt"
	OpGe       Op = "ge"
	OpContains Op = "contains"
)

// ErrUnknownOp indicates an unrecognized comparison operator name.
var ErrUnknownOp = errors.New("unknown comparison operator")

// ParseOp parses an operator name, case-insensitively.
func ParseOp(name string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(name)))

	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpContains:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}
}

// ParseTags parses a tag selector into a sorted, deduplicated tag set.
// Each element may itself be a comma-separated list; elements are
// trimmed, so "008, 020" and []string{"008", "020"} are equivalent.
func ParseTags(specs ...string) []string {
	seen := make(map[string]struct{})

	for _, spec := range specs {
		for _, tag := range strings.Split(spec, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}

	sort.Strings(tags)

	return tags
}

// CharPosition configures a character-position predicate: for every
// field under every selected tag, candidate strings are sliced to the
// inclusive zero-indexed [Start, End] range and compared against Value.
// The first match across all candidates wins.
//
// Candidates per field: the flat data when present, else the selected
// Subfields, else all subfield values. Subfield selectors are single
// codes; "abc" and []string{"a","b","c"} select the same codes.
type CharPosition struct {
	Tags      []string
	Start     int
	End       int
	Value     string
	Op        Op
	Subfields []string

	// Numeric coerces each extracted slice to an integer before
	// comparison. A slice that does not parse is a predicate fault.
	Numeric bool
}

// ByCharPosition builds a character-position predicate from spec.
func ByCharPosition(spec CharPosition) *Predicate {
	op := spec.Op
	if op == "" {
		op = OpEq
	}

	subfields := expandSubfieldCodes(spec.Subfields)

	return NewPredicate(func(idx *marc.FieldIndex) (bool, error) {
		for _, tag := range spec.Tags {
			for _, field := range idx.Tag(tag) {
				ok, err := matchField(field, spec, op, subfields)
				if err != nil || ok {
					return ok, err
				}
			}
		}

		return false, nil
	})
}

func matchField(field *marc.Field, spec CharPosition, op Op, subfields []string) (bool, error) {
	var vals []string

	switch {
	case field.Data != "":
		vals = []string{field.Data}
	case len(subfields) > 0:
		vals = field.SubfieldValues(subfields...)
	default:
		for _, sf := range field.Subfields {
			vals = append(vals, sf.Value)
		}
	}

	for _, val := range vals {
		ok, err := compareSlice(charSlice(val, spec.Start, spec.End), spec.Value, op, spec.Numeric)
		if err != nil || ok {
			return ok, err
		}
	}

	return false, nil
}

// charSlice extracts the inclusive [start, end] character range from
// val, clamped to its bounds. Positions count characters, not bytes,
// so multi-byte values slice on rune boundaries. An inverted range
// yields the empty string.
func charSlice(val string, start, end int) string {
	runes := []rune(val)

	if start < 0 {
		start = 0
	}

	if start >= len(runes) || end < start {
		return ""
	}

	if end >= len(runes)-1 {
		return string(runes[start:])
	}

	return string(runes[start : end+1])
}

func compareSlice(extracted, value string, op Op, numeric bool) (bool, error) {
	if op == OpContains {
		return strings.Contains(extracted, value), nil
	}

	if !numeric {
		return compareOrdered(value, extracted, op), nil
	}

	want, err := strconv.Atoi(value)
	if err != nil {
		return false, fmt.Errorf("coerce comparison value %q to integer: %w", value, err)
	}

	got, err := strconv.Atoi(strings.TrimSpace(extracted))
	if err != nil {
		return false, fmt.Errorf("coerce field slice %q to integer: %w", extracted, err)
	}

	return compareOrdered(want, got, op), nil
}

// compareOrdered applies op with the comparison value as left operand.
func compareOrdered[T int | string](value, extracted T, op Op) bool {
	switch op {
	case OpEq:
		return value == extracted
	case OpNe:
		return value != extracted
	case OpLt:
		return value < extracted
	case OpLe:
		return value <= extracted
	case OpGt:
		return value > extracted
	case OpGe:
		return value >= extracted
	default:
		return false
	}
}

// expandSubfieldCodes splits multi-character selectors into single
// codes, so "abc" becomes "a", "b", "c".
func expandSubfieldCodes(specs []string) []string {
	var codes []string

	for _, spec := range specs {
		for _, r := range spec {
			codes = append(codes, string(r))
		}
	}

	return codes
}

// ByFieldExists builds a predicate passing when any field under any of
// the selected tags has a non-empty effective value. Absent tags and
// fields with empty values do not pass.
func ByFieldExists(tags []string) *Predicate {
	return NewPredicate(func(idx *marc.FieldIndex) (bool, error) {
		for _, tag := range tags {
			for _, field := range idx.Tag(tag) {
				if field.Value() != "" {
					return true, nil
				}
			}
		}

		return false, nil
	})
}
