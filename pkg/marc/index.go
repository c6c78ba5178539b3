package marc

// FieldIndex caches one record's fields grouped by tag so that repeated
// predicate evaluation against the same record never rescans the raw
// field list. The dispatch engine builds one index per record and
// discards it after that record is routed.
//
// Every field appears in exactly one tag bucket and exactly once in All;
// within-bucket and overall insertion order match the record.
type FieldIndex struct {
	byTag map[string][]*Field

	// All is the flat ordered sequence of every indexed field.
	All []*Field
}

// NewFieldIndex builds an index over fields. An empty or nil input
// yields an empty index. Construction is O(len(fields)).
func NewFieldIndex(fields []*Field) *FieldIndex {
	idx := &FieldIndex{byTag: make(map[string][]*Field, len(fields))}
	idx.Add(fields...)

	return idx
}

// IndexRecord builds a FieldIndex over all fields of a record.
func IndexRecord(rec *Record) *FieldIndex {
	return NewFieldIndex(rec.Fields)
}

// Add appends fields to the index, preserving insertion order.
func (idx *FieldIndex) Add(fields ...*Field) {
	for _, f := range fields {
		idx.byTag[f.Tag] = append(idx.byTag[f.Tag], f)
	}

	idx.All = append(idx.All, fields...)
}

// Tag returns the fields cached under tag, in insertion order. Absent
// tags yield nil.
func (idx *FieldIndex) Tag(tag string) []*Field {
	return idx.byTag[tag]
}

// Len returns the total number of indexed fields.
func (idx *FieldIndex) Len() int {
	return len(idx.All)
}
