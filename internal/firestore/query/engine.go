// Package query implements the filter/order/paginate pipeline described in
// spec.md §4.4: it consumes a *firestorepb.StructuredQuery and a snapshot
// of documents already fetched from the store, and returns the matching
// subset in final response order.
package query

import (
	"sort"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/firestore/domain/fieldpath"
	"firestore-emulator/internal/firestore/domain/fsvalue"
	"firestore-emulator/internal/firestore/store"
)

// FieldValue resolves a dot-separated field path against a document's
// fields, descending into nested maps (spec.md §4.4 "addr.city"). The
// special path "__name__" resolves to the document's canonical name as a
// reference value. Returns (value, true) or (nil, false) if absent.
func FieldValue(doc *store.Document, fieldPath string) (*firestorepb.Value, bool) {
	if fieldPath == fieldpath.NameField {
		return fsvalue.Reference(doc.Name), true
	}
	segments := fieldpath.MustSegments(fieldPath)
	fields := doc.Fields
	for i, seg := range segments {
		v, ok := fields[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		mv := v.GetMapValue()
		if mv == nil {
			return nil, false
		}
		fields = mv.GetFields()
	}
	return nil, false
}

// Apply runs where -> orderBy -> offset -> limit over docs and returns the
// resulting slice. docs is not mutated; documents are not deep-copied again
// since the store already returned fresh copies.
func Apply(docs []*store.Document, q *firestorepb.StructuredQuery) []*store.Document {
	if q == nil {
		return docs
	}
	filtered := make([]*store.Document, 0, len(docs))
	for _, d := range docs {
		if matchesFilter(d, q.GetWhere()) {
			filtered = append(filtered, d)
		}
	}

	orderBy(filtered, q.GetOrderBy())

	offset := q.GetOffset()
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(filtered) {
		return nil
	}
	filtered = filtered[offset:]

	if q.GetLimit() != nil {
		limit := q.GetLimit().GetValue()
		if limit < 0 {
			limit = 0
		}
		if limit > 0 && int(limit) < len(filtered) {
			filtered = filtered[:limit]
		}
	}
	return filtered
}

func matchesFilter(doc *store.Document, filter *firestorepb.StructuredQuery_Filter) bool {
	if filter == nil {
		return true
	}
	switch f := filter.GetFilterType().(type) {
	case *firestorepb.StructuredQuery_Filter_CompositeFilter:
		return matchesComposite(doc, f.CompositeFilter)
	case *firestorepb.StructuredQuery_Filter_FieldFilter:
		return matchesField(doc, f.FieldFilter)
	case *firestorepb.StructuredQuery_Filter_UnaryFilter:
		return matchesUnary(doc, f.UnaryFilter)
	default:
		return true
	}
}

func matchesComposite(doc *store.Document, cf *firestorepb.StructuredQuery_CompositeFilter) bool {
	if cf == nil {
		return true
	}
	switch cf.GetOp() {
	case firestorepb.StructuredQuery_CompositeFilter_OR:
		for _, sub := range cf.GetFilters() {
			if matchesFilter(doc, sub) {
				return true
			}
		}
		return len(cf.GetFilters()) == 0
	default: // AND, or unspecified defaults to AND
		for _, sub := range cf.GetFilters() {
			if !matchesFilter(doc, sub) {
				return false
			}
		}
		return true
	}
}

func matchesField(doc *store.Document, ff *firestorepb.StructuredQuery_FieldFilter) bool {
	if ff == nil {
		return true
	}
	fieldPath := ff.GetField().GetFieldPath()
	value, present := FieldValue(doc, fieldPath)
	probe := ff.GetValue()

	switch ff.GetOp() {
	case firestorepb.StructuredQuery_FieldFilter_EQUAL:
		return present && fsvalue.Equal(value, probe)
	case firestorepb.StructuredQuery_FieldFilter_NOT_EQUAL:
		return !present || !fsvalue.Equal(value, probe)
	case firestorepb.StructuredQuery_FieldFilter_LESS_THAN:
		return present && fsvalue.Compare(value, probe) < 0
	case firestorepb.StructuredQuery_FieldFilter_LESS_THAN_OR_EQUAL:
		return present && fsvalue.Compare(value, probe) <= 0
	case firestorepb.StructuredQuery_FieldFilter_GREATER_THAN:
		return present && fsvalue.Compare(value, probe) > 0
	case firestorepb.StructuredQuery_FieldFilter_GREATER_THAN_OR_EQUAL:
		return present && fsvalue.Compare(value, probe) >= 0
	case firestorepb.StructuredQuery_FieldFilter_ARRAY_CONTAINS:
		if !present || !fsvalue.IsArray(value) {
			return false
		}
		for _, elem := range value.GetArrayValue().GetValues() {
			if fsvalue.Equal(elem, probe) {
				return true
			}
		}
		return false
	case firestorepb.StructuredQuery_FieldFilter_IN:
		if !present {
			return false
		}
		for _, candidate := range probe.GetArrayValue().GetValues() {
			if fsvalue.Equal(value, candidate) {
				return true
			}
		}
		return false
	case firestorepb.StructuredQuery_FieldFilter_NOT_IN:
		if !present {
			return true
		}
		for _, candidate := range probe.GetArrayValue().GetValues() {
			if fsvalue.Equal(value, candidate) {
				return false
			}
		}
		return true
	case firestorepb.StructuredQuery_FieldFilter_ARRAY_CONTAINS_ANY:
		if !present || !fsvalue.IsArray(value) {
			return false
		}
		for _, elem := range value.GetArrayValue().GetValues() {
			for _, candidate := range probe.GetArrayValue().GetValues() {
				if fsvalue.Equal(elem, candidate) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func matchesUnary(doc *store.Document, uf *firestorepb.StructuredQuery_UnaryFilter) bool {
	if uf == nil {
		return true
	}
	fieldPath := uf.GetField().GetFieldPath()
	value, present := FieldValue(doc, fieldPath)

	switch uf.GetOp() {
	case firestorepb.StructuredQuery_UnaryFilter_IS_NULL:
		return present && fsvalue.IsNull(value)
	case firestorepb.StructuredQuery_UnaryFilter_IS_NOT_NULL:
		return present && !fsvalue.IsNull(value)
	case firestorepb.StructuredQuery_UnaryFilter_IS_NAN:
		return present && isNaN(value)
	case firestorepb.StructuredQuery_UnaryFilter_IS_NOT_NAN:
		return present && !isNaN(value)
	default:
		return false
	}
}

func isNaN(v *firestorepb.Value) bool {
	d, ok := v.GetValueType().(*firestorepb.Value_DoubleValue)
	return ok && d.DoubleValue != d.DoubleValue
}

// orderBy stable-sorts docs in sequence over each clause; ascending when
// direction is unspecified (spec.md §4.4).
func orderBy(docs []*store.Document, clauses []*firestorepb.StructuredQuery_Order) {
	if len(clauses) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, clause := range clauses {
			fieldPath := clause.GetField().GetFieldPath()
			vi, oki := FieldValue(docs[i], fieldPath)
			vj, okj := FieldValue(docs[j], fieldPath)
			c := compareMissing(vi, oki, vj, okj)
			if c == 0 {
				continue
			}
			if clause.GetDirection() == firestorepb.StructuredQuery_DESCENDING {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareMissing(a *firestorepb.Value, aPresent bool, b *firestorepb.Value, bPresent bool) int {
	switch {
	case !aPresent && !bPresent:
		return 0
	case !aPresent:
		return -1
	case !bPresent:
		return 1
	default:
		return fsvalue.Compare(a, b)
	}
}

// CollectionIDFromFrom extracts the collection id from a StructuredQuery's
// from clause, which the wire format may send as a single-element or
// multi-entry list (spec.md §4.5 RunQuery).
func CollectionIDFromFrom(from []*firestorepb.StructuredQuery_CollectionSelector) (collectionID string, allDescendants bool) {
	if len(from) == 0 {
		return "", false
	}
	return from[0].GetCollectionId(), from[0].GetAllDescendants()
}
