package query

import (
	"time"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-emulator/internal/firestore/domain/fieldpath"
	"firestore-emulator/internal/firestore/domain/fsvalue"
)

// ApplyFieldTransforms mutates fields in place per spec.md §4.5 Commit:
// REQUEST_TIME (and its documented synonyms 1 / REQUEST_TIME_UNSPECIFIED)
// sets the current time; Increment adds to (or creates) a numeric field;
// AppendMissingElements/RemoveAllFromArray perform array-union/array-remove.
func ApplyFieldTransforms(fields map[string]*firestorepb.Value, transforms []*firestorepb.DocumentTransform_FieldTransform, now time.Time) {
	for _, tr := range transforms {
		switch t := tr.GetTransformType().(type) {
		case *firestorepb.DocumentTransform_FieldTransform_SetToServerValue:
			if isRequestTime(t.SetToServerValue) {
				setNested(fields, tr.GetFieldPath(), fsvalue.Timestamp(timestamppb.New(now)))
			}
		case *firestorepb.DocumentTransform_FieldTransform_Increment:
			current, _ := getNested(fields, tr.GetFieldPath())
			setNested(fields, tr.GetFieldPath(), incrementValue(current, t.Increment))
		case *firestorepb.DocumentTransform_FieldTransform_AppendMissingElements:
			current, _ := getNested(fields, tr.GetFieldPath())
			setNested(fields, tr.GetFieldPath(), arrayUnion(current, t.AppendMissingElements))
		case *firestorepb.DocumentTransform_FieldTransform_RemoveAllFromArray:
			current, _ := getNested(fields, tr.GetFieldPath())
			setNested(fields, tr.GetFieldPath(), arrayRemove(current, t.RemoveAllFromArray))
		}
	}
}

// isRequestTime treats REQUEST_TIME (1) and the unspecified sentinel (0)
// as "set the server time", matching the three-way equivalence spec.md §4.5
// documents; SERVER_VALUE_UNSPECIFIED otherwise means "do nothing" in
// production Firestore but this emulator is deliberately permissive here.
func isRequestTime(sv firestorepb.DocumentTransform_ServerValue) bool {
	switch sv {
	case firestorepb.DocumentTransform_REQUEST_TIME, firestorepb.DocumentTransform_SERVER_VALUE_UNSPECIFIED:
		return true
	default:
		return false
	}
}

func incrementValue(current *firestorepb.Value, delta *firestorepb.Value) *firestorepb.Value {
	if current == nil {
		return delta
	}
	ci, ciok := current.GetValueType().(*firestorepb.Value_IntegerValue)
	di, diok := delta.GetValueType().(*firestorepb.Value_IntegerValue)
	if ciok && diok {
		return fsvalue.Int(ci.IntegerValue + di.IntegerValue)
	}
	return fsvalue.Double(numeric(current) + numeric(delta))
}

func numeric(v *firestorepb.Value) float64 {
	switch t := v.GetValueType().(type) {
	case *firestorepb.Value_IntegerValue:
		return float64(t.IntegerValue)
	case *firestorepb.Value_DoubleValue:
		return t.DoubleValue
	default:
		return 0
	}
}

func arrayUnion(current *firestorepb.Value, toAdd *firestorepb.ArrayValue) *firestorepb.Value {
	var existing []*firestorepb.Value
	if current != nil && fsvalue.IsArray(current) {
		existing = current.GetArrayValue().GetValues()
	}
	result := append([]*firestorepb.Value{}, existing...)
	for _, candidate := range toAdd.GetValues() {
		found := false
		for _, e := range existing {
			if fsvalue.Equal(e, candidate) {
				found = true
				break
			}
		}
		if !found {
			result = append(result, candidate)
		}
	}
	return fsvalue.Array(result...)
}

func arrayRemove(current *firestorepb.Value, toRemove *firestorepb.ArrayValue) *firestorepb.Value {
	if current == nil || !fsvalue.IsArray(current) {
		return fsvalue.Array()
	}
	result := make([]*firestorepb.Value, 0, len(current.GetArrayValue().GetValues()))
	for _, e := range current.GetArrayValue().GetValues() {
		remove := false
		for _, candidate := range toRemove.GetValues() {
			if fsvalue.Equal(e, candidate) {
				remove = true
				break
			}
		}
		if !remove {
			result = append(result, e)
		}
	}
	return fsvalue.Array(result...)
}

func getNested(fields map[string]*firestorepb.Value, path string) (*firestorepb.Value, bool) {
	segments := fieldpath.MustSegments(path)
	cur := fields
	for i, seg := range segments {
		v, ok := cur[seg]
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
		cur = mv.GetFields()
	}
	return nil, false
}

// setNested writes value at fieldPath, creating intermediate maps as
// needed (top-level transforms only need one segment, but nested document
// data can carry dotted transform paths too).
func setNested(fields map[string]*firestorepb.Value, path string, value *firestorepb.Value) {
	segments := fieldpath.MustSegments(path)
	cur := fields
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		v, ok := cur[seg]
		if !ok || v.GetMapValue() == nil {
			v = fsvalue.Map(nil)
			cur[seg] = v
		}
		cur = v.GetMapValue().Fields
	}
}
