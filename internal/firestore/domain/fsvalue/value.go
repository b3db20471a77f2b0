// Package fsvalue wraps the generated firestorepb.Value oneof with the
// comparison and ordering semantics spec'd for the query engine. Handlers
// and the storage engine pass *firestorepb.Value around directly; this
// package only adds the behavior protobuf doesn't give us for free.
package fsvalue

import (
	"bytes"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// typeRank orders Value variants for cross-type comparison: null < bool <
// number < timestamp < string < bytes < reference < geoPoint < array < map.
func typeRank(v *firestorepb.Value) int {
	if v == nil {
		return 0
	}
	switch v.GetValueType().(type) {
	case *firestorepb.Value_NullValue:
		return 0
	case *firestorepb.Value_BooleanValue:
		return 1
	case *firestorepb.Value_IntegerValue, *firestorepb.Value_DoubleValue:
		return 2
	case *firestorepb.Value_TimestampValue:
		return 3
	case *firestorepb.Value_StringValue:
		return 4
	case *firestorepb.Value_BytesValue:
		return 5
	case *firestorepb.Value_ReferenceValue:
		return 6
	case *firestorepb.Value_GeoPointValue:
		return 7
	case *firestorepb.Value_ArrayValue:
		return 8
	case *firestorepb.Value_MapValue:
		return 9
	default:
		return -1
	}
}

// IsNull reports whether v is the explicit null variant.
func IsNull(v *firestorepb.Value) bool {
	if v == nil {
		return false
	}
	_, ok := v.GetValueType().(*firestorepb.Value_NullValue)
	return ok
}

func asNanos(ts *timestamppb.Timestamp) int64 {
	if ts == nil {
		return 0
	}
	return ts.GetSeconds()*1_000_000_000 + int64(ts.GetNanos())
}

// Compare returns -1, 0, or 1 following spec order: numeric values compare
// numerically across int64/double, timestamps compare by total nanos,
// strings/bytes/references compare lexicographically, arrays compare
// element-wise, and anything else of equal rank is treated as equal (maps
// are never ordered against each other by the query engine).
func Compare(a, b *firestorepb.Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case 0: // null
		return 0
	case 1: // bool
		av, bv := a.GetBooleanValue(), b.GetBooleanValue()
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case 2: // number
		return cmpFloat(numericValue(a), numericValue(b))
	case 3: // timestamp
		return cmpInt64(asNanos(a.GetTimestampValue()), asNanos(b.GetTimestampValue()))
	case 4: // string
		return cmpString(a.GetStringValue(), b.GetStringValue())
	case 5: // bytes
		return bytes.Compare(a.GetBytesValue(), b.GetBytesValue())
	case 6: // reference
		return cmpString(a.GetReferenceValue(), b.GetReferenceValue())
	case 7: // geoPoint
		if c := cmpFloat(a.GetGeoPointValue().GetLatitude(), b.GetGeoPointValue().GetLatitude()); c != 0 {
			return c
		}
		return cmpFloat(a.GetGeoPointValue().GetLongitude(), b.GetGeoPointValue().GetLongitude())
	case 8: // array, lexicographic by element
		av, bv := a.GetArrayValue().GetValues(), b.GetArrayValue().GetValues()
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(av), len(bv))
	default: // map: no defined total order, treat as equal
		return 0
	}
}

// numericValue returns the float64 value of an int64 or double Value so
// the two can be compared on a common scale, per spec.md §4.4.
func numericValue(v *firestorepb.Value) float64 {
	switch t := v.GetValueType().(type) {
	case *firestorepb.Value_IntegerValue:
		return float64(t.IntegerValue)
	case *firestorepb.Value_DoubleValue:
		return t.DoubleValue
	default:
		return 0
	}
}

// Equal reports deep value equality, used by EQUAL/NOT_EQUAL/ARRAY_CONTAINS
// and membership tests for IN/ARRAY_CONTAINS_ANY.
func Equal(a, b *firestorepb.Value) bool {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return false
	}
	if ra == 9 { // map
		am, bm := a.GetMapValue().GetFields(), b.GetMapValue().GetFields()
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	if ra == 8 { // array
		av, bv := a.GetArrayValue().GetValues(), b.GetArrayValue().GetValues()
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return Compare(a, b) == 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clone deep-copies a Value so store reads never hand out aliased mutable
// state (spec.md §4.3 "list returns deep copies").
func Clone(v *firestorepb.Value) *firestorepb.Value {
	if v == nil {
		return nil
	}
	out := &firestorepb.Value{}
	switch t := v.GetValueType().(type) {
	case *firestorepb.Value_NullValue:
		out.ValueType = &firestorepb.Value_NullValue{NullValue: t.NullValue}
	case *firestorepb.Value_BooleanValue:
		out.ValueType = &firestorepb.Value_BooleanValue{BooleanValue: t.BooleanValue}
	case *firestorepb.Value_IntegerValue:
		out.ValueType = &firestorepb.Value_IntegerValue{IntegerValue: t.IntegerValue}
	case *firestorepb.Value_DoubleValue:
		out.ValueType = &firestorepb.Value_DoubleValue{DoubleValue: t.DoubleValue}
	case *firestorepb.Value_TimestampValue:
		out.ValueType = &firestorepb.Value_TimestampValue{TimestampValue: timestamppb.New(t.TimestampValue.AsTime())}
	case *firestorepb.Value_StringValue:
		out.ValueType = &firestorepb.Value_StringValue{StringValue: t.StringValue}
	case *firestorepb.Value_BytesValue:
		cp := make([]byte, len(t.BytesValue))
		copy(cp, t.BytesValue)
		out.ValueType = &firestorepb.Value_BytesValue{BytesValue: cp}
	case *firestorepb.Value_ReferenceValue:
		out.ValueType = &firestorepb.Value_ReferenceValue{ReferenceValue: t.ReferenceValue}
	case *firestorepb.Value_GeoPointValue:
		out.ValueType = &firestorepb.Value_GeoPointValue{GeoPointValue: &latlng.LatLng{
			Latitude:  t.GeoPointValue.GetLatitude(),
			Longitude: t.GeoPointValue.GetLongitude(),
		}}
	case *firestorepb.Value_ArrayValue:
		vals := make([]*firestorepb.Value, len(t.ArrayValue.GetValues()))
		for i, e := range t.ArrayValue.GetValues() {
			vals[i] = Clone(e)
		}
		out.ValueType = &firestorepb.Value_ArrayValue{ArrayValue: &firestorepb.ArrayValue{Values: vals}}
	case *firestorepb.Value_MapValue:
		fields := make(map[string]*firestorepb.Value, len(t.MapValue.GetFields()))
		for k, e := range t.MapValue.GetFields() {
			fields[k] = Clone(e)
		}
		out.ValueType = &firestorepb.Value_MapValue{MapValue: &firestorepb.MapValue{Fields: fields}}
	}
	return out
}

// CloneFields deep-copies a field map, used by the store on every read/write.
func CloneFields(fields map[string]*firestorepb.Value) map[string]*firestorepb.Value {
	out := make(map[string]*firestorepb.Value, len(fields))
	for k, v := range fields {
		out[k] = Clone(v)
	}
	return out
}
