package query

import (
	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/firestore/domain/fsvalue"
)

// Aggregation describes one aggregation function to run over a filtered
// result set, mirroring firestorepb.StructuredAggregationQuery_Aggregation
// without requiring callers to unwrap its oneof.
type Aggregation struct {
	Alias string
	Kind  AggregationKind
}

type AggregationKind int

const (
	AggregationCount AggregationKind = iota
	AggregationSum
	AggregationAvg
)

// RunAggregations computes each aggregation over matchedCount matching
// documents. count is exact; sum/avg are accepted but always return 0 and
// 0.0 respectively, a documented limitation (spec.md §4.4, §9): the engine
// does not evaluate the aggregated field's values.
func RunAggregations(matchedCount int, aggregations []Aggregation) map[string]*firestorepb.Value {
	out := make(map[string]*firestorepb.Value, len(aggregations))
	for _, agg := range aggregations {
		switch agg.Kind {
		case AggregationCount:
			out[agg.Alias] = fsvalue.Int(int64(matchedCount))
		case AggregationSum:
			out[agg.Alias] = fsvalue.Int(0)
		case AggregationAvg:
			out[agg.Alias] = fsvalue.Double(0.0)
		}
	}
	return out
}

// AggregationsFromProto adapts the wire StructuredAggregationQuery's
// aggregation list into the engine's simplified form.
func AggregationsFromProto(specs []*firestorepb.StructuredAggregationQuery_Aggregation) []Aggregation {
	out := make([]Aggregation, 0, len(specs))
	for _, s := range specs {
		agg := Aggregation{Alias: s.GetAlias()}
		switch s.GetOperator().(type) {
		case *firestorepb.StructuredAggregationQuery_Aggregation_Count_:
			agg.Kind = AggregationCount
		case *firestorepb.StructuredAggregationQuery_Aggregation_Sum_:
			agg.Kind = AggregationSum
		case *firestorepb.StructuredAggregationQuery_Aggregation_Avg_:
			agg.Kind = AggregationAvg
		default:
			agg.Kind = AggregationCount
		}
		out = append(out, agg)
	}
	return out
}
