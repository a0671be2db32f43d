package repo

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
)

// sortChildren orders children per q. Both store implementations share it so
// ordering is identical regardless of backend.
func sortChildren(children []Child, q Query) {
	if q.OrderByChild == "" {
		slices.SortFunc(children, func(a, b Child) int { return cmp.Compare(a.Key, b.Key) })
		return
	}
	slices.SortStableFunc(children, func(a, b Child) int {
		if c := compareValues(a.Value[q.OrderByChild], b.Value[q.OrderByChild]); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

// filterChildren keeps the children matching q.EqualTo.
func filterChildren(children []Child, q Query) []Child {
	if q.OrderByChild == "" || q.EqualTo == nil {
		return children
	}
	want := normalizeValue(q.EqualTo)
	out := children[:0]
	for _, c := range children {
		if reflect.DeepEqual(c.Value[q.OrderByChild], want) {
			out = append(out, c)
		}
	}
	return out
}

// valueRank orders JSON types: missing/null, false, true, numbers, strings,
// then objects and arrays.
func valueRank(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 2
		}
		return 1
	case float64:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return cmp.Compare(x, b.(string))
	}
	return 0
}

// normalizeNode round-trips n through JSON so every value takes the shape a
// decoded document would have (float64 numbers, map[string]any objects).
func normalizeNode(n Node) (Node, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode node: %w", err)
	}
	var out Node
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
