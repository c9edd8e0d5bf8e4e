package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Normalize round-trips data through JSON so every driver stores and
// returns the same shapes (float64 numbers, []interface{} lists) and no
// caller-owned maps are retained.
func Normalize(data map[string]interface{}) (map[string]interface{}, error) {
	if data == nil {
		return map[string]interface{}{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Equal compares two field values the way an equality filter does.
func Equal(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// Matches reports whether doc satisfies every filter. A missing field
// never matches.
func Matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc.Field(f.Field)
		if !ok || !Equal(v, f.Value) {
			return false
		}
	}
	return true
}

// Compare orders two values: nil < bool < number < string < anything
// else. Values of the same type compare naturally.
func Compare(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return 0
}

// SortBy sorts docs in place by one field. Documents missing the field
// go last in either direction; ties keep their input order.
func SortBy(docs []Document, order Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		vi, oki := docs[i].Field(order.Field)
		vj, okj := docs[j].Field(order.Field)
		if !oki || !okj {
			return oki && !okj
		}
		c := Compare(vi, vj)
		if order.Descending {
			return c > 0
		}
		return c < 0
	})
}

// Apply evaluates q over an unordered document set in process: filters,
// then order (documents without the order field are dropped), then limit.
// The input slice is not modified.
func Apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if !Matches(d, q.Filters) {
			continue
		}
		if q.OrderBy != nil {
			if _, ok := d.Field(q.OrderBy.Field); !ok {
				continue
			}
		}
		out = append(out, d)
	}
	if q.OrderBy != nil {
		SortBy(out, *q.OrderBy)
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	return 4
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
