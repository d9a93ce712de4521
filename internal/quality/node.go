package quality

import (
	"encoding/json"
	"reflect"
	"sort"

	"MarketDigest/internal/model"
)

// Node is one element of a result tree.
type Node interface {
	Accept(v Visitor)
}

// Map is a keyed collection. Keys are kept sorted so walks are deterministic.
type Map struct {
	Keys   []string
	Values []Node
}

// Seq is an ordered collection.
type Seq struct {
	Items []Node
}

// Scalar is a leaf. Value is nil, a string, a bool or a float64.
type Scalar struct {
	Value any
}

func (m *Map) Accept(v Visitor)    { v.VisitMap(m) }
func (s *Seq) Accept(v Visitor)    { v.VisitSeq(s) }
func (s *Scalar) Accept(v Visitor) { v.VisitScalar(s) }

// Visitor walks a tree.
type Visitor interface {
	VisitMap(m *Map)
	VisitSeq(s *Seq)
	VisitScalar(s *Scalar)
}

// FromValue builds a tree from decoded JSON: map[string]any, []any and scalars.
// Other numeric kinds are widened to float64; unknown types become opaque scalars.
func FromValue(value any) Node {
	switch v := value.(type) {
	case nil:
		return &Scalar{}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Map{Keys: keys, Values: make([]Node, len(keys))}
		for i, k := range keys {
			m.Values[i] = FromValue(v[k])
		}
		return m
	case []any:
		s := &Seq{Items: make([]Node, len(v))}
		for i, item := range v {
			s.Items[i] = FromValue(item)
		}
		return s
	case string, bool, float64:
		return &Scalar{Value: v}
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return &Scalar{Value: v.String()}
		}
		return &Scalar{Value: f}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Scalar{Value: float64(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Scalar{Value: float64(rv.Uint())}
	case reflect.Float32:
		return &Scalar{Value: rv.Float()}
	}
	return &Scalar{Value: value}
}

// FromSnapshot builds the tree for a snapshot exactly as it serializes. Marshaling
// cannot fail for a Snapshot, so an error yields a single invalid leaf.
func FromSnapshot(snapshot *model.Snapshot) Node {
	if snapshot == nil {
		return &Scalar{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return &Scalar{}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return &Scalar{}
	}
	return FromValue(decoded)
}
