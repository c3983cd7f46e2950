package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds
const (
	KindAbsent Kind = iota
	KindScalar
	KindMapping
	KindSequence
	KindRecord
)

// Value kind names for diagnostics
const (
	KindNameAbsent   = "absent"
	KindNameScalar   = "scalar"
	KindNameMapping  = "mapping"
	KindNameSequence = "sequence"
	KindNameRecord   = "record"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return KindNameScalar
	case KindMapping:
		return KindNameMapping
	case KindSequence:
		return KindNameSequence
	case KindRecord:
		return KindNameRecord
	default:
		return KindNameAbsent
	}
}

// listSeparator joins the rendered elements of a sequence or mapping.
const listSeparator = ", "

// Record is implemented by caller types that expose named fields to tag
// lookups without being maps.
type Record interface {
	Field(name string) (any, bool)
}

// Value is a closed union over the shapes a substitution context can hold.
// The zero Value is absent.
type Value struct {
	kind     Kind
	scalar   any
	mapping  map[string]any
	sequence []any
	record   Record
}

// Absent returns the absent value.
func Absent() Value {
	return Value{}
}

// Scalar wraps a value that renders to its string form.
func Scalar(v any) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindScalar, scalar: v}
}

// Mapping wraps a string-keyed map.
func Mapping(m map[string]any) Value {
	if m == nil {
		m = map[string]any{}
	}
	return Value{kind: KindMapping, mapping: m}
}

// Sequence wraps an ordered list of values.
func Sequence(items []any) Value {
	if items == nil {
		items = []any{}
	}
	return Value{kind: KindSequence, sequence: items}
}

// RecordOf wraps a Record.
func RecordOf(r Record) Value {
	if r == nil {
		return Value{}
	}
	return Value{kind: KindRecord, record: r}
}

// FromAny converts plain Go data into a Value. Record implementations become
// records, string-keyed maps become mappings, slices and arrays become
// sequences and everything else is a scalar. A []byte is a scalar holding
// its text.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case map[string]any:
		return Mapping(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return Mapping(m)
	case []any:
		return Sequence(t)
	case []map[string]any:
		items := make([]any, len(t))
		for i, m := range t {
			items[i] = m
		}
		return Sequence(items)
	case []map[string]string:
		items := make([]any, len(t))
		for i, m := range t {
			items[i] = m
		}
		return Sequence(items)
	case []Record:
		items := make([]any, len(t))
		for i, r := range t {
			items[i] = r
		}
		return Sequence(items)
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return Sequence(items)
	case []int:
		items := make([]any, len(t))
		for i, n := range t {
			items[i] = n
		}
		return Sequence(items)
	case []float64:
		items := make([]any, len(t))
		for i, f := range t {
			items[i] = f
		}
		return Sequence(items)
	case []bool:
		items := make([]any, len(t))
		for i, b := range t {
			items[i] = b
		}
		return Sequence(items)
	case Record:
		return RecordOf(t)
	case []byte:
		return Scalar(string(t))
	default:
		return fromReflect(v)
	}
}

// fromReflect handles the container types FromAny has no direct case for,
// such as []int64, []*T or map[string]int.
func fromReflect(v any) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return Sequence(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Scalar(v)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return Mapping(m)
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{}
		}
		return Scalar(v)
	default:
		return Scalar(v)
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether v holds nothing.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// IsRecordLike reports whether v can act as a narrowed lookup scope.
func (v Value) IsRecordLike() bool {
	return v.kind == KindMapping || v.kind == KindRecord
}

// IsListLike reports whether v is a sequence or a mapping.
func (v Value) IsListLike() bool {
	return v.kind == KindSequence || v.kind == KindMapping
}

// Len returns the number of entries of a sequence or mapping, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.sequence)
	case KindMapping:
		return len(v.mapping)
	default:
		return 0
	}
}

// Elements returns the entries of a sequence in order, or the values of a
// mapping in key order.
func (v Value) Elements() []Value {
	switch v.kind {
	case KindSequence:
		out := make([]Value, len(v.sequence))
		for i, item := range v.sequence {
			out[i] = FromAny(item)
		}
		return out
	case KindMapping:
		keys := v.sortedKeys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = FromAny(v.mapping[k])
		}
		return out
	default:
		return nil
	}
}

func (v Value) sortedKeys() []string {
	keys := make([]string, 0, len(v.mapping))
	for k := range v.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field looks up a named entry. Mappings and records answer by key;
// sequences answer to decimal indexes.
func (v Value) Field(name string) (Value, bool) {
	switch v.kind {
	case KindMapping:
		raw, ok := v.mapping[name]
		if !ok {
			return Value{}, false
		}
		return FromAny(raw), true
	case KindRecord:
		raw, ok := v.record.Field(name)
		if !ok {
			return Value{}, false
		}
		return FromAny(raw), true
	case KindSequence:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= len(v.sequence) {
			return Value{}, false
		}
		return FromAny(v.sequence[idx]), true
	default:
		return Value{}, false
	}
}

// String renders v as substitution text. Sequences and mappings render as
// a comma separated listing of their entries, mappings in key order.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return scalarString(v.scalar)
	case KindSequence:
		parts := make([]string, len(v.sequence))
		for i, item := range v.sequence {
			parts[i] = FromAny(item).String()
		}
		return strings.Join(parts, listSeparator)
	case KindMapping:
		keys := v.sortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = FromAny(v.mapping[k]).String()
		}
		return strings.Join(parts, listSeparator)
	case KindRecord:
		if s, ok := v.record.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprint(v.record)
	default:
		return ""
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
