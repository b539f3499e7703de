package forecast

import (
	"strings"
	"time"
)

// FieldKind is the value type of a queryable field.
type FieldKind int

const (
	KindDate FieldKind = iota + 1
	KindInt
	KindString
)

func (k FieldKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Canonical field names as they appear in responses.
const (
	FieldDate         = "date"
	FieldTemperatureC = "temperatureCelsius"
	FieldTemperatureF = "temperatureFahrenheit"
	FieldSummary      = "summary"
)

// Field describes one queryable property of a Record.
type Field struct {
	Name string
	Kind FieldKind
	get  func(Record) any
}

// Value returns the field value for r, or nil when the field is null.
// Dates are time.Time, ints are int and strings are string.
func (f Field) Value(r Record) any {
	return f.get(r)
}

var fields = []Field{
	{Name: FieldDate, Kind: KindDate, get: func(r Record) any { return r.Date }},
	{Name: FieldTemperatureC, Kind: KindInt, get: func(r Record) any { return r.TemperatureC }},
	{Name: FieldTemperatureF, Kind: KindInt, get: func(r Record) any { return r.TemperatureF() }},
	{Name: FieldSummary, Kind: KindString, get: func(r Record) any {
		if r.Summary == "" {
			return nil
		}
		return r.Summary
	}},
}

var fieldIndex = func() map[string]Field {
	idx := make(map[string]Field, len(fields))
	for _, f := range fields {
		idx[strings.ToLower(f.Name)] = f
	}
	return idx
}()

// Fields returns the schema in response order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldNames returns the canonical field names in response order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// LookupField resolves a field name case-insensitively.
func LookupField(name string) (Field, bool) {
	f, ok := fieldIndex[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// CompareValues orders two non-nil values of the same kind.
func CompareValues(kind FieldKind, a, b any) int {
	switch kind {
	case KindDate:
		ta, tb := a.(time.Time), b.(time.Time)
		return ta.Compare(tb)
	case KindInt:
		ia, ib := a.(int), b.(int)
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	default:
		return strings.Compare(a.(string), b.(string))
	}
}
