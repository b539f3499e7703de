package query

import (
	"bytes"
	"encoding/json"
	"sort"

	"forecast-backend/domain/forecast"
)

// Entity is one output row: either a full record or its projection, with
// fields kept in output order.
type Entity struct {
	names  []string
	values []any
}

// Get returns the value of the named field if the entity carries it.
func (e Entity) Get(name string) (any, bool) {
	for i, n := range e.names {
		if n == name {
			return e.values[i], true
		}
	}
	return nil, false
}

// Fields lists the field names the entity carries, in output order.
func (e Entity) Fields() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// MarshalJSON writes the fields as an object in output order.
func (e Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range e.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Project builds an entity from r with the given fields. Nil fields means all.
func Project(r forecast.Record, fields []string) Entity {
	if fields == nil {
		fields = forecast.FieldNames()
	}
	e := Entity{names: make([]string, 0, len(fields)), values: make([]any, 0, len(fields))}
	for _, name := range fields {
		f, ok := forecast.LookupField(name)
		if !ok {
			continue
		}
		e.names = append(e.names, f.Name)
		e.values = append(e.values, f.Value(r))
	}
	return e
}

// Result is the outcome of applying a directive set.
type Result struct {
	Items      []Entity
	TotalCount *int
}

// Apply runs the directives against records in a fixed order: filter,
// orderby, count, skip, top, select. The records slice is not modified.
func Apply(set DirectiveSet, records []forecast.Record) Result {
	rows := make([]forecast.Record, 0, len(records))
	for _, r := range records {
		if set.Filter.Matches(r) {
			rows = append(rows, r)
		}
	}

	if len(set.OrderBy) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return compareRecords(rows[i], rows[j], set.OrderBy) < 0
		})
	}

	var result Result
	if set.Count {
		result.TotalCount = intPtr(len(rows))
	}

	if set.Skip != nil {
		if *set.Skip >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[*set.Skip:]
		}
	}
	if set.Top != nil && *set.Top < len(rows) {
		rows = rows[:*set.Top]
	}

	result.Items = make([]Entity, len(rows))
	for i, r := range rows {
		result.Items[i] = Project(r, set.Select)
	}
	return result
}

// compareRecords orders by each clause in turn. Nulls sort before values.
func compareRecords(a, b forecast.Record, clauses []OrderClause) int {
	for _, c := range clauses {
		f, ok := forecast.LookupField(c.Field)
		if !ok {
			continue
		}
		va, vb := f.Value(a), f.Value(b)

		var cmp int
		switch {
		case va == nil && vb == nil:
			cmp = 0
		case va == nil:
			cmp = -1
		case vb == nil:
			cmp = 1
		default:
			cmp = forecast.CompareValues(f.Kind, va, vb)
		}

		if c.Direction == Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}
