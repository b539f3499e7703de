// Package query turns raw query strings into directive sets, enforces the
// server policy on them and applies them to a forecast sequence.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// DirectiveKind names one query directive.
type DirectiveKind string

const (
	DirectiveSelect  DirectiveKind = "select"
	DirectiveFilter  DirectiveKind = "filter"
	DirectiveOrderBy DirectiveKind = "orderby"
	DirectiveTop     DirectiveKind = "top"
	DirectiveSkip    DirectiveKind = "skip"
	DirectiveCount   DirectiveKind = "count"
)

var directiveKinds = []DirectiveKind{
	DirectiveSelect, DirectiveFilter, DirectiveOrderBy, DirectiveTop, DirectiveSkip, DirectiveCount,
}

// AllDirectives lists every directive kind in canonical order.
func AllDirectives() []DirectiveKind {
	out := make([]DirectiveKind, len(directiveKinds))
	copy(out, directiveKinds)
	return out
}

// ParseDirectiveKind accepts a kind with or without the "$" prefix.
func ParseDirectiveKind(s string) (DirectiveKind, bool) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	for _, k := range directiveKinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Param is the query-string key clients use for the directive.
func (k DirectiveKind) Param() string {
	return "$" + string(k)
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// OrderClause is one "field direction" item of $orderby.
type OrderClause struct {
	Field     string
	Direction Direction
}

// Filter is a parsed $filter predicate. Raw keeps the client text for logging.
type Filter struct {
	Raw  string
	Expr Expr
}

// DirectiveSet is the structured form of one request's query options.
// A nil Select means every field; nil Top and Skip mean the directive was absent.
type DirectiveSet struct {
	Select  []string
	Filter  *Filter
	OrderBy []OrderClause
	Top     *int
	Skip    *int
	Count   bool
}

// Has reports whether the directive is present in the set.
func (d DirectiveSet) Has(kind DirectiveKind) bool {
	switch kind {
	case DirectiveSelect:
		return d.Select != nil
	case DirectiveFilter:
		return d.Filter != nil
	case DirectiveOrderBy:
		return d.OrderBy != nil
	case DirectiveTop:
		return d.Top != nil
	case DirectiveSkip:
		return d.Skip != nil
	case DirectiveCount:
		return d.Count
	}
	return false
}

// Without returns a copy of the set with the directive removed.
func (d DirectiveSet) Without(kind DirectiveKind) DirectiveSet {
	switch kind {
	case DirectiveSelect:
		d.Select = nil
	case DirectiveFilter:
		d.Filter = nil
	case DirectiveOrderBy:
		d.OrderBy = nil
	case DirectiveTop:
		d.Top = nil
	case DirectiveSkip:
		d.Skip = nil
	case DirectiveCount:
		d.Count = false
	}
	return d
}

// Present lists the directive kinds in the set in canonical order.
func (d DirectiveSet) Present() []DirectiveKind {
	var kinds []DirectiveKind
	for _, k := range directiveKinds {
		if d.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// String renders the set back into query-string form for logs and the CLI.
func (d DirectiveSet) String() string {
	var parts []string
	if d.Select != nil {
		parts = append(parts, "$select="+strings.Join(d.Select, ","))
	}
	if d.Filter != nil {
		parts = append(parts, "$filter="+d.Filter.Raw)
	}
	if d.OrderBy != nil {
		items := make([]string, len(d.OrderBy))
		for i, c := range d.OrderBy {
			items[i] = fmt.Sprintf("%s %s", c.Field, c.Direction)
		}
		parts = append(parts, "$orderby="+strings.Join(items, ","))
	}
	if d.Top != nil {
		parts = append(parts, "$top="+strconv.Itoa(*d.Top))
	}
	if d.Skip != nil {
		parts = append(parts, "$skip="+strconv.Itoa(*d.Skip))
	}
	if d.Count {
		parts = append(parts, "$count=true")
	}
	return strings.Join(parts, "&")
}

func intPtr(v int) *int {
	return &v
}
