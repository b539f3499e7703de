package query

import (
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"forecast-backend/domain/forecast"
	pkgerrors "forecast-backend/pkg/errors"
)

// Parser turns a raw query string into a DirectiveSet. It holds no state
// beyond its configuration, so parsing the same string always yields the
// same result.
type Parser struct {
	unsupported map[string]struct{}
}

// NewParser creates a parser. Keys listed in unsupportedKeys (with or without
// "$") are rejected instead of ignored.
func NewParser(unsupportedKeys ...string) *Parser {
	p := &Parser{unsupported: make(map[string]struct{}, len(unsupportedKeys))}
	for _, k := range unsupportedKeys {
		p.unsupported[normalizeKey(k)] = struct{}{}
	}
	return p
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(k), "$"))
}

// Parse reads the directives from raw. A leading "?" is ignored.
func (p *Parser) Parse(raw string) (DirectiveSet, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return DirectiveSet{}, pkgerrors.NewMalformedQueryError("", "query string could not be decoded").WithCause(err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	found := make(map[DirectiveKind]string, len(directiveKinds))
	for _, key := range keys {
		kind, ok := ParseDirectiveKind(key)
		if !ok {
			if _, rejected := p.unsupported[normalizeKey(key)]; rejected {
				return DirectiveSet{}, pkgerrors.NewMalformedQueryError(key, "query option '%s' is not supported by this api version", key)
			}
			continue
		}
		if _, dup := found[kind]; dup || len(values[key]) > 1 {
			return DirectiveSet{}, pkgerrors.NewMalformedQueryError(kind.Param(), "query option '%s' was specified more than once", kind.Param())
		}
		found[kind] = values[key][0]
	}

	var set DirectiveSet
	for _, kind := range directiveKinds {
		value, ok := found[kind]
		if !ok {
			continue
		}
		switch kind {
		case DirectiveSelect:
			set.Select, err = parseSelect(value)
		case DirectiveFilter:
			set.Filter, err = ParseFilter(value)
		case DirectiveOrderBy:
			set.OrderBy, err = parseOrderBy(value)
		case DirectiveTop:
			set.Top, err = parseNonNegative(kind, value)
		case DirectiveSkip:
			set.Skip, err = parseNonNegative(kind, value)
		case DirectiveCount:
			set.Count, err = parseCount(value)
		}
		if err != nil {
			return DirectiveSet{}, err
		}
	}
	return set, nil
}

func parseSelect(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, pkgerrors.NewMalformedQueryError(DirectiveSelect.Param(), "$select requires at least one field")
	}

	var names []string
	seen := make(map[string]bool)
	all := false
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		switch item {
		case "":
			return nil, pkgerrors.NewMalformedQueryError(DirectiveSelect.Param(), "$select contains an empty item")
		case "*":
			all = true
			continue
		}
		field, ok := forecast.LookupField(item)
		if !ok {
			return nil, pkgerrors.NewUnknownFieldError(item)
		}
		if !seen[field.Name] {
			seen[field.Name] = true
			names = append(names, field.Name)
		}
	}
	if all {
		return nil, nil
	}
	return names, nil
}

func parseOrderBy(value string) ([]OrderClause, error) {
	if strings.TrimSpace(value) == "" {
		return nil, pkgerrors.NewMalformedQueryError(DirectiveOrderBy.Param(), "$orderby requires at least one field")
	}

	var clauses []OrderClause
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		parts := strings.Fields(item)
		if len(parts) == 0 || len(parts) > 2 {
			return nil, pkgerrors.NewMalformedQueryError(DirectiveOrderBy.Param(), "invalid $orderby item '%s'", strings.TrimSpace(item))
		}

		field, ok := forecast.LookupField(parts[0])
		if !ok {
			return nil, pkgerrors.NewUnknownFieldError(parts[0])
		}

		dir := Ascending
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				dir = Descending
			default:
				return nil, pkgerrors.NewMalformedQueryError(DirectiveOrderBy.Param(), "invalid sort direction '%s'", parts[1])
			}
		}

		if seen[field.Name] {
			return nil, pkgerrors.NewMalformedQueryError(DirectiveOrderBy.Param(), "field '%s' appears more than once in $orderby", field.Name)
		}
		seen[field.Name] = true
		clauses = append(clauses, OrderClause{Field: field.Name, Direction: dir})
	}
	return clauses, nil
}

func parseNonNegative(kind DirectiveKind, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.IndexFunc(value, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return nil, pkgerrors.NewMalformedQueryError(kind.Param(), "%s must be a non-negative integer, got '%s'", kind.Param(), value)
	}
	n, err := strconv.Atoi(value)
	if errors.Is(err, strconv.ErrRange) {
		// Digits only, so the value is just too large. Saturate and let policy clamp it.
		n, err = math.MaxInt, nil
	}
	if err != nil {
		return nil, pkgerrors.NewMalformedQueryError(kind.Param(), "%s must be a non-negative integer, got '%s'", kind.Param(), value).WithCause(err)
	}
	return intPtr(n), nil
}

func parseCount(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, pkgerrors.NewMalformedQueryError(DirectiveCount.Param(), "$count must be true or false, got '%s'", value)
}
