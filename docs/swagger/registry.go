// Package docs builds and registers the OpenAPI documents served per API version.
package docs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/domain/forecast"

	"github.com/swaggo/swag"
)

// Title is the document title shared by every version.
const Title = "Weather Forecast API"

// Register builds one swagger document per registered version and registers it
// with swag under the version's group name ("v1", "v2.1"). Groups that are
// already registered are left alone. It returns the group names in version order.
func Register(registry *appversioning.Registry, constraints *query.Constraints) ([]string, error) {
	descriptors := registry.Descriptors()
	groups := make([]string, 0, len(descriptors))

	for _, d := range descriptors {
		group := d.Version.GroupName()
		groups = append(groups, group)
		if swag.GetSwagger(group) != nil {
			continue
		}

		tmpl, err := Build(d, constraints)
		if err != nil {
			return nil, fmt.Errorf("failed to build swagger document for %s: %w", group, err)
		}

		swag.Register(group, &swag.Spec{
			Version:          d.Version.String(),
			BasePath:         "/api/" + group,
			Schemes:          []string{},
			Title:            Title,
			Description:      description(d, constraints),
			InfoInstanceName: group,
			SwaggerTemplate:  tmpl,
			LeftDelim:        "{{",
			RightDelim:       "}}",
		})
	}
	return groups, nil
}

// Build renders the swagger template for one version. Info fields are template
// placeholders filled in by swag when the document is read.
func Build(d appversioning.HandlerDescriptor, constraints *query.Constraints) (string, error) {
	doc := map[string]interface{}{
		"swagger": "2.0",
		"info": map[string]interface{}{
			"title":       "{{.Title}}",
			"description": "{{escape .Description}}",
			"version":     "{{.Version}}",
		},
		"basePath": "{{.BasePath}}",
		"schemes":  []string{},
		"paths": map[string]interface{}{
			"/weatherforecast":        map[string]interface{}{"get": listOperation(d, constraints)},
			"/weatherforecast/cached": map[string]interface{}{"get": cachedOperation(d)},
		},
		"definitions": definitions(),
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func description(d appversioning.HandlerDescriptor, constraints *query.Constraints) string {
	allowed := constraints.AllowedFor(d.Version)
	names := make([]string, len(allowed))
	for i, k := range allowed {
		names[i] = k.Param()
	}
	text := fmt.Sprintf("Synthetic weather forecasts for API version %s. Query options: %s. $top is capped at %d.",
		d.Version, strings.Join(names, ", "), constraints.MaxTop())
	if d.Deprecated {
		text += " This version is deprecated."
	}
	return text
}

func listOperation(d appversioning.HandlerDescriptor, constraints *query.Constraints) map[string]interface{} {
	params := []map[string]interface{}{}
	for _, kind := range constraints.AllowedFor(d.Version) {
		params = append(params, directiveParameter(kind, constraints.MaxTop()))
	}

	return map[string]interface{}{
		"description": "Generates forecasts and applies query options in a fixed order.",
		"produces":    []string{"application/json"},
		"tags":        []string{"forecasts"},
		"summary":     "List weather forecasts",
		"deprecated":  d.Deprecated,
		"parameters":  params,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "Forecasts, wrapped with totalCount when $count=true",
				"schema":      arrayOf("docs.WeatherForecast"),
				"headers":     versionHeaders(),
			},
			"400": errorResponse("Malformed query, unknown field or invalid filter"),
			"404": errorResponse("Unresolved API version"),
		},
	}
}

func cachedOperation(d appversioning.HandlerDescriptor) map[string]interface{} {
	headers := versionHeaders()
	headers["Cache-Control"] = map[string]interface{}{"type": "string", "description": "public,max-age=60"}

	return map[string]interface{}{
		"description": "Generates forecasts and ignores query options. The page-size ceiling still applies.",
		"produces":    []string{"application/json"},
		"tags":        []string{"forecasts"},
		"summary":     "List cacheable weather forecasts",
		"deprecated":  d.Deprecated,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "Forecasts",
				"schema":      arrayOf("docs.WeatherForecast"),
				"headers":     headers,
			},
			"404": errorResponse("Unresolved API version"),
		},
	}
}

func directiveParameter(kind query.DirectiveKind, maxTop int) map[string]interface{} {
	p := map[string]interface{}{
		"name": kind.Param(),
		"in":   "query",
	}
	switch kind {
	case query.DirectiveSelect:
		p["type"] = "string"
		p["description"] = "Comma separated fields: " + strings.Join(forecast.FieldNames(), ", ")
	case query.DirectiveFilter:
		p["type"] = "string"
		p["description"] = "Filter expression, e.g. temperatureCelsius gt 10 and startswith(summary,'1.0')"
	case query.DirectiveOrderBy:
		p["type"] = "string"
		p["description"] = "Comma separated order clauses, e.g. temperatureCelsius desc"
	case query.DirectiveTop:
		p["type"] = "integer"
		p["minimum"] = 0
		p["maximum"] = maxTop
		p["description"] = fmt.Sprintf("Maximum number of items, defaults to and is capped at %d", maxTop)
	case query.DirectiveSkip:
		p["type"] = "integer"
		p["minimum"] = 0
		p["description"] = "Number of items to skip"
	case query.DirectiveCount:
		p["type"] = "boolean"
		p["description"] = "Wrap items with totalCount"
	}
	return p
}

func versionHeaders() map[string]interface{} {
	return map[string]interface{}{
		"api-supported-versions":  map[string]interface{}{"type": "string", "description": "Supported versions"},
		"api-deprecated-versions": map[string]interface{}{"type": "string", "description": "Deprecated versions"},
	}
}

func arrayOf(def string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": ref(def),
	}
}

func ref(def string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/definitions/" + def}
}

func errorResponse(desc string) map[string]interface{} {
	return map[string]interface{}{
		"description": desc,
		"schema":      ref("docs.ErrorResponse"),
	}
}

// models are the response types documented under #/definitions.
var models = []interface{}{WeatherForecast{}, CountedForecasts{}, ErrorResponse{}}

func definitionName(t reflect.Type) string {
	return "docs." + t.Name()
}

func definitions() map[string]interface{} {
	defs := make(map[string]interface{}, len(models))
	for _, m := range models {
		t := reflect.TypeOf(m)
		defs[definitionName(t)] = schemaOf(t)
	}
	return defs
}

// schemaOf describes a model struct from its json, example and enums tags.
func schemaOf(t reflect.Type) map[string]interface{} {
	props := map[string]interface{}{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		p := propertyOf(f.Type)
		if ex := f.Tag.Get("example"); ex != "" {
			p["example"] = exampleValue(p["type"], ex)
		}
		if enums := f.Tag.Get("enums"); enums != "" {
			p["enum"] = strings.Split(enums, ",")
		}
		props[name] = p
	}
	return map[string]interface{}{"type": "object", "properties": props}
}

var timeType = reflect.TypeOf(time.Time{})

func propertyOf(t reflect.Type) map[string]interface{} {
	nullable := t.Kind() == reflect.Ptr
	if nullable {
		t = t.Elem()
	}

	var p map[string]interface{}
	switch {
	case t == timeType:
		p = map[string]interface{}{"type": "string", "format": "date-time"}
	case t.Kind() == reflect.Int || t.Kind() == reflect.Int64:
		p = map[string]interface{}{"type": "integer"}
	case t.Kind() == reflect.Bool:
		p = map[string]interface{}{"type": "boolean"}
	case t.Kind() == reflect.Slice:
		p = arrayOf(definitionName(t.Elem()))
	case t.Kind() == reflect.Struct:
		p = ref(definitionName(t))
	default:
		p = map[string]interface{}{"type": "string"}
	}
	if nullable {
		p["x-nullable"] = true
	}
	return p
}

func exampleValue(typ interface{}, raw string) interface{} {
	if typ == "integer" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}
