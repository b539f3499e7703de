package docs

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/domain/forecast"
	"forecast-backend/domain/versioning"
	pkgerrors "forecast-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func testSetup(t *testing.T) (*appversioning.Registry, *query.Constraints) {
	t.Helper()
	v7 := versioning.New(7, 0)
	v8 := versioning.New(8, 0)

	registry, err := appversioning.NewRegistry(
		appversioning.HandlerDescriptor{Version: v7, Deprecated: true, Variant: query.Variant{Name: "standard"}},
		appversioning.HandlerDescriptor{Version: v8, Variant: query.Variant{Name: "rewrite"}},
	)
	require.NoError(t, err)

	constraints, err := query.NewConstraints(4, map[versioning.APIVersion][]query.DirectiveKind{
		v8: {query.DirectiveTop, query.DirectiveFilter},
	}, nil)
	require.NoError(t, err)
	return registry, constraints
}

func parameterNames(t *testing.T, doc map[string]interface{}) []string {
	t.Helper()
	paths := doc["paths"].(map[string]interface{})
	get := paths["/weatherforecast"].(map[string]interface{})["get"].(map[string]interface{})
	var names []string
	for _, p := range get["parameters"].([]interface{}) {
		names = append(names, p.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestBuild(t *testing.T) {
	registry, constraints := testSetup(t)
	descriptors := registry.Descriptors()

	t.Run("Should document only allowed directives", func(t *testing.T) {
		tmpl, err := Build(descriptors[1], constraints)
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(tmpl), &doc))
		assert.Equal(t, []string{"$filter", "$top"}, parameterNames(t, doc))
	})

	t.Run("Should document every directive for a version without restrictions", func(t *testing.T) {
		tmpl, err := Build(descriptors[0], constraints)
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(tmpl), &doc))
		assert.Len(t, parameterNames(t, doc), len(query.AllDirectives()))
	})

	t.Run("Should describe every model field", func(t *testing.T) {
		tmpl, err := Build(descriptors[0], constraints)
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(tmpl), &doc))
		defs := doc["definitions"].(map[string]interface{})
		require.Len(t, defs, len(models))

		for _, m := range models {
			typ := reflect.TypeOf(m)
			def, ok := defs["docs."+typ.Name()].(map[string]interface{})
			require.True(t, ok, typ.Name())
			props := def["properties"].(map[string]interface{})

			var names []string
			for i := 0; i < typ.NumField(); i++ {
				names = append(names, strings.Split(typ.Field(i).Tag.Get("json"), ",")[0])
			}
			assert.ElementsMatch(t, names, keys(props), typ.Name())
		}
	})

	t.Run("Should match the forecast schema", func(t *testing.T) {
		props := schemaOf(reflect.TypeOf(WeatherForecast{}))["properties"].(map[string]interface{})
		assert.ElementsMatch(t, forecast.FieldNames(), keys(props))
		assert.Equal(t, "date-time", props["date"].(map[string]interface{})["format"])
		assert.Equal(t, true, props["summary"].(map[string]interface{})["x-nullable"])
		assert.Equal(t, 21, props["temperatureCelsius"].(map[string]interface{})["example"])

		counted := schemaOf(reflect.TypeOf(CountedForecasts{}))["properties"].(map[string]interface{})
		assert.Equal(t, arrayOf("docs.WeatherForecast"), counted["items"])
	})

	t.Run("Should list every error kind", func(t *testing.T) {
		props := schemaOf(reflect.TypeOf(ErrorResponse{}))["properties"].(map[string]interface{})
		enum := props["errorKind"].(map[string]interface{})["enum"]
		assert.ElementsMatch(t, []string{
			string(pkgerrors.ErrorTypeUnresolvedVersion),
			string(pkgerrors.ErrorTypeMalformedQuery),
			string(pkgerrors.ErrorTypeUnknownField),
			string(pkgerrors.ErrorTypeInvalidFilterExpression),
			string(pkgerrors.ErrorTypeNotFound),
			string(pkgerrors.ErrorTypeInternal),
		}, enum)
	})
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRegister(t *testing.T) {
	registry, constraints := testSetup(t)

	groups, err := Register(registry, constraints)
	require.NoError(t, err)
	assert.Equal(t, []string{"v7", "v8"}, groups)

	// A second registration keeps the first documents.
	_, err = Register(registry, constraints)
	require.NoError(t, err)

	doc, err := swag.ReadDoc("v7")
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	info := parsed["info"].(map[string]interface{})
	assert.Equal(t, Title, info["title"])
	assert.Equal(t, "7.0", info["version"])
	assert.Contains(t, info["description"], "deprecated")
	assert.Equal(t, "/api/v7", parsed["basePath"])
}
