package queries

import (
	"forecast-backend/application/query"
	"forecast-backend/domain/versioning"
	pkgerrors "forecast-backend/pkg/errors"
	"forecast-backend/pkg/utils"
)

// ListForecastsQuery asks for the forecast collection of one API version.
type ListForecastsQuery struct {
	// VersionToken is the raw token from the route, query string or header. Empty means unspecified.
	VersionToken string `validate:"max=32"`
	// RawQuery is the undecoded query string carrying the directives.
	RawQuery string `validate:"max=4096"`
	// Cached selects the cacheable variant, which ignores query directives.
	Cached bool
}

// Validate validates the query
func (q ListForecastsQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return pkgerrors.NewMalformedQueryError("", "%s", err.Error())
	}
	return nil
}

// ListForecastsResult is the applied result plus what the response layer needs to describe it.
type ListForecastsResult struct {
	Version    versioning.APIVersion
	Variant    string
	Defaulted  bool
	Cached     bool
	Directives query.DirectiveSet
	Result     query.Result
}

// CountRequested reports whether the body should carry totalCount.
func (r *ListForecastsResult) CountRequested() bool {
	return r.Result.TotalCount != nil
}
