package handlers

// This file contains OpenAPI/Swagger annotations for ForecastHandler endpoints.
// The per-version documents served at runtime are built by docs/swagger.

// ListForecasts returns synthetic forecasts shaped by query options
// @Summary List weather forecasts
// @Description Generates five forecasts and applies $filter, $orderby, $count, $skip, $top and $select in that order. Options a version does not allow are ignored.
// @Tags forecasts
// @Produce json
// @Param version path string true "API version" example:"1.0"
// @Param $select query string false "Comma separated field list" example:"date,summary"
// @Param $filter query string false "Filter expression" example:"temperatureCelsius gt 10"
// @Param $orderby query string false "Order clauses" example:"temperatureCelsius desc"
// @Param $top query int false "Maximum number of items"
// @Param $skip query int false "Number of items to skip"
// @Param $count query bool false "Wrap items with totalCount"
// @Success 200 {array} docs.WeatherForecast "Forecasts"
// @Success 200 {object} docs.CountedForecasts "Forecasts with total count"
// @Failure 400 {object} docs.ErrorResponse "Malformed query, unknown field or invalid filter"
// @Failure 404 {object} docs.ErrorResponse "Unresolved API version"
// @Header 200 {string} api-supported-versions "Supported versions"
// @Header 200 {string} api-deprecated-versions "Deprecated versions"
// @Router /api/{version}/weatherforecast [get]

// ListCachedForecasts returns forecasts without query processing
// @Summary List cacheable weather forecasts
// @Description Generates forecasts and ignores any query options apart from the page-size ceiling. The response may be cached by clients.
// @Tags forecasts
// @Produce json
// @Param version path string true "API version" example:"2.0"
// @Success 200 {array} docs.WeatherForecast "Forecasts"
// @Failure 404 {object} docs.ErrorResponse "Unresolved API version"
// @Header 200 {string} Cache-Control "public,max-age=60"
// @Router /api/{version}/weatherforecast/cached [get]
