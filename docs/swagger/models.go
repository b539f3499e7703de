package docs

import "time"

// The structs below are the single source for the #/definitions section of
// every served document.

// WeatherForecast is a full forecast entity. Projected responses carry a subset
// of these fields in $select order.
// @Description A synthetic weather forecast
type WeatherForecast struct {
	// Calendar day of the forecast, midnight UTC
	Date time.Time `json:"date" example:"2024-01-02T00:00:00Z"`

	// Temperature in degrees Celsius (-20 to 54)
	TemperatureCelsius int `json:"temperatureCelsius" example:"21"`

	// Derived temperature in degrees Fahrenheit
	TemperatureFahrenheit int `json:"temperatureFahrenheit" example:"69"`

	// Summary prefixed with the resolved version on the query endpoint
	Summary *string `json:"summary" example:"1.0Mild"`
}

// CountedForecasts is returned when $count=true.
type CountedForecasts struct {
	Items []WeatherForecast `json:"items"`

	// Number of items after $filter and before $skip and $top
	TotalCount int `json:"totalCount" example:"5"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	ErrorKind string `json:"errorKind" example:"MalformedQuery" enums:"UnresolvedVersion,MalformedQuery,UnknownField,InvalidFilterExpression,NotFound,Internal"`
	Message   string `json:"message" example:"query option '$top' must be a non-negative integer"`
	Field     string `json:"field,omitempty" example:"$top"`
	RequestID string `json:"requestId,omitempty" example:"0d6c1a4e-7d8b-4a55-9f3a-2a0c3c9f7e21"`
}
