// Package forecast holds the weather forecast record served by the query
// endpoint, its queryable field schema and the synthetic data source.
package forecast

import "time"

// Summaries is the vocabulary the generator draws from.
var Summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Record is a single day's forecast. An empty Summary is treated as null.
type Record struct {
	Date         time.Time
	TemperatureC int
	Summary      string
}

// TemperatureF is derived from TemperatureC and is never stored.
func (r Record) TemperatureF() int {
	return 32 + int(float64(r.TemperatureC)/0.5556)
}
