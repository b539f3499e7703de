package query

import (
	"time"

	"forecast-backend/domain/forecast"
)

var baseDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// sampleRecords returns five consecutive days with distinct temperatures.
// The fourth record has a null summary.
func sampleRecords() []forecast.Record {
	temps := []int{10, -5, 30, 22, 0}
	summaries := []string{"Cool", "Freezing", "Hot", "", "Chilly"}
	records := make([]forecast.Record, len(temps))
	for i := range temps {
		records[i] = forecast.Record{
			Date:         baseDay.AddDate(0, 0, i),
			TemperatureC: temps[i],
			Summary:      summaries[i],
		}
	}
	return records
}

func temperatures(items []Entity) []int {
	out := make([]int, len(items))
	for i, e := range items {
		v, _ := e.Get(forecast.FieldTemperatureC)
		out[i] = v.(int)
	}
	return out
}
