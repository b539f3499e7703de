package forecast

import (
	"context"
	"math/rand"
	"time"
)

// Source yields a fresh, finite sequence of records for one request.
type Source interface {
	Forecasts(ctx context.Context, summaryPrefix string) []Record
}

// RandFactory returns a new random source for each generated sequence.
type RandFactory func() *rand.Rand

// SeededRand returns a factory that always starts from seed, so every
// sequence it feeds is identical.
func SeededRand(seed int64) RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}

// TimeSeededRand returns a factory seeded from the wall clock.
func TimeSeededRand() RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Generator produces consecutive daily forecasts starting the day after now.
type Generator struct {
	count   int
	newRand RandFactory
	now     func() time.Time
}

// NewGenerator creates a generator. A nil clock means time.Now.
func NewGenerator(count int, newRand RandFactory, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	if newRand == nil {
		newRand = TimeSeededRand()
	}
	return &Generator{count: count, newRand: newRand, now: now}
}

// Forecasts implements Source.
func (g *Generator) Forecasts(_ context.Context, summaryPrefix string) []Record {
	rng := g.newRand()
	y, m, d := g.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	records := make([]Record, g.count)
	for i := range records {
		records[i] = Record{
			Date:         today.AddDate(0, 0, i+1),
			TemperatureC: rng.Intn(75) - 20,
			Summary:      summaryPrefix + Summaries[rng.Intn(len(Summaries))],
		}
	}
	return records
}
