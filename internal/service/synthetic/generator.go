package synthetic

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
)

// Source tags series produced by the generator.
const Source = "synthetic"

const (
	stepVolatility = 0.02
	lowerBound     = 0.5
	upperBound     = 1.5
	maxSteps       = 2000
)

var fallbackSeed = decimal.NewFromInt(100)

// Generator builds a bounded random walk that ends exactly at the seed price.
// The walk runs backwards from the seed and every value stays within
// [0.5*seed, 1.5*seed].
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a generator. A nil rnd gets a randomly seeded source.
func New(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// Series returns an ascending, non-empty series covering the window.
func (g *Generator) Series(symbol string, w repository.Window, seed decimal.Decimal) *models.Series {
	if !seed.IsPositive() {
		seed = fallbackSeed
	}
	base, _ := seed.Float64()

	steps := w.Steps()
	if steps > maxSteps {
		steps = maxSteps
	}
	step := w.End.Sub(w.Start) / time.Duration(steps)
	if step <= 0 {
		step = w.Resolution.Duration()
	}
	lo, hi := base*lowerBound, base*upperBound

	values := make([]float64, steps+1)
	values[steps] = base
	g.mu.Lock()
	for i := steps - 1; i >= 0; i-- {
		v := values[i+1] * (1 + g.rnd.NormFloat64()*stepVolatility)
		values[i] = math.Min(hi, math.Max(lo, v))
	}
	g.mu.Unlock()

	points := make([]models.Point, steps+1)
	for i := 0; i < steps; i++ {
		ts := w.End.Add(-step * time.Duration(steps-i))
		points[i] = models.Point{Time: ts.Unix(), Value: decimal.NewFromFloat(values[i]).Round(4)}
	}
	points[steps] = models.Point{Time: w.End.Unix(), Value: seed}

	return &models.Series{
		Symbol:    symbol,
		Range:     string(w.Range),
		Source:    Source,
		Simulated: true,
		Points:    points,
	}
}
