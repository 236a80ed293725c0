package stockdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// basePrices holds plausible reference prices for well-known tickers.
// Symbols not listed here synthesize around defaultBasePrice.
var basePrices = map[string]float64{
	"AAPL":  175.0,
	"GOOGL": 2800.0,
	"MSFT":  340.0,
	"AMZN":  3200.0,
	"TSLA":  250.0,
	"NVDA":  450.0,
	"META":  320.0,
	"NFLX":  450.0,
	"SPY":   450.0,
	"QQQ":   380.0,
}

const (
	defaultBasePrice = 100.0

	// Random-walk parameters: slight upward drift with 2% step volatility,
	// and 0.5% intraday spread when reconstructing OHLC around each close.
	driftMean       = 0.001
	stepVolatility  = 0.02
	intraVolatility = 0.005
)

// Synthesizer produces deterministic substitute OHLCV series for symbols the
// upstream provider could not serve. The same symbol always yields the same
// series for a given point count and interval, across processes and runs.
type Synthesizer struct {
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewSynthesizer creates a synthetic series generator.
func NewSynthesizer(logger *common.Logger) *Synthesizer {
	return &Synthesizer{
		logger: logger,
		now:    time.Now,
	}
}

// Synthesize builds a substitute series for a symbol. Total function: any
// symbol string, known or not, produces a non-empty series. fromDate/toDate
// are optional ISO dates; when both parse, they size the series instead of
// the period/interval lookup.
func (g *Synthesizer) Synthesize(symbol string, query models.ProviderQuery, fromDate, toDate string) *models.SymbolSeries {
	basePrice := defaultBasePrice
	if price, ok := basePrices[strings.ToUpper(symbol)]; ok {
		basePrice = price
	}

	timestamps := g.buildTimestamps(query, fromDate, toDate)
	count := len(timestamps)

	g.logger.Info().
		Str("symbol", symbol).
		Str("period", query.Period).
		Str("interval", query.Interval).
		Int("points", count).
		Msg("Generating synthetic series")

	// Seed from the symbol itself so the walk replays identically on every
	// call. Go's built-in string hashing is randomized per process, so a
	// fixed hash function is required here.
	rng := rand.New(rand.NewSource(int64(symbolSeed(symbol))))

	closes := make([]float64, count)
	volumes := make([]int64, count)
	price := basePrice
	for i := 0; i < count; i++ {
		// Random walk with slight upward drift, clamped to keep the path
		// within half to double the base price.
		change := rng.NormFloat64()*stepVolatility + driftMean
		price *= 1 + change
		price = math.Max(price, basePrice*0.5)
		price = math.Min(price, basePrice*2.0)
		closes[i] = price

		// Heavier volume on bigger moves.
		baseVolume := 1_000_000 + int64(stepHash(symbol, i)%5_000_000)
		volumes[i] = int64(float64(baseVolume) * (1 + math.Abs(change)*10))
	}

	opens := make([]float64, count)
	highs := make([]float64, count)
	lows := make([]float64, count)
	for i, closePrice := range closes {
		open := closePrice * (1 + rng.NormFloat64()*intraVolatility)
		high := math.Max(open, closePrice) * (1 + math.Abs(rng.NormFloat64()*intraVolatility))
		low := math.Min(open, closePrice) * (1 - math.Abs(rng.NormFloat64()*intraVolatility))

		opens[i] = round2(open)
		highs[i] = round2(high)
		lows[i] = round2(low)
		closes[i] = round2(closePrice)
	}

	return &models.SymbolSeries{
		Timestamps: timestamps,
		Open:       opens,
		High:       highs,
		Low:        lows,
		Close:      closes,
		Volume:     volumes,
		Source:     models.SourceSynthetic,
	}
}

// buildTimestamps produces millisecond timestamps oldest-first. Explicit
// well-formed date bounds size the series forward from fromDate; otherwise
// the count comes from the period/interval lookup and timestamps run
// backward from now, ending at the current instant.
func (g *Synthesizer) buildTimestamps(query models.ProviderQuery, fromDate, toDate string) []int64 {
	if fromDate != "" && toDate != "" {
		if timestamps, ok := boundedTimestamps(query.Interval, fromDate, toDate); ok {
			return timestamps
		}
	}

	count := pointCount(query.Period, query.Interval)
	step := intervalStep(query.Interval)
	now := g.now()

	timestamps := make([]int64, count)
	for i := 0; i < count; i++ {
		timestamps[count-1-i] = now.Add(-time.Duration(i) * step).UnixMilli()
	}
	return timestamps
}

// boundedTimestamps sizes a series from explicit date bounds: one point per
// interval unit across the elapsed whole days, capped at a year's worth.
// Returns ok=false for bounds that fail to parse or span nothing, in which
// case the caller falls back to lookup-based sizing.
func boundedTimestamps(interval, fromDate, toDate string) ([]int64, bool) {
	from, err := parseDate(fromDate)
	if err != nil {
		return nil, false
	}
	to, err := parseDate(toDate)
	if err != nil {
		return nil, false
	}

	days := int(to.Sub(from).Hours() / 24)

	var count int
	var step time.Duration
	if interval == "1h" {
		count = min(days*24, 365*24)
		step = time.Hour
	} else {
		count = min(days, 365)
		step = 24 * time.Hour
	}
	if count <= 0 {
		return nil, false
	}

	timestamps := make([]int64, count)
	for i := 0; i < count; i++ {
		timestamps[i] = from.Add(time.Duration(i) * step).UnixMilli()
	}
	return timestamps, true
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// pointCount is the series length for a period/interval pair when no date
// bounds apply. 390 is a full trading day of minute bars (6.5 hours).
func pointCount(period, interval string) int {
	switch period {
	case "1d":
		if interval == "1m" {
			return 390
		}
		return 78
	case "5d":
		return 390
	case "1mo":
		return 30
	case "3mo":
		return 90
	case "6mo":
		return 180
	case "1y":
		return 252
	case "2y":
		return 504
	case "5y":
		return 1260
	default:
		return 30
	}
}

func intervalStep(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// symbolSeed derives the per-symbol walk seed, stable across runs.
func symbolSeed(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}

// stepHash perturbs volume per step, stable across runs.
func stepHash(symbol string, index int) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol + strconv.Itoa(index)))
	return h.Sum32()
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
