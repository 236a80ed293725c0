// Package models defines data structures for Stockdeck
package models

// ProviderQuery carries the provider-facing period and interval codes derived
// from a user-facing time-range token. One query is computed per request and
// shared by every symbol, so live and synthetic data for the same request use
// the same granularity.
type ProviderQuery struct {
	Period   string
	Interval string
}

// Data source markers for a SymbolSeries.
const (
	SourceLive      = "live"
	SourceSynthetic = "synthetic"
)

// RawSeries is an unnormalized per-symbol series as returned by the market
// data provider. Price and volume entries are pointers so provider nulls
// survive decoding; the normalizer drops rows with any missing field.
// Timestamps are epoch seconds.
type RawSeries struct {
	Timestamps []int64
	Open       []*float64
	High       []*float64
	Low        []*float64
	Close      []*float64
	Volume     []*int64
}

// SymbolSeries is the canonical per-symbol OHLCV payload. All five data
// sequences have equal length, ordered oldest to newest, timestamps in epoch
// milliseconds.
type SymbolSeries struct {
	Timestamps []int64   `json:"timestamps"`
	Open       []float64 `json:"open"`
	High       []float64 `json:"high"`
	Low        []float64 `json:"low"`
	Close      []float64 `json:"close"`
	Volume     []int64   `json:"volume"`
	Source     string    `json:"source"`
}

// Len returns the number of data points in the series.
func (s *SymbolSeries) Len() int {
	return len(s.Timestamps)
}

// StockDataResult maps each requested symbol token (as given) to its series.
// It always contains exactly one entry per requested symbol.
type StockDataResult map[string]*SymbolSeries
