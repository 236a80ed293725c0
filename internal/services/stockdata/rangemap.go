// Package stockdata implements the stock-data retrieval pipeline: range
// mapping, upstream fetch with per-symbol failure isolation, normalization,
// and deterministic synthetic fallback
package stockdata

import "github.com/bobmcallan/stockdeck/internal/models"

// rangeTable maps dashboard range tokens to provider period/interval pairs.
var rangeTable = map[string]models.ProviderQuery{
	"1D":  {Period: "1d", Interval: "1m"},
	"5D":  {Period: "5d", Interval: "5m"},
	"1W":  {Period: "5d", Interval: "15m"},
	"1M":  {Period: "1mo", Interval: "1h"},
	"3M":  {Period: "3mo", Interval: "1d"},
	"6M":  {Period: "6mo", Interval: "1d"},
	"1Y":  {Period: "1y", Interval: "1d"},
	"2Y":  {Period: "2y", Interval: "1d"},
	"5Y":  {Period: "5y", Interval: "1d"},
	"YTD": {Period: "ytd", Interval: "1d"},
	"MTD": {Period: "1mo", Interval: "1h"},
}

// defaultQuery covers unrecognized range tokens. Unknown tokens degrade
// silently to a month of daily bars rather than erroring.
var defaultQuery = models.ProviderQuery{Period: "1mo", Interval: "1d"}

// MapRange resolves a range token to provider query parameters. Total over
// all inputs.
func MapRange(rangeToken string) models.ProviderQuery {
	if query, ok := rangeTable[rangeToken]; ok {
		return query
	}
	return defaultQuery
}
