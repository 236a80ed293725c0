// Package interfaces defines service contracts for Stockdeck
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// MarketDataClient provides access to the upstream market-data provider.
type MarketDataClient interface {
	// DownloadBulk fetches chart history for multiple symbols in one call.
	// Individual symbol failures are tolerated; the returned map holds an
	// entry only for symbols that produced data. An error is returned only
	// when the request as a whole failed (every symbol errored, or the
	// provider was unreachable).
	DownloadBulk(ctx context.Context, symbols []string, query models.ProviderQuery) (map[string]*models.RawSeries, error)

	// History fetches chart history for a single symbol.
	History(ctx context.Context, symbol string, query models.ProviderQuery) (*models.RawSeries, error)
}
