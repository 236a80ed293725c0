package yahoo

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// DownloadBulk fetches chart history for multiple symbols in one call. The
// fetches fan out in parallel bounded by the client's concurrency limit.
// Per-symbol failures are tolerated: the returned map carries only the
// symbols that produced data. An error is returned only when every symbol
// failed, so callers can distinguish "provider down" from "some symbols bad".
func (c *Client) DownloadBulk(ctx context.Context, symbols []string, query models.ProviderQuery) (map[string]*models.RawSeries, error) {
	results := make(map[string]*models.RawSeries, len(symbols))
	if len(symbols) == 0 {
		return results, nil
	}

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			series, err := c.History(ctx, symbol, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
				return
			}
			results[symbol] = series
		}(symbol)
	}

	wg.Wait()

	if len(results) == 0 && len(errs) > 0 {
		c.logger.Warn().Int("symbols", len(symbols)).Msg("bulk download failed for every symbol")
		return nil, fmt.Errorf("bulk download failed for all %d symbols: %w", len(symbols), errs[0])
	}
	if len(errs) > 0 {
		c.logger.Debug().Int("failed", len(errs)).Int("fetched", len(results)).Msg("bulk download completed with partial failures")
	}

	return results, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
