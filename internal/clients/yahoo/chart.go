package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// chartResponse is the v8 chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string  `json:"symbol"`
		Currency             string  `json:"currency"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		Range                string  `json:"range"`
		DataGranularity      string  `json:"dataGranularity"`
		ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote carries the OHLCV columns. Entries may be null for rows the
// exchange has no trade for, hence pointers.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// History fetches chart history for a single symbol
func (c *Client) History(ctx context.Context, symbol string, query models.ProviderQuery) (*models.RawSeries, error) {
	params := url.Values{}
	params.Set("range", query.Period)
	params.Set("interval", query.Interval)
	params.Set("includePrePost", "true")
	params.Set("events", "div,split")

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s (%s)", symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	raw := &models.RawSeries{
		Timestamps: result.Timestamp,
	}
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		raw.Open = quote.Open
		raw.High = quote.High
		raw.Low = quote.Low
		raw.Close = quote.Close
		raw.Volume = quote.Volume
	}

	c.logger.Debug().
		Str("symbol", symbol).
		Str("range", query.Period).
		Str("interval", query.Interval).
		Int("points", len(raw.Timestamps)).
		Msg("Yahoo chart history fetched")

	return raw, nil
}
