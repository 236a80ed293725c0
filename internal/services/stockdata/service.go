package stockdata

import (
	"context"
	"strings"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// Service implements StockDataService. The pipeline is total: every failure
// mode, from a single bad symbol to a full provider outage, resolves to
// synthetic substitution rather than an error. Callers can tell the two
// apart by the per-symbol source field.
type Service struct {
	client interfaces.MarketDataClient
	synth  *Synthesizer
	logger *common.Logger
}

// NewService creates a new stock data service.
func NewService(client interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		synth:  NewSynthesizer(logger),
		logger: logger,
	}
}

// MapRange resolves a range token to provider query parameters.
func (s *Service) MapRange(rangeToken string) models.ProviderQuery {
	return MapRange(rangeToken)
}

// GetStockData resolves a comma-separated symbol list into one series per
// symbol. Symbols are split verbatim: no trimming or dedup, so an empty
// token is fetched (and synthesized) as the empty-string symbol. One
// provider query is computed per request and shared by every symbol,
// including synthesized ones, so real and substitute data carry the same
// granularity.
func (s *Service) GetStockData(ctx context.Context, symbols, rangeToken, fromDate, toDate string) (result models.StockDataResult) {
	symbolList := strings.Split(symbols, ",")
	query := MapRange(rangeToken)

	// Last-ditch guard: a defect anywhere in the pipeline degrades to
	// all-synthetic output instead of aborting the request.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("symbols", symbols).
				Msg("Stock data pipeline failed, synthesizing all symbols")
			result = make(models.StockDataResult, len(symbolList))
			for _, symbol := range symbolList {
				result[symbol] = s.synth.Synthesize(symbol, query, fromDate, toDate)
			}
		}
	}()

	raw := s.fetchAll(ctx, symbolList, query)

	result = make(models.StockDataResult, len(symbolList))
	for _, symbol := range symbolList {
		result[symbol] = s.resolveSymbol(symbol, raw[symbol], query, fromDate, toDate)
	}
	return result
}

// fetchAll attempts the bulk download, then falls back to sequential
// per-symbol fetches when the bulk call produced nothing at all. A symbol
// absent from a non-empty bulk result is not refetched individually; it
// goes straight to synthesis downstream.
func (s *Service) fetchAll(ctx context.Context, symbols []string, query models.ProviderQuery) map[string]*models.RawSeries {
	s.logger.Debug().
		Int("symbols", len(symbols)).
		Str("period", query.Period).
		Str("interval", query.Interval).
		Msg("Attempting bulk download")

	raw, err := s.client.DownloadBulk(ctx, symbols, query)
	if err == nil && len(raw) > 0 {
		return raw
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Bulk download failed, trying symbols individually")
	}

	raw = make(map[string]*models.RawSeries, len(symbols))
	for _, symbol := range symbols {
		series, err := s.client.History(ctx, symbol, query)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Individual download failed")
			continue
		}
		raw[symbol] = series
	}
	return raw
}

// resolveSymbol normalizes one symbol's raw data, substituting a synthetic
// series when the data is missing or empty. A panic while handling one
// symbol is contained here so it cannot abort the rest of the batch.
func (s *Service) resolveSymbol(symbol string, raw *models.RawSeries, query models.ProviderQuery, fromDate, toDate string) (series *models.SymbolSeries) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("symbol", symbol).
				Msg("Recovered while normalizing symbol, synthesizing instead")
			series = s.synth.Synthesize(symbol, query, fromDate, toDate)
		}
	}()

	if series = Normalize(raw); series != nil {
		return series
	}
	return s.synth.Synthesize(symbol, query, fromDate, toDate)
}

// Ensure Service implements StockDataService
var _ interfaces.StockDataService = (*Service)(nil)
