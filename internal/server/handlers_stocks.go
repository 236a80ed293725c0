package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/stockdeck/internal/cache"
	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
	"github.com/bobmcallan/stockdeck/internal/services/stockdata"
)

// handleStocks serves GET /api/stocks?symbols=AAPL,MSFT&range=1M.
//
// The response maps each requested symbol to its OHLCV series. Optional
// from_date/to_date bounds shape synthetic series sizing but do not widen
// the cache key, so bounded and unbounded requests for the same symbols
// and range share a cache slot.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbols := r.URL.Query().Get("symbols")
	if symbols == "" {
		WriteError(w, http.StatusBadRequest, "symbols is required")
		return
	}
	rangeToken := r.URL.Query().Get("range")
	if rangeToken == "" {
		rangeToken = models.DefaultTimeRange
	}
	fromDate := r.URL.Query().Get("from_date")
	toDate := r.URL.Query().Get("to_date")

	ctx := r.Context()
	uid := common.ResolveUserID(ctx)

	// Recorded before the fetch so cache hits appear in the activity log.
	s.app.Activity.Record(ctx, uid, "stock_data_fetch", map[string]any{
		"symbols": symbols,
		"range":   rangeToken,
	})

	key := cache.Key(symbols, rangeToken)
	if result, ok := s.app.StockCache.Get(key); ok {
		s.logger.Debug().Str("key", key).Msg("Stock data served from cache")
		WriteJSON(w, http.StatusOK, result)
		return
	}

	result := s.app.StockData.GetStockData(ctx, symbols, rangeToken, fromDate, toDate)
	s.app.StockCache.Set(key, result, s.app.Config.Cache.GetStockTTL())

	WriteJSON(w, http.StatusOK, result)
}

// routeStocks dispatches /api/stocks/{symbol}/chart.png.
func (s *Server) routeStocks(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/stocks/")
	parts := strings.Split(rest, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] == "chart.png" {
		s.handleStockChart(w, r, parts[0])
		return
	}
	WriteError(w, http.StatusNotFound, "Not found")
}

// handleStockChart renders a single symbol's closing-price series as PNG.
func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rangeToken := r.URL.Query().Get("range")
	if rangeToken == "" {
		rangeToken = models.DefaultTimeRange
	}

	ctx := r.Context()
	key := cache.Key(symbol, rangeToken)
	result, ok := s.app.StockCache.Get(key)
	if !ok {
		result = s.app.StockData.GetStockData(ctx, symbol, rangeToken, "", "")
		s.app.StockCache.Set(key, result, s.app.Config.Cache.GetStockTTL())
	}

	series := result[symbol]
	if series == nil {
		WriteError(w, http.StatusNotFound, "No data for symbol")
		return
	}

	png, err := stockdata.RenderPriceChart(symbol, series)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to render chart")
		WriteError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
