package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/stockdeck/internal/models"
)

func float64Ptr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64       { return &v }

// liveRaw builds a complete provider series with n daily rows.
func liveRaw(n int) *models.RawSeries {
	raw := &models.RawSeries{}
	for i := 0; i < n; i++ {
		raw.Timestamps = append(raw.Timestamps, int64(1700000000+i*86400))
		raw.Open = append(raw.Open, float64Ptr(100+float64(i)))
		raw.High = append(raw.High, float64Ptr(102+float64(i)))
		raw.Low = append(raw.Low, float64Ptr(99+float64(i)))
		raw.Close = append(raw.Close, float64Ptr(101+float64(i)))
		raw.Volume = append(raw.Volume, int64Ptr(int64(1_000_000+i)))
	}
	return raw
}

func stocksRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(userRequestContext(req.Context(), "tester", "tester@example.com", "Tester"))
}

func TestHandleStocks_RequiresSymbols(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without symbols, got %d", rr.Code)
	}
	var resp ErrorResponse
	decodeResponse(t, rr.Body.Bytes(), &resp)
	if resp.Error != "symbols is required" {
		t.Errorf("expected 'symbols is required', got %q", resp.Error)
	}
}

func TestHandleStocks_MethodNotAllowed(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/stocks?symbols=AAPL", nil)
	rr := httptest.NewRecorder()
	srv.handleStocks(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHandleStocks_SeriesPerSymbol(t *testing.T) {
	// Provider is down, so every symbol degrades to synthetic data.
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL,MSFT&range=1M"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result map[string]*models.SymbolSeries
	decodeResponse(t, rr.Body.Bytes(), &result)
	if len(result) != 2 {
		t.Fatalf("expected 2 series, got %d", len(result))
	}
	for _, symbol := range []string{"AAPL", "MSFT"} {
		series := result[symbol]
		if series == nil {
			t.Fatalf("missing series for %s", symbol)
		}
		if series.Source != models.SourceSynthetic {
			t.Errorf("%s: expected synthetic source during outage, got %q", symbol, series.Source)
		}
		if len(series.Close) == 0 {
			t.Errorf("%s: expected non-empty series", symbol)
		}
	}
}

func TestHandleStocks_KeysAsGiven(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=aapl,MSFT"))

	var result map[string]*models.SymbolSeries
	decodeResponse(t, rr.Body.Bytes(), &result)
	if _, ok := result["aapl"]; !ok {
		t.Errorf("expected lowercase key preserved, got %v", keysOf(result))
	}
	if _, ok := result["MSFT"]; !ok {
		t.Errorf("expected MSFT key, got %v", keysOf(result))
	}
}

func TestHandleStocks_LiveData(t *testing.T) {
	client := &stubMarketClient{
		bulk: func(ctx context.Context, symbols []string, query models.ProviderQuery) (map[string]*models.RawSeries, error) {
			return map[string]*models.RawSeries{"AAPL": liveRaw(5)}, nil
		},
	}
	srv := newTestServerWithClient(client)

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1M"))

	var result map[string]*models.SymbolSeries
	decodeResponse(t, rr.Body.Bytes(), &result)
	series := result["AAPL"]
	if series == nil {
		t.Fatal("missing AAPL series")
	}
	if series.Source != models.SourceLive {
		t.Errorf("expected live source, got %q", series.Source)
	}
	if series.Timestamps[0] != 1700000000*1000 {
		t.Errorf("expected millisecond timestamps, got %d", series.Timestamps[0])
	}
}

func TestHandleStocks_RecordsActivity(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	records := memStorage(t, srv).activity.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 activity record, got %d", len(records))
	}
	record := records[0]
	if record.UserID != "tester" || record.Action != "stock_data_fetch" {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.Metadata["symbols"] != "AAPL" || record.Metadata["range"] != "1M" {
		t.Errorf("expected default range in metadata, got %v", record.Metadata)
	}
}

func TestHandleStocks_CachesResults(t *testing.T) {
	client := &stubMarketClient{}
	srv := newTestServerWithClient(client)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL,MSFT&range=5D"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	bulk, _ := client.calls()
	if bulk != 1 {
		t.Errorf("expected 1 provider fetch across 3 requests, got %d", bulk)
	}

	// Cache hits still land in the activity log.
	if records := memStorage(t, srv).activity.all(); len(records) != 3 {
		t.Errorf("expected 3 activity records, got %d", len(records))
	}
}

func TestHandleStocks_SharesCacheAcrossDateBounds(t *testing.T) {
	// The cache key is (symbols, range): a bounded request after an
	// unbounded one is served from cache.
	client := &stubMarketClient{}
	srv := newTestServerWithClient(client)

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1M"))

	rr = httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1M&from_date=2024-01-01&to_date=2024-01-10"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	bulk, _ := client.calls()
	if bulk != 1 {
		t.Errorf("expected bounded request to reuse cached result, got %d fetches", bulk)
	}
}

func TestHandleStocks_DistinctRangesFetchSeparately(t *testing.T) {
	client := &stubMarketClient{}
	srv := newTestServerWithClient(client)

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1M"))
	rr = httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1Y"))

	bulk, _ := client.calls()
	if bulk != 2 {
		t.Errorf("expected separate fetches per range, got %d", bulk)
	}
}

var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func TestRouteStocks_ChartPNG(t *testing.T) {
	srv := newTestServer()

	req := stocksRequest("/api/stocks/AAPL/chart.png?range=1M")
	rr := httptest.NewRecorder()
	srv.routeStocks(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if body := rr.Body.Bytes(); len(body) < len(pngMagic) || !bytes.Equal(body[:len(pngMagic)], pngMagic) {
		t.Error("expected PNG payload")
	}
}

func TestRouteStocks_ChartUsesCachedSeries(t *testing.T) {
	client := &stubMarketClient{}
	srv := newTestServerWithClient(client)

	rr := httptest.NewRecorder()
	srv.handleStocks(rr, stocksRequest("/api/stocks?symbols=AAPL&range=1M"))

	rr = httptest.NewRecorder()
	srv.routeStocks(rr, stocksRequest("/api/stocks/AAPL/chart.png?range=1M"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	bulk, _ := client.calls()
	if bulk != 1 {
		t.Errorf("expected chart to reuse cached series, got %d fetches", bulk)
	}
}

func TestRouteStocks_UnknownPath(t *testing.T) {
	srv := newTestServer()

	for _, target := range []string{"/api/stocks/AAPL/quote", "/api/stocks//chart.png", "/api/stocks/AAPL"} {
		rr := httptest.NewRecorder()
		srv.routeStocks(rr, stocksRequest(target))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rr.Code)
		}
	}
}
