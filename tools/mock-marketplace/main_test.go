package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadTestFixture(t *testing.T) fixture {
	t.Helper()
	fx, err := loadFixture(filepath.Join("testdata", "market_data.json"))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return fx
}

func testServer(t *testing.T) *server {
	t.Helper()
	return &server{
		log:     testLogger(),
		fixture: loadTestFixture(t),
		prices:  make(map[string]float64),
	}
}

func TestLoadFixture(t *testing.T) {
	fx := loadTestFixture(t)
	if len(fx) == 0 {
		t.Fatal("expected listings in fixture")
	}
	if _, ok := fx["default"]; !ok {
		t.Error("expected a default entry in fixture")
	}
}

func TestMarketDataHandler_Known(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/ext-widget-1/market-data?platform=ebay", http.NoBody)
	req.SetPathValue("id", "ext-widget-1")
	w := httptest.NewRecorder()

	s.marketDataHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var md marketData
	if err := json.NewDecoder(w.Body).Decode(&md); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(md.CompetitorPrices) != 4 {
		t.Errorf("competitor_prices=%d, want 4", len(md.CompetitorPrices))
	}
	if md.BuyBoxPrice == nil || *md.BuyBoxPrice != 22.99 {
		t.Errorf("buy_box_price=%v, want 22.99", md.BuyBoxPrice)
	}
	if md.Sales == nil || md.Sales.TotalSales != 54 {
		t.Errorf("sales=%+v, want total_sales 54", md.Sales)
	}
}

func TestMarketDataHandler_UnknownFallsBackToDefault(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/ext-unknown/market-data", http.NoBody)
	req.SetPathValue("id", "ext-unknown")
	w := httptest.NewRecorder()

	s.marketDataHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var md marketData
	if err := json.NewDecoder(w.Body).Decode(&md); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(md.CompetitorPrices) != 3 {
		t.Errorf("competitor_prices=%d, want default entry with 3", len(md.CompetitorPrices))
	}
}

func TestMarketDataHandler_NotFoundWithoutDefault(t *testing.T) {
	s := testServer(t)
	delete(s.fixture, "default")

	req := httptest.NewRequest(http.MethodGet, "/api/listings/ext-unknown/market-data", http.NoBody)
	req.SetPathValue("id", "ext-unknown")
	w := httptest.NewRecorder()

	s.marketDataHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPriceHandler_Applies(t *testing.T) {
	s := testServer(t)

	body := strings.NewReader(`{"price": 23.45}`)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/ext-widget-1/price?platform=ebay", body)
	req.SetPathValue("id", "ext-widget-1")
	w := httptest.NewRecorder()

	s.priceHandler(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNoContent)
	}
	if got := s.prices["ext-widget-1"]; got != 23.45 {
		t.Errorf("applied price=%v, want 23.45", got)
	}
}

func TestPriceHandler_RejectsNonPositive(t *testing.T) {
	s := testServer(t)

	body := strings.NewReader(`{"price": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/ext-widget-1/price", body)
	req.SetPathValue("id", "ext-widget-1")
	w := httptest.NewRecorder()

	s.priceHandler(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if _, ok := s.prices["ext-widget-1"]; ok {
		t.Error("price should not be recorded for rejected update")
	}
}

func TestPriceHandler_BadBody(t *testing.T) {
	s := testServer(t)

	body := strings.NewReader(`not json`)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/ext-widget-1/price", body)
	req.SetPathValue("id", "ext-widget-1")
	w := httptest.NewRecorder()

	s.priceHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusBadRequest)
	}
}
