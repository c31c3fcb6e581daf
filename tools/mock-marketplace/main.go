// Package main implements a mock marketplace gateway for local development.
// It serves canned market data from a JSON fixture and accepts price updates,
// simulating the gateway protocol the repricer's HTTP marketplace client
// speaks, without requiring real platform credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// marketData mirrors the gateway market-data response shape.
type marketData struct {
	CompetitorPrices []float64  `json:"competitor_prices"`
	BuyBoxPrice      *float64   `json:"buy_box_price,omitempty"`
	Sales            *salesData `json:"sales,omitempty"`
}

type salesData struct {
	TotalSales      int     `json:"total_sales"`
	SalesLast7Days  int     `json:"sales_last_7_days"`
	SalesLast14Days int     `json:"sales_last_14_days"`
	AvgDailySales   float64 `json:"avg_daily_sales"`
	LookbackDays    int     `json:"lookback_days"`
}

// fixture maps external listing IDs to canned market data. Unknown IDs get
// the "default" entry when present.
type fixture map[string]marketData

type server struct {
	log     *slog.Logger
	fixture fixture

	mu     sync.Mutex
	prices map[string]float64 // applied prices by external ID
}

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-marketplace/testdata/market_data.json", "path to market data fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fx, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "listings", len(fx))

	s := &server{log: logger, fixture: fx, prices: make(map[string]float64)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/listings/{id}/market-data", s.marketDataHandler)
	mux.HandleFunc("PUT /api/listings/{id}/price", s.priceHandler)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace gateway", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return fx, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func (s *server) marketDataHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	md, ok := s.fixture[id]
	if !ok {
		md, ok = s.fixture["default"]
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found: " + id})
		return
	}

	s.log.Info("served market data",
		"listing", id,
		"platform", r.URL.Query().Get("platform"),
		"competitors", len(md.CompetitorPrices),
	)
	writeJSON(w, http.StatusOK, md)
}

func (s *server) priceHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if body.Price <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "price must be positive"})
		return
	}

	s.mu.Lock()
	s.prices[id] = body.Price
	s.mu.Unlock()

	s.log.Info("price applied",
		"listing", id,
		"platform", r.URL.Query().Get("platform"),
		"price", body.Price,
	)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
