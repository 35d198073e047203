package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coinpilot/internal/cache"
	"coinpilot/internal/domain"
	"coinpilot/internal/exchange"

	"go.opentelemetry.io/otel/trace"
)

type stubMarketData struct {
	products    []exchange.Product
	candles     map[string][]domain.Candle
	candleErrs  map[string]error
	candleCalls int
	listErr     error
}

func (s *stubMarketData) ListProducts(ctx context.Context) ([]exchange.Product, error) {
	return s.products, s.listErr
}

func (s *stubMarketData) GetProduct(ctx context.Context, productID string) (exchange.Product, error) {
	for _, p := range s.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return exchange.Product{}, errors.New("unknown product")
}

func (s *stubMarketData) Candles(ctx context.Context, productID string, lookback time.Duration) ([]domain.Candle, error) {
	s.candleCalls++
	if err := s.candleErrs[productID]; err != nil {
		return nil, err
	}
	return s.candles[productID], nil
}

type stubCandleStore struct {
	upserts [][]domain.Candle
	err     error
}

func (s *stubCandleStore) UpsertCandles(ctx context.Context, candles []domain.Candle) error {
	s.upserts = append(s.upserts, candles)
	return s.err
}

func testCandles(symbol string, n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = domain.Candle{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 100,
		}
	}
	return candles
}

func newMarketService(market exchange.MarketData, store CandleStore) *MarketService {
	return NewMarketService(
		trace.NewNoopTracerProvider().Tracer("test"),
		market, store, cache.NewSnapshotCache(nil),
	)
}

func TestSnapshotsFiltersUniverse(t *testing.T) {
	market := &stubMarketData{
		products: []exchange.Product{
			{ID: "BTC-USD", Price: 50000, Change24hPct: 1, Volume24h: 2_000_000, Status: "online"},
			{ID: "ETH-EUR", Price: 2000, Change24hPct: 5, Volume24h: 2_000_000, Status: "online"},
			{ID: "SOL-USD", Price: 100, Change24hPct: -6, Volume24h: 50_000, Status: "online"},
			{ID: "ADA-USD", Price: 1, Change24hPct: 1, Volume24h: 50_000, Status: "online"},
			{ID: "XRP-USD", Price: 2, Change24hPct: 8, Volume24h: 500_000, Status: "offline"},
			{ID: "DOT-USD", Price: 10, Change24hPct: 8, Volume24h: 500_000, Status: "online", Disabled: true},
			{ID: "LTC-USD", Price: 0, Change24hPct: 8, Volume24h: 500_000, Status: "online"},
		},
		candles: map[string][]domain.Candle{
			"BTC-USD": testCandles("BTC-USD", 24),
			"SOL-USD": testCandles("SOL-USD", 24),
		},
	}

	svc := newMarketService(market, nil)
	snapshots, err := svc.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only BTC-USD (liquid) and SOL-USD (moving) survive; non-USD pairs,
	// offline, disabled and unpriced products are out. Most volatile first.
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Symbol != "SOL-USD" || snapshots[1].Symbol != "BTC-USD" {
		t.Fatalf("expected volatility-ordered [SOL-USD BTC-USD], got [%s %s]",
			snapshots[0].Symbol, snapshots[1].Symbol)
	}
	if len(snapshots[0].Candles) != 24 {
		t.Fatalf("expected candle history attached, got %d candles", len(snapshots[0].Candles))
	}
}

func TestSnapshotsCapsUniverseByVolume(t *testing.T) {
	market := &stubMarketData{candles: map[string][]domain.Candle{}}
	for i := 0; i < 35; i++ {
		id := fmt.Sprintf("COIN%02d-USD", i)
		market.products = append(market.products, exchange.Product{
			ID:     id,
			Price:  10,
			Status: "online",
			// Later products carry more volume.
			Volume24h:    float64(200_000 + i*1000),
			Change24hPct: 1,
		})
		market.candles[id] = testCandles(id, 2)
	}

	svc := newMarketService(market, nil)
	snapshots, err := svc.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 30 {
		t.Fatalf("expected the universe capped at 30, got %d", len(snapshots))
	}
	for _, snap := range snapshots {
		// The five lowest-volume products must be the ones cut.
		if snap.Symbol < "COIN05-USD" {
			t.Fatalf("low-volume product %s should have been cut", snap.Symbol)
		}
	}
}

func TestSnapshotsSkipsProductsWithoutCandles(t *testing.T) {
	market := &stubMarketData{
		products: []exchange.Product{
			{ID: "BTC-USD", Price: 50000, Change24hPct: 3, Volume24h: 2_000_000, Status: "online"},
			{ID: "ETH-USD", Price: 2000, Change24hPct: 4, Volume24h: 1_000_000, Status: "online"},
		},
		candles:    map[string][]domain.Candle{"BTC-USD": testCandles("BTC-USD", 24)},
		candleErrs: map[string]error{"ETH-USD": errors.New("rate limited")},
	}

	svc := newMarketService(market, nil)
	snapshots, err := svc.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("a single candle failure must not fail the cycle: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].Symbol != "BTC-USD" {
		t.Fatalf("expected only BTC-USD, got %+v", snapshots)
	}
}

func TestSnapshotsListError(t *testing.T) {
	svc := newMarketService(&stubMarketData{listErr: errors.New("exchange down")}, nil)
	if _, err := svc.Snapshots(context.Background()); err == nil {
		t.Fatal("expected an error when the product list is unavailable")
	}
}

func TestSnapshotsArchivesCandles(t *testing.T) {
	market := &stubMarketData{
		products: []exchange.Product{
			{ID: "BTC-USD", Price: 50000, Change24hPct: 3, Volume24h: 2_000_000, Status: "online"},
		},
		candles: map[string][]domain.Candle{"BTC-USD": testCandles("BTC-USD", 24)},
	}
	store := &stubCandleStore{}

	svc := newMarketService(market, store)
	if _, err := svc.Snapshots(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserts) != 1 || len(store.upserts[0]) != 24 {
		t.Fatalf("expected fetched candles archived, got %+v", store.upserts)
	}
}

func TestSnapshotsArchiveErrorIsNonFatal(t *testing.T) {
	market := &stubMarketData{
		products: []exchange.Product{
			{ID: "BTC-USD", Price: 50000, Change24hPct: 3, Volume24h: 2_000_000, Status: "online"},
		},
		candles: map[string][]domain.Candle{"BTC-USD": testCandles("BTC-USD", 24)},
	}
	store := &stubCandleStore{err: errors.New("db down")}

	svc := newMarketService(market, store)
	snapshots, err := svc.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("archive failures must not fail the cycle: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
}

func TestCandlesFor(t *testing.T) {
	market := &stubMarketData{
		candles: map[string][]domain.Candle{"ETH-USD": testCandles("ETH-USD", 10)},
	}

	svc := newMarketService(market, nil)
	candles, err := svc.CandlesFor(context.Background(), "ETH-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 10 {
		t.Fatalf("expected 10 candles, got %d", len(candles))
	}
}
