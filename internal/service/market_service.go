package service

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"coinpilot/internal/cache"
	"coinpilot/internal/domain"
	"coinpilot/internal/exchange"

	"go.opentelemetry.io/otel/trace"
)

const (
	candleLookback = 7 * 24 * time.Hour

	minVolume24h    = 100_000
	minAbsChangePct = 2
	maxSnapshots    = 30
)

type CandleStore interface {
	UpsertCandles(ctx context.Context, candles []domain.Candle) error
}

// MarketService assembles per-cycle asset snapshots from the exchange,
// caching them briefly and archiving fetched candles.
type MarketService struct {
	tracer  trace.Tracer
	market  exchange.MarketData
	candles CandleStore
	cache   *cache.SnapshotCache
}

func NewMarketService(
	tracer trace.Tracer,
	market exchange.MarketData,
	candles CandleStore,
	snapshotCache *cache.SnapshotCache,
) *MarketService {
	return &MarketService{
		tracer:  tracer,
		market:  market,
		candles: candles,
		cache:   snapshotCache,
	}
}

// Snapshots returns the cycle's tradable universe: USD pairs that are online,
// not disabled, and either liquid (24h volume above $100k) or moving (24h
// change beyond 2% either way). The 30 highest-volume survivors get candle
// history attached and are returned most-volatile first.
func (s *MarketService) Snapshots(ctx context.Context) ([]domain.AssetSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.snapshots")
	defer span.End()

	products, err := s.market.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []exchange.Product
	for _, p := range products {
		if !strings.HasSuffix(p.ID, "-"+domain.QuoteCurrency) {
			continue
		}
		if p.Price == 0 || p.Status != "online" || p.Disabled {
			continue
		}
		if p.Volume24h > minVolume24h || math.Abs(p.Change24hPct) > minAbsChangePct {
			candidates = append(candidates, p)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Volume24h > candidates[j].Volume24h
	})
	if len(candidates) > maxSnapshots {
		candidates = candidates[:maxSnapshots]
	}

	snapshots := make([]domain.AssetSnapshot, 0, len(candidates))
	for _, p := range candidates {
		snap, err := s.snapshotFor(ctx, p)
		if err != nil {
			log.Printf("skipping %s: %v", p.ID, err)
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return math.Abs(snapshots[i].Change24hPct) > math.Abs(snapshots[j].Change24hPct)
	})
	return snapshots, nil
}

// CandlesFor fetches hourly candle history for one pair, serving recent
// fetches from the snapshot cache.
func (s *MarketService) CandlesFor(ctx context.Context, productID string) ([]domain.Candle, error) {
	if cached, err := s.cache.Get(ctx, productID); err != nil {
		log.Printf("snapshot cache read error: %v", err)
	} else if cached != nil && len(cached.Candles) > 0 {
		return cached.Candles, nil
	}

	candles, err := s.market.Candles(ctx, productID, candleLookback)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, candles)
	return candles, nil
}

func (s *MarketService) snapshotFor(ctx context.Context, p exchange.Product) (domain.AssetSnapshot, error) {
	if cached, err := s.cache.Get(ctx, p.ID); err != nil {
		log.Printf("snapshot cache read error: %v", err)
	} else if cached != nil {
		return *cached, nil
	}

	candles, err := s.market.Candles(ctx, p.ID, candleLookback)
	if err != nil {
		return domain.AssetSnapshot{}, err
	}

	snap := domain.AssetSnapshot{
		Symbol:       p.ID,
		Price:        p.Price,
		Change24hPct: p.Change24hPct,
		Volume24h:    p.Volume24h,
		Status:       p.Status,
		Candles:      candles,
	}

	if err := s.cache.Put(ctx, &snap); err != nil {
		log.Printf("snapshot cache write error for %s: %v", p.ID, err)
	}
	s.archive(ctx, candles)
	return snap, nil
}

func (s *MarketService) archive(ctx context.Context, candles []domain.Candle) {
	if s.candles == nil || len(candles) == 0 {
		return
	}
	if err := s.candles.UpsertCandles(ctx, candles); err != nil {
		log.Printf("candle archive error: %v", err)
	}
}
