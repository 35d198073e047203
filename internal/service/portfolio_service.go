package service

import (
	"context"
	"log"
	"sort"

	"coinpilot/internal/domain"
	"coinpilot/internal/exchange"

	"go.opentelemetry.io/otel/trace"
)

type CandleFetcher interface {
	CandlesFor(ctx context.Context, productID string) ([]domain.Candle, error)
}

// PortfolioService joins account balances with order history and live market
// data to build scoreable positions.
type PortfolioService struct {
	tracer  trace.Tracer
	market  exchange.MarketData
	account exchange.Account
	candles CandleFetcher
}

func NewPortfolioService(
	tracer trace.Tracer,
	market exchange.MarketData,
	account exchange.Account,
	candles CandleFetcher,
) *PortfolioService {
	return &PortfolioService{
		tracer:  tracer,
		market:  market,
		account: account,
		candles: candles,
	}
}

// Balances returns the account's available balances per currency.
// Callers re-fetch through here before every order: balances are shared
// mutable state the process does not own exclusively.
func (s *PortfolioService) Balances(ctx context.Context) (domain.Balances, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio-service.balances")
	defer span.End()

	return s.account.Balances(ctx)
}

// Positions builds one Position per non-quote currency with a balance.
// Entry price comes from the most recent non-cancelled filled order for the
// currency; positions without one keep a nil entry price and are skipped by
// the sell scorer.
func (s *PortfolioService) Positions(ctx context.Context, balances domain.Balances) ([]domain.Position, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio-service.positions")
	defer span.End()

	orders, err := s.account.Orders(ctx)
	if err != nil {
		return nil, err
	}
	latest := latestOrdersByCurrency(orders)

	products, err := s.market.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	productByBase := make(map[string]exchange.Product, len(products))
	for _, p := range products {
		if domain.BaseCurrency(p.ID)+"-"+domain.QuoteCurrency == p.ID {
			productByBase[domain.BaseCurrency(p.ID)] = p
		}
	}

	// Map iteration order is random; downstream consumers (score tie-breaks,
	// the refiner payload) need a stable position order.
	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var positions []domain.Position
	for _, currency := range currencies {
		amount := balances[currency]
		if currency == domain.QuoteCurrency || amount <= 0 {
			continue
		}

		pos := domain.Position{Currency: currency, CoinAmount: amount}

		if order, ok := latest[currency]; ok {
			if entry, ok := order.EntryPrice(); ok {
				pos.EntryPrice = &entry
			}
		}

		if product, ok := productByBase[currency]; ok && product.Price > 0 {
			price := product.Price
			pos.CurrentPrice = &price
			pos.USDValue = amount * price

			candles, err := s.candles.CandlesFor(ctx, product.ID)
			if err != nil {
				log.Printf("candles unavailable for %s: %v", product.ID, err)
			} else {
				pos.Candles = candles
			}
		}

		positions = append(positions, pos)
	}
	return positions, nil
}

// latestOrdersByCurrency keeps the most recent non-cancelled order per base
// currency.
func latestOrdersByCurrency(orders []domain.HistoricalOrder) map[string]domain.HistoricalOrder {
	latest := make(map[string]domain.HistoricalOrder)
	for _, order := range orders {
		if order.Status == "CANCELLED" {
			continue
		}
		base := domain.BaseCurrency(order.ProductID)
		if current, ok := latest[base]; !ok || order.CreatedAt.After(current.CreatedAt) {
			latest[base] = order
		}
	}
	return latest
}
