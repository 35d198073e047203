package exchange

import (
	"context"
	"time"

	"coinpilot/internal/domain"
)

// Product is one tradable pair as reported by the exchange.
type Product struct {
	ID            string
	Price         float64
	Change24hPct  float64
	Volume24h     float64
	Status        string
	Disabled      bool
	BaseIncrement float64
}

// MarketData lists tradable pairs and fetches OHLCV history.
type MarketData interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	Candles(ctx context.Context, productID string, lookback time.Duration) ([]domain.Candle, error)
}

// Account exposes balances and historical orders.
type Account interface {
	Balances(ctx context.Context) (domain.Balances, error)
	Orders(ctx context.Context) ([]domain.HistoricalOrder, error)
}

// MarketOrderRequest is a single immediate-or-cancel market order. Exactly
// one of BaseSize or QuoteSize is set: BaseSize for SELLs (coin quantity),
// QuoteSize for BUYs (USD notional). ClientOrderID is the idempotency token.
type MarketOrderRequest struct {
	ClientOrderID string
	ProductID     string
	Side          domain.Side
	BaseSize      string
	QuoteSize     string
}

// OrderResponse is the raw submission result.
type OrderResponse struct {
	OrderID string
	Success bool
	Detail  string
}

// OrderSubmitter places market orders.
type OrderSubmitter interface {
	MarketOrder(ctx context.Context, req MarketOrderRequest) (OrderResponse, error)
}
