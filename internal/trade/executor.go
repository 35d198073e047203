package trade

import (
	"context"
	"fmt"
	"log"
	"time"

	"coinpilot/internal/domain"
	"coinpilot/internal/exchange"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BalanceSource re-reads account balances. The engine never decrements a
// cached figure: another process may be trading the same account.
type BalanceSource interface {
	Balances(ctx context.Context) (domain.Balances, error)
}

// Engine submits validated actions one at a time. Each order carries a fresh
// idempotency token and a failure in one action never aborts the rest of the
// batch.
type Engine struct {
	tracer   trace.Tracer
	orders   exchange.OrderSubmitter
	market   exchange.MarketData
	balances BalanceSource
	delay    time.Duration

	newToken func() string
	sleep    func(ctx context.Context, d time.Duration)
}

func NewEngine(
	tracer trace.Tracer,
	orders exchange.OrderSubmitter,
	market exchange.MarketData,
	balances BalanceSource,
	orderDelay time.Duration,
) *Engine {
	return &Engine{
		tracer:   tracer,
		orders:   orders,
		market:   market,
		balances: balances,
		delay:    orderDelay,
		newToken: uuid.NewString,
		sleep:    sleepCtx,
	}
}

// Execute runs the batch sequentially, pausing the configured delay between
// orders as a rate-limit courtesy. Every action gets exactly one result.
func (e *Engine) Execute(ctx context.Context, actions []domain.TradeAction) []domain.OrderResult {
	ctx, span := e.tracer.Start(ctx, "engine.execute")
	defer span.End()
	span.SetAttributes(attribute.Int("engine.action_count", len(actions)))

	results := make([]domain.OrderResult, 0, len(actions))
	for i, action := range actions {
		if i > 0 {
			e.sleep(ctx, e.delay)
		}
		result := e.executeOne(ctx, action)
		if result.Status == domain.OrderConfirmed {
			log.Printf("executed %s %s $%.2f token=%s", action.Side, action.ProductID, action.AmountUSD, result.Token)
		} else {
			log.Printf("failed %s %s $%.2f: %s", action.Side, action.ProductID, action.AmountUSD, result.Detail)
		}
		results = append(results, result)
	}
	return results
}

func (e *Engine) executeOne(ctx context.Context, action domain.TradeAction) domain.OrderResult {
	ctx, span := e.tracer.Start(ctx, "engine.execute-one")
	defer span.End()

	result := domain.OrderResult{
		Action: action,
		Status: domain.OrderPending,
		Token:  e.newToken(),
	}

	// Balances drift with every submitted order, so re-read them right
	// before each submission instead of trusting the cycle-start snapshot.
	balances, err := e.balances.Balances(ctx)
	if err != nil {
		return failed(result, fmt.Errorf("refresh balances: %w", err))
	}

	req, err := e.buildRequest(ctx, action, balances, result.Token)
	if err != nil {
		return failed(result, err)
	}

	result.Status = domain.OrderSubmitted
	result.SubmittedAt = time.Now().UTC()

	resp, err := e.orders.MarketOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		return failed(result, err)
	}

	result.Status = domain.OrderConfirmed
	result.Detail = resp.OrderID
	return result
}

func (e *Engine) buildRequest(ctx context.Context, action domain.TradeAction, balances domain.Balances, token string) (exchange.MarketOrderRequest, error) {
	req := exchange.MarketOrderRequest{
		ClientOrderID: token,
		ProductID:     action.ProductID,
		Side:          action.Side,
	}

	if action.Side == domain.SideBuy {
		if available := balances.Available(domain.QuoteCurrency); available < action.AmountUSD {
			return req, fmt.Errorf("insufficient %s balance at submission: have $%.2f, need $%.2f",
				domain.QuoteCurrency, available, action.AmountUSD)
		}
		req.QuoteSize = BuyQuoteSize(action.AmountUSD)
		return req, nil
	}

	product, err := e.market.GetProduct(ctx, action.ProductID)
	if err != nil {
		return req, fmt.Errorf("spot price lookup: %w", err)
	}
	size, err := SellBaseSize(action.AmountUSD, product.Price, product.BaseIncrement)
	if err != nil {
		return req, err
	}

	base := domain.BaseCurrency(action.ProductID)
	needed := action.AmountUSD / product.Price
	if available := balances.Available(base); available < needed {
		return req, fmt.Errorf("insufficient %s balance at submission: have %.8f, need %.8f",
			base, available, needed)
	}
	req.BaseSize = size
	return req, nil
}

func failed(result domain.OrderResult, err error) domain.OrderResult {
	result.Status = domain.OrderFailed
	result.Detail = err.Error()
	return result
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
