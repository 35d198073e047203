// Package trade validates candidate actions and executes the survivors as
// sequential market orders.
package trade

import (
	"context"
	"fmt"
	"log"

	"coinpilot/internal/domain"
	"coinpilot/internal/exchange"

	"go.opentelemetry.io/otel/trace"
)

// Validator screens candidate actions one by one. A violation discards that
// action with a logged reason; it never fails the batch.
type Validator struct {
	tracer         trace.Tracer
	market         exchange.MarketData
	minNotionalUSD float64
	protected      string
}

func NewValidator(tracer trace.Tracer, market exchange.MarketData, minNotionalUSD float64, protectedAsset string) *Validator {
	if minNotionalUSD <= 0 {
		minNotionalUSD = 25
	}
	return &Validator{
		tracer:         tracer,
		market:         market,
		minNotionalUSD: minNotionalUSD,
		protected:      protectedAsset,
	}
}

// Filter applies the validation rules in order: structure, protected asset,
// positive amount, minimum notional, balance sufficiency. Valid actions keep
// their relative order.
func (v *Validator) Filter(ctx context.Context, actions []domain.TradeAction, balances domain.Balances) ([]domain.TradeAction, []domain.Rejection) {
	ctx, span := v.tracer.Start(ctx, "validator.filter")
	defer span.End()

	var valid []domain.TradeAction
	var rejections []domain.Rejection
	for _, action := range actions {
		if reason := v.check(ctx, action, balances); reason != "" {
			log.Printf("rejecting %s %s $%.2f: %s", action.Side, action.ProductID, action.AmountUSD, reason)
			rejections = append(rejections, domain.Rejection{Action: action, Reason: reason})
			continue
		}
		valid = append(valid, action)
	}
	return valid, rejections
}

func (v *Validator) check(ctx context.Context, action domain.TradeAction, balances domain.Balances) string {
	if action.ProductID == "" || !action.Side.IsValid() {
		return "missing product_id or side"
	}

	// The protected asset is rejected before anything else is even looked at.
	if action.Side == domain.SideSell && domain.BaseCurrency(action.ProductID) == v.protected {
		return fmt.Sprintf("%s is protected and never sold", v.protected)
	}

	if action.AmountUSD <= 0 {
		return "amount must be positive"
	}

	// Amounts are USD notional for both sides, so the notional is direct.
	if action.AmountUSD < v.minNotionalUSD {
		return fmt.Sprintf("notional $%.2f below minimum $%.2f", action.AmountUSD, v.minNotionalUSD)
	}

	return v.checkBalance(ctx, action, balances)
}

// checkBalance verifies the funding leg: quote currency for buys, base
// currency (after USD-to-coin conversion at spot) for sells.
func (v *Validator) checkBalance(ctx context.Context, action domain.TradeAction, balances domain.Balances) string {
	if action.Side == domain.SideBuy {
		available := balances.Available(domain.QuoteCurrency)
		if available < action.AmountUSD {
			return fmt.Sprintf("insufficient %s balance: have $%.2f, need $%.2f", domain.QuoteCurrency, available, action.AmountUSD)
		}
		return ""
	}

	product, err := v.market.GetProduct(ctx, action.ProductID)
	if err != nil {
		return fmt.Sprintf("spot price unavailable: %v", err)
	}
	if product.Price <= 0 {
		return "spot price unavailable"
	}

	base := domain.BaseCurrency(action.ProductID)
	needed := action.AmountUSD / product.Price
	available := balances.Available(base)
	if available < needed {
		return fmt.Sprintf("insufficient %s balance: have %.8f, need %.8f", base, available, needed)
	}
	return ""
}
