package domain

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Opportunity is a scored trade candidate produced within a single cycle.
// Score is an internal ranking aid only; it is stripped before the
// opportunity becomes a TradeAction.
type Opportunity struct {
	ProductID string  `json:"product_id"`
	Side      Side    `json:"side"`
	Score     int     `json:"score"`
	Reason    string  `json:"reason"`
	AmountUSD float64 `json:"amount_usd"`
}

// TradeAction is the validated subset of an Opportunity that reaches the
// execution engine. AmountUSD is always the USD notional of the trade for
// both sides; SELL sizes are converted to base-asset quantity at submission.
type TradeAction struct {
	ProductID string  `json:"product_id"`
	Side      Side    `json:"side"`
	AmountUSD float64 `json:"amount"`
}

// Action returns the opportunity as an executable action with the internal
// score dropped.
func (o Opportunity) Action() TradeAction {
	return TradeAction{ProductID: o.ProductID, Side: o.Side, AmountUSD: o.AmountUSD}
}

// Balances maps a currency code to its available amount.
type Balances map[string]float64

func (b Balances) Available(currency string) float64 {
	return b[currency]
}

// Position is a held asset joined with its latest order and market data.
// EntryPrice and CurrentPrice are nil when no matching order or product
// exists; such positions cannot be scored.
type Position struct {
	Currency     string
	CoinAmount   float64
	EntryPrice   *float64
	CurrentPrice *float64
	USDValue     float64
	Candles      []Candle
}

// ProfitPct returns (current-entry)/entry*100 and whether both prices are known.
func (p Position) ProfitPct() (float64, bool) {
	if p.EntryPrice == nil || p.CurrentPrice == nil || *p.EntryPrice == 0 {
		return 0, false
	}
	return (*p.CurrentPrice - *p.EntryPrice) / *p.EntryPrice * 100, true
}

// HistoricalOrder is one entry from the account's order history, used to
// derive the entry price of a position.
type HistoricalOrder struct {
	ProductID           string
	Side                Side
	Status              string
	FilledSize          float64
	TotalValueAfterFees float64
	CreatedAt           time.Time
}

// EntryPrice returns filled-notional / filled-quantity, or false when the
// order never filled.
func (o HistoricalOrder) EntryPrice() (float64, bool) {
	if o.FilledSize <= 0 || o.TotalValueAfterFees <= 0 {
		return 0, false
	}
	return o.TotalValueAfterFees / o.FilledSize, true
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSubmitted OrderStatus = "submitted"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFailed    OrderStatus = "failed"
)

// OrderResult records the outcome of one submitted action. Token is the
// idempotency token the order was tagged with; it is never reused.
type OrderResult struct {
	Action      TradeAction `json:"action"`
	Status      OrderStatus `json:"status"`
	Token       string      `json:"token"`
	Detail      string      `json:"detail,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// Rejection records a candidate action discarded by the validator.
type Rejection struct {
	Action TradeAction `json:"action"`
	Reason string      `json:"reason"`
}

// CycleReport captures one full pass of the trading loop for the audit log
// and the status API.
type CycleReport struct {
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Buys          []Opportunity `json:"buys"`
	Sells         []Opportunity `json:"sells"`
	Rationale     string        `json:"rationale,omitempty"`
	Actions       []TradeAction `json:"actions"`
	Rejections    []Rejection   `json:"rejections,omitempty"`
	Results       []OrderResult `json:"results"`
	SnapshotCount int           `json:"snapshot_count"`
	PositionCount int           `json:"position_count"`
}
