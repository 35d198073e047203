package domain

import "time"

// Candle represents a single hourly OHLCV candle for a product. Sequences
// are ordered oldest-first and are immutable once fetched.
type Candle struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts closing prices in input order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts volumes in input order.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// AssetSnapshot is one tradable pair's market state for a single cycle.
type AssetSnapshot struct {
	Symbol       string   `json:"symbol"`
	Price        float64  `json:"price"`
	Change24hPct float64  `json:"change_24h_pct"`
	Volume24h    float64  `json:"volume_24h"`
	Status       string   `json:"status"`
	Candles      []Candle `json:"candles,omitempty"`
}

// BaseCurrency returns the base leg of a pair, e.g. "BTC" for "BTC-USD".
func BaseCurrency(productID string) string {
	for i := 0; i < len(productID); i++ {
		if productID[i] == '-' {
			return productID[:i]
		}
	}
	return productID
}

// QuoteCurrency is the settlement currency for all supported pairs.
const QuoteCurrency = "USD"
