package trade

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SellBaseSize converts a USD sell notional into a base-asset quantity
// string, floored to the pair's minimum size increment. Flooring, never
// rounding up, keeps the order inside the available balance.
func SellBaseSize(usdAmount, price, baseIncrement float64) (string, error) {
	if price <= 0 {
		return "", fmt.Errorf("invalid price %f", price)
	}
	qty := usdAmount / price
	if baseIncrement > 0 {
		steps := math.Floor(qty / baseIncrement)
		qty = steps * baseIncrement
	}
	if qty <= 0 {
		return "", fmt.Errorf("size %f too small for increment %f", usdAmount/price, baseIncrement)
	}
	return formatSize(qty, baseIncrement), nil
}

// BuyQuoteSize formats a USD buy notional the way the exchange expects quote
// sizes: two decimal places.
func BuyQuoteSize(usdAmount float64) string {
	return strconv.FormatFloat(math.Round(usdAmount*100)/100, 'f', 2, 64)
}

func formatSize(qty, increment float64) string {
	s := strconv.FormatFloat(qty, 'f', decimalPlaces(increment), 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// decimalPlaces infers the precision of a size increment such as 0.001.
func decimalPlaces(increment float64) int {
	if increment <= 0 {
		return 8
	}
	for p := 0; p <= 10; p++ {
		scaled := increment * math.Pow10(p)
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 && math.Round(scaled) >= 1 {
			return p
		}
	}
	return 8
}
