// Package scorer turns indicator and price facts into ranked BUY and SELL
// opportunities. Scores are additive out of 100 across four weighted
// criteria per side; a candidate qualifies at 60 or better and at most five
// per side survive the cut.
package scorer

import (
	"sort"

	"coinpilot/internal/domain"
)

const (
	QualifyingScore  = 60
	MaxOpportunities = 5

	rsiOversold   = 30
	rsiOverbought = 70

	momentumThresholdPct = 2
)

// Config carries the tunable scoring thresholds.
type Config struct {
	// BuyDipThresholdPct is the 24h change at or below which the dip
	// criterion fires. Negative, default -5.
	BuyDipThresholdPct float64
	// SellProfitThresholdPct is the unrealized profit percentage at or
	// above which the profit criterion fires. Default 5.
	SellProfitThresholdPct float64
	// BuyNotionalUSD is the fixed USD amount attached to qualifying buys.
	BuyNotionalUSD float64
	// MinQuoteBalanceUSD gates buy scoring entirely: with less quote
	// currency than this available, no buys are scored.
	MinQuoteBalanceUSD float64
	// ProtectedAsset is never scored for selling.
	ProtectedAsset string
}

type Scorer struct {
	cfg Config
}

func New(cfg Config) *Scorer {
	if cfg.BuyDipThresholdPct >= 0 {
		cfg.BuyDipThresholdPct = -5
	}
	if cfg.SellProfitThresholdPct <= 0 {
		cfg.SellProfitThresholdPct = 5
	}
	if cfg.BuyNotionalUSD <= 0 {
		cfg.BuyNotionalUSD = 25
	}
	if cfg.MinQuoteBalanceUSD <= 0 {
		cfg.MinQuoteBalanceUSD = 25
	}
	return &Scorer{cfg: cfg}
}

// rank sorts descending by score and truncates to the top five. The sort is
// stable, so equal scores keep their input order.
func rank(opps []domain.Opportunity) []domain.Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})
	if len(opps) > MaxOpportunities {
		opps = opps[:MaxOpportunities]
	}
	return opps
}
