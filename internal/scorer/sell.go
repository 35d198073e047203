package scorer

import (
	"fmt"
	"strings"

	"coinpilot/internal/domain"
	"coinpilot/internal/ta"
)

const (
	sellProfitWeight   = 30
	sellRSIWeight      = 25
	sellTrendWeight    = 25
	sellMomentumWeight = 20
)

// ScoreSells scores every position for a sell and returns the qualifying
// opportunities, best first. The protected asset is never scored, and
// positions without both entry and current price cannot be scored.
func (s *Scorer) ScoreSells(positions []domain.Position) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, pos := range positions {
		if pos.Currency == s.cfg.ProtectedAsset {
			continue
		}
		if pos.EntryPrice == nil || pos.CurrentPrice == nil {
			continue
		}
		score, reason := s.scoreSell(pos)
		if score < QualifyingScore {
			continue
		}
		opps = append(opps, domain.Opportunity{
			ProductID: pos.Currency + "-" + domain.QuoteCurrency,
			Side:      domain.SideSell,
			Score:     score,
			Reason:    reason,
			AmountUSD: pos.USDValue,
		})
	}
	return rank(opps)
}

func (s *Scorer) scoreSell(pos domain.Position) (int, string) {
	score := 0
	var reasons []string

	closes := domain.Closes(pos.Candles)

	if profit, ok := pos.ProfitPct(); ok && profit >= s.cfg.SellProfitThresholdPct {
		score += sellProfitWeight
		reasons = append(reasons, fmt.Sprintf("profit %.2f%% at or above %.2f%%", profit, s.cfg.SellProfitThresholdPct))
	}

	if rsi, ok := ta.RSI(closes, ta.RSIPeriod); ok && rsi > rsiOverbought {
		score += sellRSIWeight
		reasons = append(reasons, fmt.Sprintf("RSI %.1f overbought", rsi))
	}

	if ma20, ma50, ok := ta.MovingAverages(closes); ok && *pos.CurrentPrice > ma20 && ma20 > ma50 {
		score += sellTrendWeight
		reasons = append(reasons, fmt.Sprintf("price %.4f above MA20 %.4f above MA50 %.4f", *pos.CurrentPrice, ma20, ma50))
	}

	if momentum, ok := ta.Momentum(closes); ok && momentum > momentumThresholdPct {
		score += sellMomentumWeight
		reasons = append(reasons, fmt.Sprintf("last-candle momentum %+.2f%%", momentum))
	}

	return score, strings.Join(reasons, "; ")
}
