package scorer

import (
	"fmt"
	"strings"

	"coinpilot/internal/domain"
	"coinpilot/internal/ta"
)

const (
	buyDipWeight    = 30
	buyRSIWeight    = 25
	buyTrendWeight  = 25
	buyVolumeWeight = 20
)

// ScoreBuys scores every snapshot for a buy and returns the qualifying
// opportunities, best first. With less than the minimum quote balance
// available no snapshot is scored at all.
func (s *Scorer) ScoreBuys(snapshots []domain.AssetSnapshot, balances domain.Balances) []domain.Opportunity {
	if balances.Available(domain.QuoteCurrency) < s.cfg.MinQuoteBalanceUSD {
		return nil
	}

	var opps []domain.Opportunity
	for _, snap := range snapshots {
		score, reason := s.scoreBuy(snap)
		if score < QualifyingScore {
			continue
		}
		opps = append(opps, domain.Opportunity{
			ProductID: snap.Symbol,
			Side:      domain.SideBuy,
			Score:     score,
			Reason:    reason,
			AmountUSD: s.cfg.BuyNotionalUSD,
		})
	}
	return rank(opps)
}

func (s *Scorer) scoreBuy(snap domain.AssetSnapshot) (int, string) {
	score := 0
	var reasons []string

	closes := domain.Closes(snap.Candles)
	volumes := domain.Volumes(snap.Candles)

	if snap.Change24hPct <= s.cfg.BuyDipThresholdPct {
		score += buyDipWeight
		reasons = append(reasons, fmt.Sprintf("24h change %.2f%% at or below %.2f%%", snap.Change24hPct, s.cfg.BuyDipThresholdPct))
	}

	if rsi, ok := ta.RSI(closes, ta.RSIPeriod); ok && rsi < rsiOversold {
		score += buyRSIWeight
		reasons = append(reasons, fmt.Sprintf("RSI %.1f oversold", rsi))
	}

	if ma20, ma50, ok := ta.MovingAverages(closes); ok && snap.Price < ma20 && ma20 < ma50 {
		score += buyTrendWeight
		reasons = append(reasons, fmt.Sprintf("price %.4f below MA20 %.4f below MA50 %.4f", snap.Price, ma20, ma50))
	}

	if ta.VolumeSpike(volumes) {
		score += buyVolumeWeight
		reasons = append(reasons, "volume spike")
	}

	return score, strings.Join(reasons, "; ")
}
