package ta

import "math"

const (
	RSIPeriod        = 14
	ShortMAWindow    = 20
	LongMAWindow     = 50
	VolumeLookback   = 24
	VolumeSpikeRatio = 1.5
)

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// RSI computes the relative strength index over the first period deltas of
// the close series. This is the simple single-pass variant: the average gain
// and loss come from one fixed window rather than Wilder's running smoothing.
// Returns ok=false when fewer than period+1 closes are available.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	return rsiFromAvg(avgGain, avgLoss), true
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MovingAverages returns the 20- and 50-close simple moving averages over the
// tail of the series. Returns ok=false with fewer than 50 closes.
func MovingAverages(closes []float64) (ma20, ma50 float64, ok bool) {
	if len(closes) < LongMAWindow {
		return 0, 0, false
	}
	ma20 = Mean(closes[len(closes)-ShortMAWindow:])
	ma50 = Mean(closes[len(closes)-LongMAWindow:])
	return ma20, ma50, true
}

// VolumeSpike reports whether the latest volume exceeds 1.5x the mean of the
// trailing 24 volumes. False with fewer than 24 data points.
func VolumeSpike(volumes []float64) bool {
	if len(volumes) < VolumeLookback {
		return false
	}
	window := volumes[len(volumes)-VolumeLookback:]
	avg := Mean(window)
	if avg == 0 || math.IsNaN(avg) {
		return false
	}
	return window[len(window)-1] > VolumeSpikeRatio*avg
}

// Momentum returns the percent change of the last close versus the one
// before it. Returns ok=false with fewer than two closes.
func Momentum(closes []float64) (float64, bool) {
	if len(closes) < 2 {
		return 0, false
	}
	prev := closes[len(closes)-2]
	if prev == 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - prev) / prev * 100, true
}
