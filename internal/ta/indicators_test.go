package ta

import (
	"math"
	"testing"
)

func TestRSIInsufficientData(t *testing.T) {
	closes := make([]float64, 13)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if _, ok := RSI(closes, 14); ok {
		t.Fatal("expected undefined RSI with 13 closes (needs 15)")
	}
}

func TestRSIConstantClosesIsMaximal(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42.5
	}
	rsi, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected defined RSI")
	}
	if rsi != 100 {
		t.Fatalf("zero average loss should give RSI 100, got %f", rsi)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected defined RSI")
	}
	if rsi != 0 {
		t.Fatalf("zero average gain should give RSI 0, got %f", rsi)
	}
}

func TestRSIUsesFixedFirstWindow(t *testing.T) {
	// 16 closes: the 15th delta must not influence the result, only the
	// first 14 deltas do.
	closes := []float64{
		100, 101, 102, 103, 104, 105, 106, 107,
		106, 105, 104, 103, 102, 101, 100, 500,
	}
	rsi, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected defined RSI")
	}
	// First 14 deltas: 7 gains of 1, 7 losses of 1 -> avgGain == avgLoss -> RSI 50.
	if math.Abs(rsi-50) > 1e-9 {
		t.Fatalf("expected RSI 50 from the fixed first window, got %f", rsi)
	}
}

func TestMovingAveragesRequireFiftyCloses(t *testing.T) {
	closes := make([]float64, 49)
	if _, _, ok := MovingAverages(closes); ok {
		t.Fatal("expected undefined moving averages with 49 closes")
	}
}

func TestMovingAverages(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = float64(i + 1) // 1..50
	}
	ma20, ma50, ok := MovingAverages(closes)
	if !ok {
		t.Fatal("expected defined moving averages")
	}
	if math.Abs(ma20-40.5) > 1e-9 {
		t.Fatalf("expected MA20 40.5, got %f", ma20)
	}
	if math.Abs(ma50-25.5) > 1e-9 {
		t.Fatalf("expected MA50 25.5, got %f", ma50)
	}
}

func TestVolumeSpikeRequiresLookback(t *testing.T) {
	volumes := make([]float64, 23)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[22] = 10_000
	if VolumeSpike(volumes) {
		t.Fatal("expected no spike with fewer than 24 volumes")
	}
}

func TestVolumeSpike(t *testing.T) {
	volumes := make([]float64, 24)
	for i := range volumes {
		volumes[i] = 100
	}
	if VolumeSpike(volumes) {
		t.Fatal("flat volume is not a spike")
	}

	volumes[23] = 200 // mean becomes ~104.2, threshold ~156.3
	if !VolumeSpike(volumes) {
		t.Fatal("expected spike when latest volume clears 1.5x the mean")
	}
}

func TestMomentum(t *testing.T) {
	if _, ok := Momentum([]float64{100}); ok {
		t.Fatal("expected undefined momentum with one close")
	}

	momentum, ok := Momentum([]float64{100, 103})
	if !ok {
		t.Fatal("expected defined momentum")
	}
	if math.Abs(momentum-3) > 1e-9 {
		t.Fatalf("expected +3%%, got %f", momentum)
	}
}
