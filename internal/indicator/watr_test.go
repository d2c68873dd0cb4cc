package indicator

import (
	"math"
	"testing"
)

func constantDetails(levels, n int, v float64) [][]float64 {
	out := make([][]float64, levels)
	for i := range out {
		lvl := make([]float64, n)
		for j := range lvl {
			lvl[j] = v
		}
		out[i] = lvl
	}
	return out
}

func TestWATR_NeverNegative(t *testing.T) {
	w := NewWATR(WATRConfig{Period: 14, LevelDecay: 0.5})
	inputs := [][][]float64{
		constantDetails(3, 64, -2.5),
		constantDetails(3, 64, 0),
		{{-1, 2, -3}, {4, -5, 6}},
		{},
	}
	for _, in := range inputs {
		if got := w.Calculate(in, 3); got < 0 {
			t.Fatalf("watr went negative: %v", got)
		}
	}
}

func TestWATR_EMAConvergesToConstantInput(t *testing.T) {
	w := NewWATR(WATRConfig{Period: 10, LevelDecay: 0.5})
	details := constantDetails(2, 32, 1.5)

	first := w.Calculate(details, 2)
	raw := w.Instantaneous(details, 2)
	// EMA seeds with the first raw observation
	if math.Abs(first-w.Value()) > 1e-12 {
		t.Fatalf("Value() disagrees with Calculate(): %v vs %v", w.Value(), first)
	}

	var last float64
	for i := 0; i < 500; i++ {
		last = w.Calculate(details, 2)
	}
	if math.Abs(last-raw) > 1e-9 {
		t.Fatalf("EMA did not converge: want %v got %v", raw, last)
	}
}

func TestWATR_InstantaneousIsStateless(t *testing.T) {
	w := NewWATR(WATRConfig{Period: 14, LevelDecay: 0.5, Window: 8})
	details := constantDetails(2, 64, 2.0)
	before := w.Value()
	_ = w.Instantaneous(details, 2)
	if w.Value() != before {
		t.Fatal("instantaneous variant mutated the smoothing state")
	}
}

func TestWATR_FinerLevelsWeighMore(t *testing.T) {
	w := NewWATR(WATRConfig{Period: 14, LevelDecay: 1.0, Window: 0})

	fine := [][]float64{constantDetails(1, 32, 2.0)[0], constantDetails(1, 32, 0)[0]}
	coarse := [][]float64{constantDetails(1, 32, 0)[0], constantDetails(1, 32, 2.0)[0]}

	f := w.Instantaneous(fine, 2)
	c := w.Instantaneous(coarse, 2)
	if !(f > c) {
		t.Fatalf("fine-scale energy %v should outweigh coarse-scale energy %v", f, c)
	}
}

func TestWATR_ResetClearsState(t *testing.T) {
	w := NewWATR(WATRConfig{Period: 10, LevelDecay: 0.5})
	w.Calculate(constantDetails(2, 32, 3.0), 2)
	if w.Value() == 0 {
		t.Fatal("expected non-zero value before reset")
	}
	w.Reset()
	if w.Value() != 0 {
		t.Fatalf("reset left value %v", w.Value())
	}
	// next calculate re-seeds rather than blending with stale state
	details := constantDetails(2, 32, 1.0)
	got := w.Calculate(details, 2)
	if math.Abs(got-w.Instantaneous(details, 2)) > 1e-12 {
		t.Fatalf("first value after reset should equal the raw value, got %v", got)
	}
}
