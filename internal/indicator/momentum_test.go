package indicator

import (
	"math"
	"testing"
)

func TestMomentum_SignFollowsCoefficientSign(t *testing.T) {
	m := NewMomentum(MomentumConfig{WindowSize: 8, Alpha: 1.0, Scaling: 100, LevelDecay: 0.5})

	up := constantDetails(2, 32, 0.02)
	if got := m.Calculate(up, 2); got <= 0 {
		t.Fatalf("positive coefficients must give positive momentum, got %v", got)
	}

	m.Reset()
	down := constantDetails(2, 32, -0.02)
	if got := m.Calculate(down, 2); got >= 0 {
		t.Fatalf("negative coefficients must give negative momentum, got %v", got)
	}
}

func TestMomentum_UsesOnlyTheRecentWindow(t *testing.T) {
	m := NewMomentum(MomentumConfig{WindowSize: 4, Alpha: 1.0, Scaling: 1, LevelDecay: 0})

	// old samples are strongly negative, the recent window is +1
	lvl := make([]float64, 32)
	for i := range lvl {
		lvl[i] = -10
	}
	for i := 28; i < 32; i++ {
		lvl[i] = 1
	}
	got := m.Calculate([][]float64{lvl}, 1)
	if math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("window mean: want 1.0 got %v", got)
	}
}

func TestMomentum_ScalingAppliesBeforeSmoothing(t *testing.T) {
	a := NewMomentum(MomentumConfig{WindowSize: 8, Alpha: 1.0, Scaling: 1, LevelDecay: 0})
	b := NewMomentum(MomentumConfig{WindowSize: 8, Alpha: 1.0, Scaling: 1000, LevelDecay: 0})
	details := constantDetails(1, 16, 0.003)

	va := a.Calculate(details, 1)
	vb := b.Calculate(details, 1)
	if math.Abs(vb-va*1000) > 1e-9 {
		t.Fatalf("scaling: want %v got %v", va*1000, vb)
	}
}

func TestMomentum_SignModeUsesRMSMagnitude(t *testing.T) {
	sum := NewMomentum(MomentumConfig{WindowSize: 4, Alpha: 1.0, Scaling: 1, LevelDecay: 0, Mode: ModeSum})
	sign := NewMomentum(MomentumConfig{WindowSize: 4, Alpha: 1.0, Scaling: 1, LevelDecay: 0, Mode: ModeSign})

	// alternating-ish window: small mean, large energy
	lvl := []float64{2, -1.5, 2, -1.5}
	details := [][]float64{lvl}

	vs := sum.Calculate(details, 1)
	vr := sign.Calculate(details, 1)
	if !(vr > vs) {
		t.Fatalf("sign mode %v should exceed sum mode %v for high-energy windows", vr, vs)
	}
	if vr <= 0 {
		t.Fatalf("mean is positive so sign mode must be positive, got %v", vr)
	}
}

func TestMomentum_EMASmoothingAndReset(t *testing.T) {
	m := NewMomentum(MomentumConfig{WindowSize: 8, Alpha: 0.5, Scaling: 1, LevelDecay: 0})
	details := constantDetails(1, 16, 1.0)

	first := m.Calculate(details, 1) // seeds at the raw value, 1.0
	if math.Abs(first-1.0) > 1e-12 {
		t.Fatalf("seed: want 1.0 got %v", first)
	}

	zero := constantDetails(1, 16, 0)
	second := m.Calculate(zero, 1) // 0.5*0 + 0.5*1.0
	if math.Abs(second-0.5) > 1e-12 {
		t.Fatalf("ema: want 0.5 got %v", second)
	}
	if m.Raw() != 0 {
		t.Fatalf("raw should track the unsmoothed value, got %v", m.Raw())
	}

	m.Reset()
	if m.Value() != 0 || m.Raw() != 0 {
		t.Fatal("reset left residual state")
	}
}
