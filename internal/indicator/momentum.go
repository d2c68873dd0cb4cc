package indicator

import (
	"math"
	"sync"

	"github.com/quantfold/wavetrend/internal/observ"
)

// MomentumMode selects the per-level window statistic.
type MomentumMode int

const (
	// ModeSum takes the signed mean of the window.
	ModeSum MomentumMode = iota
	// ModeSign takes the window RMS signed by the mean's sign.
	ModeSign
)

// ParseMomentumMode maps a config string to a mode, defaulting to ModeSum.
func ParseMomentumMode(s string) MomentumMode {
	if s == "sign" {
		return ModeSign
	}
	return ModeSum
}

// MomentumConfig configures the oscillator.
type MomentumConfig struct {
	WindowSize int     // recent samples per level
	Alpha      float64 // EMA smoothing factor
	Scaling    float64 // brings fractional coefficients into threshold range
	LevelDecay float64
	Mode       MomentumMode
}

// Momentum is a level-weighted, windowed oscillator over raw detail
// coefficients. It must see the coefficients before shrinkage: shrinkage
// denoises the trend display while momentum reflects un-denoised energy.
type Momentum struct {
	mu     sync.RWMutex
	cfg    MomentumConfig
	ema    float64
	raw    float64
	seeded bool
}

func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 16
	}
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = 0.2
	}
	if cfg.Scaling == 0 {
		cfg.Scaling = 1000
	}
	if cfg.LevelDecay <= 0 {
		cfg.LevelDecay = 0.5
	}
	return &Momentum{cfg: cfg}
}

// Calculate folds one bar's raw detail bands into the smoothed oscillator
// value and returns it. k limits aggregation to the finest k levels.
func (m *Momentum) Calculate(details [][]float64, k int) float64 {
	if k > len(details) {
		k = len(details)
	}
	acc := 0.0
	for idx := 0; idx < k; idx++ {
		lvl := details[idx]
		if len(lvl) > m.cfg.WindowSize {
			lvl = lvl[len(lvl)-m.cfg.WindowSize:]
		}
		if len(lvl) == 0 {
			continue
		}
		mean := 0.0
		for _, c := range lvl {
			mean += c
		}
		mean /= float64(len(lvl))

		stat := mean
		if m.cfg.Mode == ModeSign {
			energy := 0.0
			for _, c := range lvl {
				energy += c * c
			}
			rms := math.Sqrt(energy / float64(len(lvl)))
			if mean < 0 {
				rms = -rms
			}
			stat = rms
		}
		acc += stat / (1.0 + float64(idx)*m.cfg.LevelDecay)
	}
	raw := acc * m.cfg.Scaling

	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	if !m.seeded {
		m.ema = raw
		m.seeded = true
	} else {
		m.ema = m.cfg.Alpha*raw + (1-m.cfg.Alpha)*m.ema
	}
	observ.SetGauge("momentum_smoothed", m.ema, nil)
	return m.ema
}

// Value returns the last smoothed oscillator value.
func (m *Momentum) Value() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ema
}

// Raw returns the last unsmoothed (but scaled) value.
func (m *Momentum) Raw() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw
}

// Reset zeroes the EMA. Called on any configuration change.
func (m *Momentum) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ema = 0
	m.raw = 0
	m.seeded = false
}
