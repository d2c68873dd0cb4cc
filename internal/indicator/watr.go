package indicator

import (
	"math"
	"sync"

	"github.com/quantfold/wavetrend/internal/observ"
)

// WATRConfig configures the wavelet ATR estimator.
type WATRConfig struct {
	Period     int     // EMA smoothing period, alpha = 2/(period+1)
	LevelDecay float64 // hyperbolic discount for coarser levels
	Window     int     // samples per level for the instantaneous variant
}

// WATR estimates volatility from the energy of detail coefficients: a
// level-weighted RMS, exponentially smoothed across bars. The display
// thread reads the last smoothed value while the calculation thread
// updates it, so all state sits behind one RWMutex.
type WATR struct {
	mu     sync.RWMutex
	cfg    WATRConfig
	ema    float64
	seeded bool
}

func NewWATR(cfg WATRConfig) *WATR {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.LevelDecay <= 0 {
		cfg.LevelDecay = 0.5
	}
	if cfg.Window <= 0 {
		cfg.Window = 32
	}
	return &WATR{cfg: cfg}
}

// Calculate folds one bar's detail bands into the smoothed estimate and
// returns it. k limits aggregation to the finest k levels.
func (w *WATR) Calculate(details [][]float64, k int) float64 {
	raw := levelWeightedRMS(details, k, w.cfg.LevelDecay, 0)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seeded {
		w.ema = raw
		w.seeded = true
	} else {
		alpha := 2.0 / float64(w.cfg.Period+1)
		w.ema = alpha*raw + (1-alpha)*w.ema
	}
	observ.SetGauge("watr_value", w.ema, nil)
	return w.ema
}

// Instantaneous computes the unsmoothed estimate over the most recent
// Window samples of each level, without touching the EMA state.
func (w *WATR) Instantaneous(details [][]float64, k int) float64 {
	return levelWeightedRMS(details, k, w.cfg.LevelDecay, w.cfg.Window)
}

// Value returns the last smoothed estimate.
func (w *WATR) Value() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ema
}

// Reset clears the smoothing state. Called when the transform configuration
// changes so pre- and post-change statistics never blend.
func (w *WATR) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ema = 0
	w.seeded = false
}

// levelWeightedRMS aggregates per-level energy with hyperbolic level
// weights 1/(1+idx*decay), idx 0-based so the finest scale weighs ~1.
// window limits each level to its most recent samples; 0 means all.
func levelWeightedRMS(details [][]float64, k int, decay float64, window int) float64 {
	if k > len(details) {
		k = len(details)
	}
	sumEnergy := 0.0
	counted := 0
	for idx := 0; idx < k; idx++ {
		lvl := details[idx]
		if window > 0 && len(lvl) > window {
			lvl = lvl[len(lvl)-window:]
		}
		energy := 0.0
		for _, c := range lvl {
			energy += c * c
		}
		weight := 1.0 / (1.0 + float64(idx)*decay)
		sumEnergy += energy * weight
		counted += len(lvl)
	}
	if counted == 0 {
		return 0
	}
	return math.Sqrt(sumEnergy / float64(counted))
}
