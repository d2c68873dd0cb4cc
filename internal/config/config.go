package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantfold/wavetrend/internal/observ"
)

type Window struct {
	Length  int    `yaml:"length"`  // bars per calculation window
	Levels  int    `yaml:"levels"`  // decomposition depth
	Wavelet string `yaml:"wavelet"` // haar | db4
}

type Threshold struct {
	Method    string `yaml:"method"`    // universal | bayes | sure
	Shrinkage string `yaml:"shrinkage"` // soft | hard
}

type Momentum struct {
	WindowSize int     `yaml:"window_size"`
	Alpha      float64 `yaml:"alpha"` // EMA smoothing factor
	Scaling    float64 `yaml:"scaling"`
	LevelDecay float64 `yaml:"level_decay"`
	Mode       string  `yaml:"mode"` // sum | sign
}

type WATR struct {
	Period     int     `yaml:"period"` // EMA smoothing period
	Levels     int     `yaml:"levels"` // k finest levels to aggregate
	LevelDecay float64 `yaml:"level_decay"`
	Multiplier float64 `yaml:"multiplier"` // band / stop-distance multiplier
	OnShrunk   bool    `yaml:"on_shrunk"`  // feed shrunk coefficients instead of raw
	Window     int     `yaml:"window"`     // samples per level for the instantaneous variant
}

type Signal struct {
	MinSlope          float64 `yaml:"min_slope"` // absolute points per bar
	MomentumThreshold float64 `yaml:"momentum_threshold"`
}

type Risk struct {
	MaxRiskUSD   float64 `yaml:"max_risk_usd"` // per-trade dollar cap, 0 disables
	BaseQuantity int     `yaml:"base_quantity"`
	PointValue   float64 `yaml:"point_value"`
	StopMult     float64 `yaml:"stop_mult"`   // WATR multiple for the stop distance
	TargetMult   float64 `yaml:"target_mult"` // WATR multiple for the target distance
	MinStopPts   float64 `yaml:"min_stop_pts"`
	MaxStopPts   float64 `yaml:"max_stop_pts"`
}

type Journal struct {
	Path             string `yaml:"path"`
	DedupeWindowSecs int    `yaml:"dedupe_window_seconds"`
}

type Root struct {
	Instrument string    `yaml:"instrument"`
	Window     Window    `yaml:"window"`
	Threshold  Threshold `yaml:"threshold"`
	Momentum   Momentum  `yaml:"momentum"`
	WATR       WATR      `yaml:"watr"`
	Signal     Signal    `yaml:"signal"`
	Risk       Risk      `yaml:"risk"`
	Journal    Journal   `yaml:"journal"`
}

// Load reads the YAML config and fills defaults for anything left zero.
// Unrecognized method/wavelet strings are replaced with documented defaults
// and logged, never returned as errors.
func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults normalizes a config in place. Split out of Load so tests and
// embedded hosts can build a Root directly.
func (c *Root) ApplyDefaults() {
	if c.Window.Length <= 0 {
		if c.Window.Length < 0 {
			observ.Log("config_fallback", map[string]any{"field": "window.length", "got": c.Window.Length})
		}
		c.Window.Length = 256
	}
	if c.Window.Levels <= 0 {
		c.Window.Levels = 4
	}
	switch c.Window.Wavelet {
	case "haar", "db4":
	case "":
		c.Window.Wavelet = "db4"
	default:
		observ.Log("config_fallback", map[string]any{"field": "window.wavelet", "got": c.Window.Wavelet})
		c.Window.Wavelet = "db4"
	}

	switch c.Threshold.Method {
	case "universal", "bayes", "sure":
	case "":
		c.Threshold.Method = "universal"
	default:
		observ.Log("config_fallback", map[string]any{"field": "threshold.method", "got": c.Threshold.Method})
		c.Threshold.Method = "universal"
	}
	switch c.Threshold.Shrinkage {
	case "soft", "hard":
	case "":
		c.Threshold.Shrinkage = "soft"
	default:
		observ.Log("config_fallback", map[string]any{"field": "threshold.shrinkage", "got": c.Threshold.Shrinkage})
		c.Threshold.Shrinkage = "soft"
	}

	if c.Momentum.WindowSize <= 0 {
		c.Momentum.WindowSize = 16
	}
	if c.Momentum.Alpha <= 0 || c.Momentum.Alpha > 1 {
		c.Momentum.Alpha = 0.2
	}
	if c.Momentum.Scaling == 0 {
		c.Momentum.Scaling = 1000
	}
	if c.Momentum.LevelDecay < 0 {
		c.Momentum.LevelDecay = 0
	}
	if c.Momentum.LevelDecay == 0 {
		c.Momentum.LevelDecay = 0.5
	}
	switch c.Momentum.Mode {
	case "sum", "sign":
	case "":
		c.Momentum.Mode = "sum"
	default:
		observ.Log("config_fallback", map[string]any{"field": "momentum.mode", "got": c.Momentum.Mode})
		c.Momentum.Mode = "sum"
	}

	if c.WATR.Period <= 0 {
		c.WATR.Period = 14
	}
	if c.WATR.Levels <= 0 {
		c.WATR.Levels = c.Window.Levels
	}
	if c.WATR.Levels > c.Window.Levels {
		c.WATR.Levels = c.Window.Levels
	}
	if c.WATR.LevelDecay <= 0 {
		c.WATR.LevelDecay = 0.5
	}
	if c.WATR.Multiplier <= 0 {
		c.WATR.Multiplier = 2.0
	}
	if c.WATR.Window <= 0 {
		c.WATR.Window = 32
	}

	if c.Signal.MinSlope <= 0 {
		c.Signal.MinSlope = 0.25
	}
	if c.Signal.MomentumThreshold <= 0 {
		c.Signal.MomentumThreshold = 1.0
	}

	if c.Risk.BaseQuantity <= 0 {
		c.Risk.BaseQuantity = 1
	}
	if c.Risk.MaxRiskUSD < 0 {
		c.Risk.MaxRiskUSD = 0
	}
	if c.Risk.PointValue <= 0 {
		c.Risk.PointValue = 1.0
	}
	if c.Risk.StopMult <= 0 {
		c.Risk.StopMult = 2.0
	}
	if c.Risk.TargetMult <= 0 {
		c.Risk.TargetMult = 3.0
	}
	if c.Risk.MinStopPts <= 0 {
		c.Risk.MinStopPts = 0.25
	}
	if c.Risk.MaxStopPts <= 0 {
		c.Risk.MaxStopPts = 50
	}

	if c.Journal.Path == "" {
		c.Journal.Path = "data/orders.jsonl"
	}
	if c.Journal.DedupeWindowSecs <= 0 {
		c.Journal.DedupeWindowSecs = 90
	}
}
