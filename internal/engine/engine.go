package engine

import (
	"fmt"
	"sync"

	"github.com/quantfold/wavetrend/internal/config"
	"github.com/quantfold/wavetrend/internal/indicator"
	"github.com/quantfold/wavetrend/internal/observ"
	"github.com/quantfold/wavetrend/internal/orders"
	"github.com/quantfold/wavetrend/internal/risk"
	"github.com/quantfold/wavetrend/internal/shrink"
	"github.com/quantfold/wavetrend/internal/signal"
	"github.com/quantfold/wavetrend/internal/wavelet"
	"github.com/quantfold/wavetrend/internal/window"
)

// PriceSource is the host's price history lookup. ok is false when no
// price exists for the bar.
type PriceSource interface {
	Close(index int) (price float64, ok bool)
}

// OutputSink receives the per-bar derived values the host displays.
type OutputSink interface {
	Emit(name string, barIndex int, value float64)
}

// Engine runs the per-bar pipeline for one instrument: price window →
// decomposition → shrinkage / indicators → signal state → order flow.
// The host may call Calculate from worker threads; one mutex serializes
// the whole bar so no reader observes half-updated state.
type Engine struct {
	mu        sync.Mutex
	cfg       config.Root
	buf       *window.Buffer
	transform wavelet.Transform
	method    shrink.Method
	mode      shrink.Mode
	watr      *indicator.WATR
	momentum  *indicator.Momentum
	machine   *signal.StateMachine
	manager   *orders.Manager

	prevTrend float64
	hasPrev   bool
}

// New resolves the transform once from the validated config and wires the
// pipeline. manager may be nil for signal-only (display) use.
func New(cfg config.Root, manager *orders.Manager) (*Engine, error) {
	cfg.ApplyDefaults()
	tr, err := wavelet.Resolve(cfg.Window.Wavelet)
	if err != nil {
		return nil, fmt.Errorf("resolve transform: %w", err)
	}
	return &Engine{
		cfg:       cfg,
		buf:       window.NewBuffer(),
		transform: tr,
		method:    shrink.ParseMethod(cfg.Threshold.Method),
		mode:      shrink.ParseMode(cfg.Threshold.Shrinkage),
		watr: indicator.NewWATR(indicator.WATRConfig{
			Period:     cfg.WATR.Period,
			LevelDecay: cfg.WATR.LevelDecay,
			Window:     cfg.WATR.Window,
		}),
		momentum: indicator.NewMomentum(indicator.MomentumConfig{
			WindowSize: cfg.Momentum.WindowSize,
			Alpha:      cfg.Momentum.Alpha,
			Scaling:    cfg.Momentum.Scaling,
			LevelDecay: cfg.Momentum.LevelDecay,
			Mode:       indicator.ParseMomentumMode(cfg.Momentum.Mode),
		}),
		machine: signal.New(signal.Config{
			MinSlope:          cfg.Signal.MinSlope,
			MomentumThreshold: cfg.Signal.MomentumThreshold,
		}),
		manager: manager,
	}, nil
}

// Reconfigure swaps the transform settings and atomically resets all
// derived state, so pre- and post-change statistics never blend. Must be
// called between bars.
func (e *Engine) Reconfigure(cfg config.Root) error {
	cfg.ApplyDefaults()
	tr, err := wavelet.Resolve(cfg.Window.Wavelet)
	if err != nil {
		return fmt.Errorf("resolve transform: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.transform = tr
	e.method = shrink.ParseMethod(cfg.Threshold.Method)
	e.mode = shrink.ParseMode(cfg.Threshold.Shrinkage)
	e.buf.Reset()
	e.watr.Reset()
	e.momentum.Reset()
	e.machine.Reset()
	e.prevTrend = 0
	e.hasPrev = false
	observ.Log("engine_reconfigured", map[string]any{
		"wavelet": cfg.Window.Wavelet, "window": cfg.Window.Length, "levels": cfg.Window.Levels,
	})
	return nil
}

// Calculate runs one bar. Bars with insufficient history emit no values.
// Errors mean the bar was skipped; engine state is left usable for the
// next bar and the caller decides what to log.
func (e *Engine) Calculate(barIndex int, prices PriceSource, out OutputSink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.cfg.Window.Length
	if barIndex+1 < n {
		return nil // not enough bars for a full window yet
	}

	snapshot, err := e.buf.Update(barIndex, n, prices.Close)
	if err != nil {
		return fmt.Errorf("window update: %w", err)
	}

	decomp, err := e.transform.Forward(snapshot, e.cfg.Window.Levels)
	if err != nil {
		return fmt.Errorf("forward transform: %w", err)
	}

	// momentum needs the coefficients as produced, before shrinkage
	rawDetails := decomp.Clone().Details

	for idx := range decomp.Details {
		t := shrink.Threshold(decomp.Details[idx], e.method, idx+1)
		shrink.Apply(decomp.Details[idx], t, e.mode)
	}

	watrInput := rawDetails
	if e.cfg.WATR.OnShrunk {
		watrInput = decomp.Details
	}
	watrVal := e.watr.Calculate(watrInput, e.cfg.WATR.Levels)
	momVal := e.momentum.Calculate(rawDetails, e.cfg.WATR.Levels)

	trend := decomp.Approx[len(decomp.Approx)-1]
	slope := 0.0
	if e.hasPrev {
		slope = trend - e.prevTrend
	}
	e.prevTrend = trend
	e.hasPrev = true

	events := e.machine.Evaluate(slope, momVal)
	if e.manager != nil {
		if err := e.act(events, snapshot[len(snapshot)-1], watrVal); err != nil {
			return err
		}
	}

	e.emit(out, barIndex, trend, slope, momVal, watrVal, decomp.Details)
	observ.IncCounter("bars_processed_total", nil)
	return nil
}

// act turns transition events into order flow. Reversals arrive as an exit
// followed by an entry and must not leave a window with both sides open,
// so they go through the manager's Reverse.
func (e *Engine) act(events []signal.Event, lastPrice, watrVal float64) error {
	if len(events) == 0 {
		return nil
	}

	var entry *signal.Event
	exit := false
	for i := range events {
		if events[i].Entry {
			entry = &events[i]
		} else {
			exit = true
		}
	}

	if entry == nil {
		return e.manager.Exit(lastPrice)
	}

	sizing := risk.SizeFromWATR(risk.SizerConfig{
		MaxRiskUSD:   e.cfg.Risk.MaxRiskUSD,
		BaseQuantity: e.cfg.Risk.BaseQuantity,
		PointValue:   e.cfg.Risk.PointValue,
		StopMult:     e.cfg.Risk.StopMult,
		MinStopPts:   e.cfg.Risk.MinStopPts,
		MaxStopPts:   e.cfg.Risk.MaxStopPts,
	}, watrVal)
	if sizing.FinalQuantity <= 0 {
		observ.Log("entry_skipped", map[string]any{"reason": "sized_to_zero", "watr": watrVal})
		return nil
	}

	targetDist := watrVal * e.cfg.Risk.TargetMult
	if targetDist < sizing.StopDistance {
		targetDist = sizing.StopDistance
	}

	side := orders.Long
	stop := lastPrice - sizing.StopDistance
	target := lastPrice + targetDist
	if entry.Side == signal.Short {
		side = orders.Short
		stop = lastPrice + sizing.StopDistance
		target = lastPrice - targetDist
	}

	if exit {
		return e.manager.Reverse(side, lastPrice, stop, target, sizing.FinalQuantity)
	}
	return e.manager.Enter(side, lastPrice, stop, target, sizing.FinalQuantity)
}

func (e *Engine) emit(out OutputSink, barIndex int, trend, slope, momVal, watrVal float64, details [][]float64) {
	if out == nil {
		return
	}
	out.Emit("trend", barIndex, trend)
	out.Emit("slope", barIndex, slope)
	out.Emit("momentum", barIndex, momVal)
	out.Emit("momentum_raw", barIndex, e.momentum.Raw())
	out.Emit("watr", barIndex, watrVal)
	out.Emit("watr_upper", barIndex, trend+e.cfg.WATR.Multiplier*watrVal)
	out.Emit("watr_lower", barIndex, trend-e.cfg.WATR.Multiplier*watrVal)

	long, short := e.machine.Active()
	out.Emit("long_active", barIndex, boolToFloat(long))
	out.Emit("short_active", barIndex, boolToFloat(short))

	for idx, lvl := range details {
		sign := 0.0
		if len(lvl) > 0 {
			last := lvl[len(lvl)-1]
			if last > 0 {
				sign = 1
			} else if last < 0 {
				sign = -1
			}
		}
		out.Emit(fmt.Sprintf("detail_sign_%d", idx+1), barIndex, sign)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
