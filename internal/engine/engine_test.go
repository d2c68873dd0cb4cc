package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/wavetrend/internal/config"
	"github.com/quantfold/wavetrend/internal/orders"
)

type rampSource struct{ n int }

func (r rampSource) Close(index int) (float64, bool) {
	if index < 0 || index >= r.n {
		return 0, false
	}
	return 100 + float64(index), true
}

type mapSink map[string]float64

func (m mapSink) Emit(name string, _ int, value float64) { m[name] = value }

type nullBroker struct{}

func (nullBroker) Submit(...*orders.Order) error { return nil }
func (nullBroker) CloseAtMarket(string) error    { return nil }

func testConfig() config.Root {
	cfg := config.Root{Instrument: "ES"}
	cfg.Window.Length = 32
	cfg.Window.Levels = 3
	cfg.Window.Wavelet = "haar"
	cfg.Momentum.Alpha = 1.0
	cfg.Momentum.Scaling = 1
	cfg.Signal.MinSlope = 1e-9
	cfg.Signal.MomentumThreshold = 1e-9
	cfg.ApplyDefaults()
	return cfg
}

func TestCalculate_InsufficientHistoryEmitsNothing(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	sink := mapSink{}
	require.NoError(t, eng.Calculate(10, rampSource{n: 500}, sink))
	assert.Empty(t, sink, "bars before a full window must emit no values")
}

func TestCalculate_EmitsFullOutputSurface(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	src := rampSource{n: 500}
	sink := mapSink{}
	require.NoError(t, eng.Calculate(40, src, sink))

	for _, name := range []string{
		"trend", "slope", "momentum", "momentum_raw",
		"watr", "watr_upper", "watr_lower",
		"long_active", "short_active",
		"detail_sign_1", "detail_sign_2", "detail_sign_3",
	} {
		_, ok := sink[name]
		assert.True(t, ok, "missing output %s", name)
	}
	assert.GreaterOrEqual(t, sink["watr"], 0.0)
	assert.Equal(t, sink["trend"]+2.0*sink["watr"], sink["watr_upper"])
}

func TestCalculate_RampProducesLongEntry(t *testing.T) {
	fb := nullBroker{}
	mgr := orders.NewManager("ES", fb, nil)
	eng, err := New(testConfig(), mgr)
	require.NoError(t, err)

	src := rampSource{n: 500}
	sink := mapSink{}
	for bar := 31; bar < 60; bar++ {
		require.NoError(t, eng.Calculate(bar, src, sink))
	}

	require.True(t, mgr.Tracker().IsOpen(), "a steady ramp must produce a long entry")
	assert.Equal(t, orders.Long, mgr.Tracker().Side())
	assert.Equal(t, 1.0, sink["long_active"])
	assert.Equal(t, 0.0, sink["short_active"])

	side, entry, stop, target, qty := mgr.Tracker().Snapshot()
	assert.Equal(t, orders.Long, side)
	assert.Equal(t, 1, qty)
	assert.Less(t, stop, entry, "long stop sits below entry")
	assert.Greater(t, target, entry, "long target sits above entry")
}

// vSource rises one point per bar to the peak, then falls symmetrically.
type vSource struct{ peak, n int }

func (v vSource) Close(index int) (float64, bool) {
	if index < 0 || index >= v.n {
		return 0, false
	}
	if index <= v.peak {
		return 100 + float64(index), true
	}
	return 100 + float64(2*v.peak-index), true
}

func TestCalculate_TrendRolloverFlipsPositionToShort(t *testing.T) {
	mgr := orders.NewManager("ES", nullBroker{}, nil)
	eng, err := New(testConfig(), mgr)
	require.NoError(t, err)

	src := vSource{peak: 100, n: 500}
	sink := mapSink{}
	for bar := 31; bar < 200; bar++ {
		require.NoError(t, eng.Calculate(bar, src, sink))
	}

	require.True(t, mgr.Tracker().IsOpen())
	assert.Equal(t, orders.Short, mgr.Tracker().Side(), "downtrend must leave a short position only")
	assert.Equal(t, 0.0, sink["long_active"])
	assert.Equal(t, 1.0, sink["short_active"])
}

func TestReconfigure_ResetsDerivedState(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	src := rampSource{n: 500}
	sink := mapSink{}
	for bar := 31; bar < 40; bar++ {
		require.NoError(t, eng.Calculate(bar, src, sink))
	}
	require.NotZero(t, sink["watr"])

	cfg := testConfig()
	cfg.Window.Wavelet = "db4"
	require.NoError(t, eng.Reconfigure(cfg))

	// first bar after the reset seeds statistics from scratch: the slope
	// history is gone, so no state machine flags can be carried over
	sink = mapSink{}
	require.NoError(t, eng.Calculate(100, src, sink))
	assert.Equal(t, 0.0, sink["slope"], "slope history must reset")
	assert.Equal(t, 0.0, sink["long_active"])
}

func TestReconfigure_RejectsUnknownWaveletViaFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Window.Wavelet = "sym9" // unknown name falls back to db4 in config
	cfg.ApplyDefaults()
	eng, err := New(cfg, nil)
	require.NoError(t, err, "config fallback must leave a resolvable wavelet")
	require.NotNil(t, eng)
}
