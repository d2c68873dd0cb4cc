package signal

import (
	"sync"

	"github.com/quantfold/wavetrend/internal/observ"
)

// Side is the direction of an entry event.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Event is a state transition. Reversals produce an exit event immediately
// followed by an entry event in the same evaluation.
type Event struct {
	Entry bool
	Side  Side
}

// Config holds the hysteresis thresholds.
type Config struct {
	MinSlope          float64 // absolute trend points per bar
	MomentumThreshold float64
}

// StateMachine combines trend slope and momentum into a hysteretic
// long/short/flat state. It keeps exactly one bit of history per side:
// the previous bar's active flags. Events fire only on edges, so a
// condition re-affirmed bar after bar emits nothing.
type StateMachine struct {
	mu          sync.Mutex
	cfg         Config
	longActive  bool
	shortActive bool
}

func New(cfg Config) *StateMachine {
	return &StateMachine{cfg: cfg}
}

// Evaluate feeds one bar's slope and momentum and returns the transition
// events, in order. At most two: exit then entry (reversal).
func (sm *StateMachine) Evaluate(slope, momentum float64) []Event {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	longCond := slope > sm.cfg.MinSlope && momentum > sm.cfg.MomentumThreshold
	shortCond := slope < -sm.cfg.MinSlope && momentum < -sm.cfg.MomentumThreshold

	var events []Event

	switch {
	case longCond && !sm.longActive:
		if sm.shortActive {
			events = append(events, Event{Entry: false, Side: Short})
		}
		events = append(events, Event{Entry: true, Side: Long})
		sm.longActive, sm.shortActive = true, false

	case shortCond && !sm.shortActive:
		if sm.longActive {
			events = append(events, Event{Entry: false, Side: Long})
		}
		events = append(events, Event{Entry: true, Side: Short})
		sm.longActive, sm.shortActive = false, true

	case !longCond && !shortCond:
		if sm.longActive {
			events = append(events, Event{Entry: false, Side: Long})
		}
		if sm.shortActive {
			events = append(events, Event{Entry: false, Side: Short})
		}
		sm.longActive, sm.shortActive = false, false
	}

	for _, ev := range events {
		kind := "exit"
		if ev.Entry {
			kind = "entry"
		}
		observ.IncCounter("signal_transitions_total", map[string]string{"kind": kind, "side": ev.Side.String()})
	}
	return events
}

// Active reports the current flags, for the per-bar output surface.
func (sm *StateMachine) Active() (long, short bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.longActive, sm.shortActive
}

// Reset forces the machine flat without emitting events. Called on
// configuration change.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.longActive = false
	sm.shortActive = false
}
