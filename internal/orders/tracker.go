package orders

import (
	"math"
	"sync"
)

// PositionSide is the direction of the tracked position.
type PositionSide int

const (
	Flat PositionSide = iota
	Long
	Short
)

func (s PositionSide) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Tracker holds the open position's prices and size and answers P&L and
// risk/reward questions. Fill callbacks arrive on broker threads while the
// calculation thread reads, so every accessor takes the mutex.
type Tracker struct {
	mu     sync.Mutex
	side   PositionSide
	entry  float64
	stop   float64
	target float64
	qty    int // always positive; side carries the sign
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Open records a new position. Any previous state is overwritten; the
// manager guarantees Open is only called when flat.
func (t *Tracker) Open(side PositionSide, entry, stop, target float64, qty int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.side = side
	t.entry = entry
	t.stop = stop
	t.target = target
	t.qty = qty
}

// Reset returns the tracker to flat.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.side = Flat
	t.entry, t.stop, t.target = 0, 0, 0
	t.qty = 0
}

// IsOpen reports whether a position is tracked.
func (t *Tracker) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.side != Flat && t.qty > 0
}

// Side returns the tracked direction.
func (t *Tracker) Side() PositionSide {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.side
}

// Snapshot returns the position fields at once.
func (t *Tracker) Snapshot() (side PositionSide, entry, stop, target float64, qty int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.side, t.entry, t.stop, t.target, t.qty
}

// UnrealizedPnL is (current - entry) signed by side, times quantity.
func (t *Tracker) UnrealizedPnL(current float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pnlUnsafe(current)
}

func (t *Tracker) pnlUnsafe(current float64) float64 {
	if t.side == Flat || t.qty == 0 {
		return 0
	}
	diff := current - t.entry
	if t.side == Short {
		diff = -diff
	}
	return diff * float64(t.qty)
}

// Risk is the per-unit distance from entry to stop.
func (t *Tracker) Risk() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return math.Abs(t.entry - t.stop)
}

// Reward is the per-unit distance from entry to target.
func (t *Tracker) Reward() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return math.Abs(t.target - t.entry)
}

// RiskReward is reward over risk, 0 when risk is 0.
func (t *Tracker) RiskReward() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	risk := math.Abs(t.entry - t.stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(t.target-t.entry) / risk
}

// reduce folds a closing fill into the position and returns the remaining
// quantity; 0 means the position fully closed and the tracker is reset.
func (t *Tracker) reduce(qty int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.qty -= qty
	if t.qty <= 0 {
		t.qty = 0
		t.side = Flat
		t.entry, t.stop, t.target = 0, 0, 0
	}
	return t.qty
}

// SetEntry replaces the tracked entry price, used by the manager to fold
// partial entry fills into a volume-weighted entry.
func (t *Tracker) SetEntry(price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry = price
}

// SetStop moves the tracked stop price, for trailing-stop updates.
func (t *Tracker) SetStop(price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop = price
}
