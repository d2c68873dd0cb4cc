package orders

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantfold/wavetrend/internal/observ"
)

// Manager orchestrates entries, exits, and reversals: it builds bracket
// bundles, submits them through the broker, and keeps the tracker in step
// with fills. One Manager per instrument.
type Manager struct {
	mu         sync.Mutex
	instrument string
	broker     Broker
	journal    *Journal // optional
	tracker    *Tracker
	bundle     *Bundle
	limiter    *rate.Limiter

	// entry-leg fill accumulation for VWAP entry pricing
	entryFilledQty int
	entryCost      float64
}

// NewManager wires a manager. journal may be nil when no audit trail is
// wanted. The limiter bounds how fast brackets can be submitted so a
// flapping signal cannot spam the broker.
func NewManager(instrument string, broker Broker, journal *Journal) *Manager {
	return &Manager{
		instrument: instrument,
		broker:     broker,
		journal:    journal,
		tracker:    NewTracker(),
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// Tracker exposes the position tracker for display readers.
func (m *Manager) Tracker() *Tracker { return m.tracker }

// Bundle returns the current trade's order bundle, nil when flat.
func (m *Manager) Bundle() *Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bundle
}

// Enter opens a position with a three-leg bracket: market entry plus a
// protective stop and a profit target on the opposite side. A no-op when a
// position is already open or the submission throttle is exhausted.
func (m *Manager) Enter(side PositionSide, entry, stop, target float64, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enterUnsafe(side, entry, stop, target, qty)
}

func (m *Manager) enterUnsafe(side PositionSide, entry, stop, target float64, qty int) error {
	if side != Long && side != Short {
		return fmt.Errorf("enter requires a direction, got %s", side)
	}
	if qty <= 0 {
		observ.Log("entry_rejected", map[string]any{"instrument": m.instrument, "reason": "non_positive_qty", "qty": qty})
		return nil
	}
	if m.tracker.IsOpen() {
		observ.Log("entry_rejected", map[string]any{"instrument": m.instrument, "reason": "position_open"})
		observ.IncCounter("entries_rejected_total", map[string]string{"reason": "position_open"})
		return nil
	}
	if !m.limiter.Allow() {
		observ.Log("entry_rejected", map[string]any{"instrument": m.instrument, "reason": "throttled"})
		observ.IncCounter("entries_rejected_total", map[string]string{"reason": "throttled"})
		return nil
	}

	action := Buy
	if side == Short {
		action = Sell
	}

	bundle := NewBundle()
	mkt := newOrder(m.instrument, Market, action, qty, 0)
	stp := newOrder(m.instrument, Stop, action.Opposite(), qty, stop)
	tgt := newOrder(m.instrument, Limit, action.Opposite(), qty, target)
	bundle.AddMarket("entry", mkt)
	bundle.AddStop("stop", stp)
	bundle.AddTarget("target", tgt)

	if m.journal != nil {
		// stable per instrument and side, so a flapping signal cannot
		// resubmit the same entry inside the dedupe window
		key := fmt.Sprintf("%s_%s_entry", m.instrument, side)
		if dup, err := m.journal.HasRecentOrder(key); err == nil && dup {
			observ.IncCounter("entries_rejected_total", map[string]string{"reason": "duplicate"})
			return nil
		}
		for _, o := range bundle.Orders() {
			_ = m.journal.WriteOrder(JournalOrder{
				ID: o.ID, BundleID: bundle.ID(), Instrument: o.Instrument,
				Kind: o.Kind.String(), Action: o.Action.String(),
				Quantity: o.Quantity, Price: o.Price,
				Timestamp: time.Now().UTC(), IdempotencyKey: key,
			})
		}
	}

	if err := m.broker.Submit(mkt, stp, tgt); err != nil {
		return fmt.Errorf("submit bracket: %w", err)
	}
	for _, o := range []*Order{mkt, stp, tgt} {
		o.Status = StatusWorking
	}

	m.bundle = bundle
	m.entryFilledQty = 0
	m.entryCost = 0
	m.tracker.Open(side, entry, stop, target, qty)
	observ.Log("position_entered", map[string]any{
		"instrument": m.instrument, "side": side.String(),
		"entry": entry, "stop": stop, "target": target, "qty": qty,
	})
	observ.IncCounter("positions_opened_total", map[string]string{"side": side.String()})
	return nil
}

// Exit flattens the position at market. A no-op when already flat. The
// realized P&L is computed against currentPrice and logged.
func (m *Manager) Exit(currentPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitUnsafe(currentPrice)
}

func (m *Manager) exitUnsafe(currentPrice float64) error {
	if !m.tracker.IsOpen() {
		return nil
	}
	side, _, _, _, qty := m.tracker.Snapshot()
	realized := m.tracker.UnrealizedPnL(currentPrice)

	if err := m.broker.CloseAtMarket(m.instrument); err != nil {
		return fmt.Errorf("close at market: %w", err)
	}
	if m.bundle != nil {
		for _, o := range m.bundle.Orders() {
			if o.Active() {
				o.Status = StatusCancelled
			}
		}
	}
	m.bundle = nil
	m.tracker.Reset()

	observ.Log("position_exited", map[string]any{
		"instrument": m.instrument, "side": side.String(),
		"qty": qty, "price": currentPrice, "realized_pnl": realized,
	})
	observ.IncCounter("positions_closed_total", map[string]string{"side": side.String()})
	return nil
}

// Reverse exits the open position and enters the opposite side under one
// lock, so no reader ever observes both sides tracked as open.
func (m *Manager) Reverse(side PositionSide, entry, stop, target float64, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.exitUnsafe(entry); err != nil {
		return err
	}
	return m.enterUnsafe(side, entry, stop, target, qty)
}

// OnOrderFilled is the broker's fill callback. Invalid fills are rejected
// at the boundary without touching state. A fill that brings the aggregate
// position to zero is treated as a full exit.
func (m *Manager) OnOrderFilled(orderID string, price float64, qty int) {
	if qty <= 0 || price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		observ.Log("fill_rejected", map[string]any{"order_id": orderID, "price": price, "qty": qty})
		observ.IncCounter("fills_rejected_total", nil)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bundle == nil {
		observ.Log("fill_unmatched", map[string]any{"order_id": orderID})
		return
	}
	o, ok := m.bundle.Lookup(orderID)
	if !ok {
		observ.Log("fill_unmatched", map[string]any{"order_id": orderID})
		return
	}
	o.Status = StatusFilled

	if m.journal != nil {
		_ = m.journal.WriteFill(JournalFill{
			OrderID: orderID, Instrument: m.instrument,
			Quantity: qty, Price: price, Timestamp: time.Now().UTC(),
		})
	}

	side, _, _, _, _ := m.tracker.Snapshot()
	closing := (side == Long && o.Action == Sell) || (side == Short && o.Action == Buy)
	if !closing {
		// entry leg: refine the tracked entry to the fill VWAP
		m.entryFilledQty += qty
		m.entryCost += price * float64(qty)
		m.tracker.SetEntry(m.entryCost / float64(m.entryFilledQty))
		return
	}

	if remaining := m.tracker.reduce(qty); remaining == 0 {
		// protective legs are dead once the position is gone
		for _, ord := range m.bundle.Orders() {
			if ord.Active() {
				ord.Status = StatusCancelled
			}
		}
		m.bundle = nil
		observ.IncCounter("positions_closed_total", map[string]string{"side": side.String()})
	}
}

// ModifyAllStops trails every active stop of the current bundle and keeps
// the tracker's stop price in step. Returns the number of orders touched.
func (m *Manager) ModifyAllStops(newPrice float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bundle == nil {
		return 0
	}
	n := m.bundle.ModifyAllStops(newPrice)
	if n > 0 {
		m.tracker.SetStop(newPrice)
	}
	return n
}
