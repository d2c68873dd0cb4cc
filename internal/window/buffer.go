package window

import (
	"fmt"
	"sync"

	"github.com/quantfold/wavetrend/internal/observ"
)

// PriceLookup returns the close for an absolute bar index. ok is false when
// the host has no price for that bar (gap, missing data).
type PriceLookup func(index int) (price float64, ok bool)

// Buffer keeps the rolling price window for one instrument. Update either
// refreshes the whole window or shifts it incrementally, fetching only the
// bars that entered the window since the previous call.
type Buffer struct {
	mu        sync.Mutex
	buf       []float64
	start     int // absolute bar index of buf[0]
	lastValid float64
	primed    bool // a valid price has been seen, forward-fill source exists
	init      bool
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Update advances the window so it ends at newBarIndex and returns a copy of
// the window contents. windowLength must be positive.
//
// A full refresh happens when the buffer is uninitialized, the window length
// changed, the requested start precedes the current start, or the shift is
// at least the window length. Otherwise only the bars that entered the
// window are fetched. A zero shift overwrites the last element, which is how
// in-progress bars are updated tick by tick.
func (b *Buffer) Update(newBarIndex, windowLength int, lookup PriceLookup) ([]float64, error) {
	if windowLength <= 0 {
		return nil, fmt.Errorf("window length must be positive, got %d", windowLength)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	newStart := newBarIndex - windowLength + 1

	if !b.init || len(b.buf) != windowLength || newStart < b.start || newStart-b.start >= windowLength {
		b.refresh(newStart, windowLength, lookup)
	} else if shift := newStart - b.start; shift > 0 {
		b.shift(shift, lookup)
	} else {
		// mid-bar tick: only the in-progress bar moved
		b.buf[len(b.buf)-1] = b.fetch(newBarIndex, lookup)
	}

	out := make([]float64, len(b.buf))
	copy(out, b.buf)
	return out, nil
}

// Start returns the absolute bar index of the first window element.
func (b *Buffer) Start() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.start
}

// Reset drops all buffered state, forcing a full refresh on the next Update.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = nil
	b.start = 0
	b.lastValid = 0
	b.primed = false
	b.init = false
}

func (b *Buffer) refresh(newStart, windowLength int, lookup PriceLookup) {
	if len(b.buf) != windowLength {
		b.buf = make([]float64, windowLength)
	}
	for i := 0; i < windowLength; i++ {
		b.buf[i] = b.fetch(newStart+i, lookup)
	}
	b.start = newStart
	b.init = true
}

func (b *Buffer) shift(n int, lookup PriceLookup) {
	copy(b.buf, b.buf[n:])
	tail := len(b.buf) - n
	for i := 0; i < n; i++ {
		b.buf[tail+i] = b.fetch(b.start+len(b.buf)+i, lookup)
	}
	b.start += n
}

// fetch applies the forward-fill policy: a missing price repeats the last
// valid one, or 0 if no valid price has ever been seen.
func (b *Buffer) fetch(index int, lookup PriceLookup) float64 {
	p, ok := lookup(index)
	if !ok {
		if !b.primed {
			observ.Log("price_missing_unprimed", map[string]any{"bar": index})
		}
		return b.lastValid
	}
	b.lastValid = p
	b.primed = true
	return p
}
