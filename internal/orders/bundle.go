package orders

import (
	"sync"

	"github.com/google/uuid"
)

// Bundle groups the related orders of one trade (entry, protective stops,
// targets) under caller-chosen tags. Orders are stored three ways: per-role
// tag maps, an order-ID index, and an ID → tag index for reverse lookup.
// An order belongs to at most one bundle; removing it on fill or cancel is
// the bundle owner's job.
type Bundle struct {
	mu      sync.Mutex
	id      string
	market  map[string]*Order // tag -> order
	stops   map[string]*Order
	targets map[string]*Order
	byID    map[string]*Order
	tagByID map[string]string
}

func NewBundle() *Bundle {
	return &Bundle{
		id:      uuid.NewString(),
		market:  map[string]*Order{},
		stops:   map[string]*Order{},
		targets: map[string]*Order{},
		byID:    map[string]*Order{},
		tagByID: map[string]string{},
	}
}

// ID returns the bundle's identifier.
func (b *Bundle) ID() string { return b.id }

// AddMarket registers the entry leg under tag.
func (b *Bundle) AddMarket(tag string, o *Order) { b.add(b.market, tag, o) }

// AddStop registers a protective stop leg under tag.
func (b *Bundle) AddStop(tag string, o *Order) { b.add(b.stops, tag, o) }

// AddTarget registers a profit target leg under tag.
func (b *Bundle) AddTarget(tag string, o *Order) { b.add(b.targets, tag, o) }

func (b *Bundle) add(m map[string]*Order, tag string, o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m[tag] = o
	b.byID[o.ID] = o
	b.tagByID[o.ID] = tag
}

// Lookup finds an order by its ID.
func (b *Bundle) Lookup(id string) (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.byID[id]
	return o, ok
}

// TagOf returns the tag an order was registered under.
func (b *Bundle) TagOf(id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tagByID[id]
	return t, ok
}

// MarketByTag returns the entry leg registered under tag.
func (b *Bundle) MarketByTag(tag string) (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.market[tag]
	return o, ok
}

// StopByTag returns the stop leg registered under tag.
func (b *Bundle) StopByTag(tag string) (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.stops[tag]
	return o, ok
}

// TargetByTag returns the target leg registered under tag.
func (b *Bundle) TargetByTag(tag string) (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.targets[tag]
	return o, ok
}

// Remove drops an order from the bundle entirely.
func (b *Bundle) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tag, ok := b.tagByID[id]
	if !ok {
		return
	}
	delete(b.market, tag)
	delete(b.stops, tag)
	delete(b.targets, tag)
	delete(b.byID, id)
	delete(b.tagByID, id)
}

// ModifyAllStops moves every still-active stop to newPrice and returns how
// many were touched. Filled and cancelled stops are left alone.
func (b *Bundle) ModifyAllStops(newPrice float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, o := range b.stops {
		if !o.Active() {
			continue
		}
		o.Price = newPrice
		n++
	}
	return n
}

// Orders returns all member orders, for submission as one bracket.
func (b *Bundle) Orders() []*Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Order, 0, len(b.byID))
	for _, o := range b.byID {
		out = append(out, o)
	}
	return out
}

// Counts reports total and still-active membership.
func (b *Bundle) Counts() (total, active int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.byID {
		total++
		if o.Active() {
			active++
		}
	}
	return total, active
}
