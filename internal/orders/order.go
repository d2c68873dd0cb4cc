package orders

import (
	"github.com/google/uuid"
)

// Action is the direction of an individual order.
type Action int

const (
	Buy Action = iota
	Sell
)

func (a Action) String() string {
	if a == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the closing action.
func (a Action) Opposite() Action {
	if a == Buy {
		return Sell
	}
	return Buy
}

// Kind distinguishes the three legs of a bracket.
type Kind int

const (
	Market Kind = iota
	Stop
	Limit
)

func (k Kind) String() string {
	switch k {
	case Stop:
		return "stop"
	case Limit:
		return "limit"
	default:
		return "market"
	}
}

// Status tracks an order through its lifetime.
type Status int

const (
	StatusPending Status = iota
	StatusWorking
	StatusFilled
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusWorking:
		return "working"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Order is one leg of a bracket. Price is the stop or limit price and is
// zero for market orders.
type Order struct {
	ID         string
	Instrument string
	Kind       Kind
	Action     Action
	Quantity   int
	Price      float64
	Status     Status
}

func newOrder(instrument string, kind Kind, action Action, qty int, price float64) *Order {
	return &Order{
		ID:         uuid.NewString(),
		Instrument: instrument,
		Kind:       kind,
		Action:     action,
		Quantity:   qty,
		Price:      price,
		Status:     StatusPending,
	}
}

// Active reports whether the order can still fill or be modified.
func (o *Order) Active() bool {
	return o.Status == StatusPending || o.Status == StatusWorking
}

// Broker is the host execution API the manager submits through. Fills come
// back later via Manager.OnOrderFilled, possibly on a different thread.
type Broker interface {
	Submit(orders ...*Order) error
	CloseAtMarket(instrument string) error
}
