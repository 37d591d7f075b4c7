// Package matching implements the per-symbol limit order book and the
// price-time-priority matching algorithm that runs against it.
package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decimal is the fixed-precision type used for every price and quantity in
// the book. No binary floating-point value is ever compared or summed here;
// shopspring/decimal backs all of it.
type Decimal = decimal.Decimal

// Zero is the additive identity, handy for accumulators.
var Zero = decimal.Zero

// Side is one of buy or sell.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType selects how an incoming order behaves against the book.
type OrderType int

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "unknown"
	}
}

// Order is a single resting or incoming instruction. Price is the zero
// value (and meaningless) for Market orders; every other order type
// requires a strictly positive price.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Type      OrderType
	Quantity  Decimal // remaining quantity; mutated downward as a maker
	Price     Decimal // only meaningful when HasPrice is true
	HasPrice  bool
	Timestamp time.Time
}

// NewOrder assigns a fresh ID and arrival timestamp. Callers are
// responsible for validating quantity/price before this is used; NewOrder
// itself does no validation. Residual orders that keep an existing ID and
// timestamp are built by Order.Residual, not by NewOrder.
func NewOrder(symbol string, side Side, typ OrderType, qty Decimal, price Decimal, hasPrice bool) Order {
	return Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Quantity:  qty,
		Price:     price,
		HasPrice:  hasPrice,
		Timestamp: time.Now().UTC(),
	}
}

// Residual returns a copy of o with a reduced quantity that keeps o's
// identity and arrival timestamp, so a partially-filled taker that rests
// as a maker carries on with the same priority it arrived with.
func (o Order) Residual(remaining Decimal) Order {
	residual := o
	residual.Quantity = remaining
	return residual
}

// Trade is an immutable, append-only record of one fill. The engine does
// not retain a trade log; Trade values only exist to be returned from a
// Match call and published to subscribers.
type Trade struct {
	ID            string
	Timestamp     time.Time
	Symbol        string
	Price         Decimal
	Quantity      Decimal
	AggressorSide Side
	MakerOrderID  string
	TakerOrderID  string
}

func newTrade(symbol string, price, qty Decimal, aggressor Side, makerID, takerID string) Trade {
	return Trade{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Symbol:        symbol,
		Price:         price,
		Quantity:      qty,
		AggressorSide: aggressor,
		MakerOrderID:  makerID,
		TakerOrderID:  takerID,
	}
}
