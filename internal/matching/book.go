package matching

import (
	"errors"

	"github.com/tidwall/btree"
)

// ErrNonPositiveQuantity is returned by AddLimit when asked to rest an
// order whose quantity is not strictly positive.
var ErrNonPositiveQuantity = errors.New("matching: order quantity must be strictly positive")

// levels is the ordered-map type backing both sides of a book. It is kept
// as a type alias so book.go and matcher.go can name it without repeating
// the generic instantiation. tidwall/btree gives O(log n) insert/remove,
// O(log n) extremum access via Min/Max, and ordered
// iteration in both directions — the properties a plain Go map cannot
// offer and that the design explicitly requires.
type levels = btree.BTreeG[*PriceLevel]

func newLevels() *levels {
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
}

// OrderBook is the per-symbol book: two ascending-price-ordered maps of
// price levels. Both maps are always sorted by actual ascending price;
// "best bid" is read off the high end and "best ask" off the low end.
// An OrderBook has no internal locking of its own — the registry holds a
// mutex per symbol and matching runs under it exclusively (see registry.go).
type OrderBook struct {
	Symbol string
	bids   *levels
	asks   *levels
}

// NewOrderBook constructs an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids:   newLevels(),
		asks:   newLevels(),
	}
}

func (b *OrderBook) sideTree(side Side) *levels {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// AddLimit inserts order into the book on its own side, creating the price
// level if this is the first order resting at that price.
func (b *OrderBook) AddLimit(order *Order) error {
	if !order.Quantity.IsPositive() {
		return ErrNonPositiveQuantity
	}
	tree := b.sideTree(order.Side)
	probe := &PriceLevel{Price: order.Price}
	if level, ok := tree.GetMut(probe); ok {
		level.append(order)
		return nil
	}
	level := newPriceLevel(order.Price)
	level.append(order)
	tree.Set(level)
	return nil
}

// removeLevel deletes the level at price from side's tree. It is a no-op
// if no level rests there.
func (b *OrderBook) removeLevel(side Side, price Decimal) {
	probe := &PriceLevel{Price: price}
	b.sideTree(side).Delete(probe)
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (Decimal, bool) {
	level, ok := b.bids.Max()
	if !ok {
		return Zero, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (Decimal, bool) {
	level, ok := b.asks.Min()
	if !ok {
		return Zero, false
	}
	return level.Price, true
}

// LevelView is an aggregated read-only view of one price level, used for
// depth snapshots.
type LevelView struct {
	Price Decimal
	Qty   Decimal
}

// TopN returns up to n ask levels ascending by price and up to n bid
// levels descending by price.
func (b *OrderBook) TopN(n int) (asks, bids []LevelView) {
	asks = make([]LevelView, 0, n)
	b.asks.Scan(func(level *PriceLevel) bool {
		if len(asks) >= n {
			return false
		}
		asks = append(asks, LevelView{Price: level.Price, Qty: level.TotalQty})
		return true
	})

	bids = make([]LevelView, 0, n)
	b.bids.Reverse(func(level *PriceLevel) bool {
		if len(bids) >= n {
			return false
		}
		bids = append(bids, LevelView{Price: level.Price, Qty: level.TotalQty})
		return true
	})
	return asks, bids
}

// SumAvailable sums total_qty over the opposite side's levels that are
// price-acceptable to a taker on takerSide limited at limitPrice. It is
// the FOK pre-check primitive: a buy accepts ask prices <= limitPrice, a
// sell accepts bid prices >= limitPrice. Because each tree is sorted
// ascending, the scan stops at the first unacceptable level.
func (b *OrderBook) SumAvailable(takerSide Side, limitPrice Decimal) Decimal {
	total := Zero
	if takerSide == Buy {
		b.asks.Scan(func(level *PriceLevel) bool {
			if level.Price.GreaterThan(limitPrice) {
				return false
			}
			total = total.Add(level.TotalQty)
			return true
		})
		return total
	}
	b.bids.Reverse(func(level *PriceLevel) bool {
		if level.Price.LessThan(limitPrice) {
			return false
		}
		total = total.Add(level.TotalQty)
		return true
	})
	return total
}

// Levels returns the resting price levels for a side in the tree's
// canonical ascending-price order. Intended for tests and diagnostics.
func (b *OrderBook) Levels(side Side) []*PriceLevel {
	tree := b.sideTree(side)
	out := make([]*PriceLevel, 0, tree.Len())
	tree.Scan(func(level *PriceLevel) bool {
		out = append(out, level)
		return true
	})
	return out
}
