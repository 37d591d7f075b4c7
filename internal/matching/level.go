package matching

import "container/list"

// PriceLevel aggregates every resting order at one price, FIFO by arrival.
// The queue is a container/list so the head can be popped in O(1) without
// reslicing or reallocating the backing array; callers must not keep raw
// *list.Element references across removals performed by anything other
// than themselves.
type PriceLevel struct {
	Price    Decimal
	TotalQty Decimal
	orders   *list.List
}

func newPriceLevel(price Decimal) *PriceLevel {
	return &PriceLevel{
		Price:    price,
		TotalQty: Zero,
		orders:   list.New(),
	}
}

// append pushes order at the tail and folds its quantity into TotalQty.
func (pl *PriceLevel) append(order *Order) {
	pl.orders.PushBack(order)
	pl.TotalQty = pl.TotalQty.Add(order.Quantity)
}

// head peeks the oldest resting order, or nil if the level is empty.
func (pl *PriceLevel) head() *Order {
	front := pl.orders.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*Order)
}

// popHead removes the head order. The caller owns TotalQty accounting for
// this path (decrementHead is preferred when reducing quantity to zero).
func (pl *PriceLevel) popHead() {
	front := pl.orders.Front()
	if front != nil {
		pl.orders.Remove(front)
	}
}

// decrementHead subtracts qty from the head order and from TotalQty,
// popping the head if it has been fully consumed.
func (pl *PriceLevel) decrementHead(qty Decimal) {
	head := pl.head()
	if head == nil {
		return
	}
	head.Quantity = head.Quantity.Sub(qty)
	pl.TotalQty = pl.TotalQty.Sub(qty)
	if head.Quantity.IsZero() {
		pl.popHead()
	}
}

func (pl *PriceLevel) isEmpty() bool {
	return pl.orders.Len() == 0
}

// Orders returns the resting orders oldest-first. Intended for snapshotting
// and tests; callers must not mutate the returned orders.
func (pl *PriceLevel) Orders() []*Order {
	orders := make([]*Order, 0, pl.orders.Len())
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		orders = append(orders, e.Value.(*Order))
	}
	return orders
}
