package matching

// Match runs incoming against book under price-time priority and returns
// the trades produced, in the temporal order of the walk. The caller must
// hold the book's exclusive lock for the whole call — Match performs no
// locking of its own and must run to completion without yielding once
// invoked (see the concurrency model in SPEC_FULL.md §5).
//
// incoming must already have passed validation: positive quantity, and a
// positive price when its type is not Market. FOK's fill-or-kill
// pre-check is the caller's responsibility (see internal/submit), because
// killing an order must happen before any state change and Match itself
// always commits whatever it walks.
func Match(incoming Order, book *OrderBook) ([]Trade, error) {
	if incoming.Type != Market && !incoming.HasPrice {
		return nil, invariantViolation(incoming.Symbol, "non-market order submitted without a price")
	}

	var trades []Trade
	remaining := incoming.Quantity

	for !remaining.IsZero() {
		level, ok := bestOpposingLevel(incoming.Side, book)
		if !ok {
			break
		}
		if !priceAcceptable(incoming, level.Price) {
			break
		}

		for !remaining.IsZero() && !level.isEmpty() {
			maker := level.head()
			if maker == nil {
				return nil, invariantViolation(incoming.Symbol, "price level reported non-empty but has no head order")
			}

			matchQty := decimalMin(remaining, maker.Quantity)
			trades = append(trades, newTrade(
				incoming.Symbol,
				level.Price,
				matchQty,
				incoming.Side,
				maker.ID,
				incoming.ID,
			))

			level.decrementHead(matchQty)
			remaining = remaining.Sub(matchQty)
		}

		if level.TotalQty.IsZero() {
			book.removeLevel(oppositeSide(incoming.Side), level.Price)
		} else if level.TotalQty.IsNegative() {
			return nil, invariantViolation(incoming.Symbol, "price level total_qty went negative")
		}
	}

	if remaining.IsPositive() && incoming.Type == Limit {
		residual := incoming.Residual(remaining)
		if err := book.AddLimit(&residual); err != nil {
			return nil, err
		}
	}

	return trades, nil
}

// bestOpposingLevel returns the level an incoming order on side would
// match against next: asks ascending for a buy, bids descending for a
// sell.
func bestOpposingLevel(side Side, book *OrderBook) (*PriceLevel, bool) {
	if side == Buy {
		return book.asks.MinMut()
	}
	return book.bids.MaxMut()
}

func oppositeSide(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// priceAcceptable reports whether an opposing level at opposingPrice may
// be matched against incoming.
func priceAcceptable(incoming Order, opposingPrice Decimal) bool {
	if incoming.Type == Market {
		return true
	}
	if incoming.Side == Buy {
		return opposingPrice.LessThanOrEqual(incoming.Price)
	}
	return opposingPrice.GreaterThanOrEqual(incoming.Price)
}

func decimalMin(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
