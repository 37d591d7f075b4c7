// Package wire defines the JSON shapes exchanged with the outside world
// (SPEC_FULL.md §6) and the translation to/from the core matching types.
// Decimals are always carried as strings on the wire, never as JSON
// numbers, so a value with 18 significant digits never passes through a
// float64 on the way in or out.
package wire

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"matchbook/internal/matching"
)

// OrderRequest is the inbound order-submission body.
type OrderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	OrderType string  `json:"order_type"`
	Quantity  string  `json:"quantity"`
	Price     *string `json:"price"`
}

// OrderResponse is the outbound response to a submission.
type OrderResponse struct {
	Status string       `json:"status"`
	Reason string       `json:"reason,omitempty"`
	Trades []TradeEvent `json:"trades"`
}

// ErrorResponse is rendered for a validation failure (400) and, with a
// generic detail, for an internal error (500).
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// TradeEvent is published on the trade channel and also embedded in a
// successful OrderResponse.
type TradeEvent struct {
	TradeID       string `json:"trade_id"`
	Timestamp     string `json:"timestamp"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	AggressorSide string `json:"aggressor_side"`
	MakerOrderID  string `json:"maker_order_id"`
	TakerOrderID  string `json:"taker_order_id"`
}

// DepthSnapshot is published on the market-data channel after every
// accepted submission; a killed FOK publishes nothing.
type DepthSnapshot struct {
	Type      string     `json:"type"`
	Timestamp string     `json:"timestamp"`
	Symbol    string     `json:"symbol"`
	Asks      [][2]string `json:"asks"`
	Bids      [][2]string `json:"bids"`
}

// BBOSnapshot is published on the market-data channel after every
// accepted submission, immediately after the depth snapshot.
type BBOSnapshot struct {
	Type     string  `json:"type"`
	Symbol   string  `json:"symbol"`
	BestBid  *string `json:"best_bid"`
	BestAsk  *string `json:"best_ask"`
}

const iso8601Z = "2006-01-02T15:04:05.000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(iso8601Z)
}

// TradeEventFrom converts a core Trade into its wire representation.
func TradeEventFrom(t matching.Trade) TradeEvent {
	return TradeEvent{
		TradeID:       t.ID,
		Timestamp:     formatTimestamp(t.Timestamp),
		Symbol:        t.Symbol,
		Price:         t.Price.String(),
		Quantity:      t.Quantity.String(),
		AggressorSide: t.AggressorSide.String(),
		MakerOrderID:  t.MakerOrderID,
		TakerOrderID:  t.TakerOrderID,
	}
}

// DepthSnapshotFrom builds a depth snapshot from top-of-book level views.
func DepthSnapshotFrom(symbol string, asks, bids []matching.LevelView, at time.Time) DepthSnapshot {
	snap := DepthSnapshot{
		Type:      "depth",
		Timestamp: formatTimestamp(at),
		Symbol:    symbol,
		Asks:      make([][2]string, len(asks)),
		Bids:      make([][2]string, len(bids)),
	}
	for i, lvl := range asks {
		snap.Asks[i] = [2]string{lvl.Price.String(), lvl.Qty.String()}
	}
	for i, lvl := range bids {
		snap.Bids[i] = [2]string{lvl.Price.String(), lvl.Qty.String()}
	}
	return snap
}

// BBOSnapshotFrom builds a BBO snapshot; a missing side is rendered as a
// JSON null, matching the optional decimal wire contract.
func BBOSnapshotFrom(symbol string, bestBid matching.Decimal, hasBid bool, bestAsk matching.Decimal, hasAsk bool) BBOSnapshot {
	snap := BBOSnapshot{Type: "bbo", Symbol: symbol}
	if hasBid {
		s := bestBid.String()
		snap.BestBid = &s
	}
	if hasAsk {
		s := bestAsk.String()
		snap.BestAsk = &s
	}
	return snap
}

var (
	errUnknownSide      = errors.New("wire: side must be \"buy\" or \"sell\"")
	errUnknownOrderType = errors.New("wire: order_type must be one of \"market\", \"limit\", \"ioc\", \"fok\"")
)

// ParseSide translates the wire side string into matching.Side.
func ParseSide(s string) (matching.Side, error) {
	switch s {
	case "buy":
		return matching.Buy, nil
	case "sell":
		return matching.Sell, nil
	default:
		return 0, errUnknownSide
	}
}

// ParseOrderType translates the wire order_type string into matching.OrderType.
func ParseOrderType(s string) (matching.OrderType, error) {
	switch s {
	case "market":
		return matching.Market, nil
	case "limit":
		return matching.Limit, nil
	case "ioc":
		return matching.IOC, nil
	case "fok":
		return matching.FOK, nil
	default:
		return 0, errUnknownOrderType
	}
}

// ParseDecimal parses a wire decimal string, rejecting anything that
// would silently round-trip through a float.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wire: invalid decimal %q: %w", s, err)
	}
	return d, nil
}
