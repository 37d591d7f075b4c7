// Package submit implements the order-submission entry point: the thin
// dispatcher described in SPEC_FULL.md §4.6 that ties validation, the
// book registry, the matcher, and the event fan-out together.
package submit

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"matchbook/internal/fanout"
	"matchbook/internal/matching"
	"matchbook/internal/wire"
)

// Status is the outcome reported back to the submitter.
type Status string

const (
	StatusOK     Status = "ok"
	StatusKilled Status = "killed"
)

const reasonFOKNotFillable = "FOK not fillable"

const depthLevels = 10

// Request is a validated-on-entry order submission.
type Request struct {
	Symbol    string
	Side      matching.Side
	OrderType matching.OrderType
	Quantity  matching.Decimal
	Price     matching.Decimal
	HasPrice  bool
}

// Response is returned to the submitter once matching (and, on success,
// publication) has completed.
type Response struct {
	Status Status
	Reason string
	Trades []matching.Trade
}

// ValidationError reports a malformed submission. The HTTP transport
// renders it as a 400 with {"detail": err.Error()}.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

func validationError(msg string) *ValidationError { return &ValidationError{msg: msg} }

// Validate checks a request against SPEC_FULL.md §4.6 step 1, without
// touching any book.
func Validate(req Request) error {
	if req.Symbol == "" {
		return validationError("symbol is required")
	}
	if !req.Quantity.IsPositive() {
		return validationError("quantity must be > 0")
	}
	if req.OrderType != matching.Market {
		if !req.HasPrice {
			return validationError("price is required for limit, ioc, and fok orders")
		}
		if !req.Price.IsPositive() {
			return validationError("price must be > 0")
		}
	}
	return nil
}

// Service wires the registry and the fan-out hub together; it has no
// other state and no lock of its own — exclusion lives at the book level.
type Service struct {
	registry *matching.Registry
	hub      *fanout.Hub
}

// NewService constructs a Service over an existing registry and hub.
func NewService(registry *matching.Registry, hub *fanout.Hub) *Service {
	return &Service{registry: registry, hub: hub}
}

// Submit runs the full entry-point contract: validate, look up the book,
// match (or FOK-kill) under its exclusive lock, then publish the results
// after the lock is released.
func (s *Service) Submit(req Request) (Response, error) {
	if err := Validate(req); err != nil {
		return Response{}, err
	}

	var (
		trades          []matching.Trade
		killed          bool
		asks, bids      []matching.LevelView
		bestBid, bestAsk matching.Decimal
		hasBid, hasAsk  bool
	)

	err := s.registry.WithBook(req.Symbol, func(book *matching.OrderBook) error {
		incoming := matching.NewOrder(req.Symbol, req.Side, req.OrderType, req.Quantity, req.Price, req.HasPrice)

		if req.OrderType == matching.FOK {
			available := book.SumAvailable(req.Side, req.Price)
			if available.LessThan(req.Quantity) {
				killed = true
				return nil
			}
		}

		var matchErr error
		trades, matchErr = matching.Match(incoming, book)
		if matchErr != nil {
			return matchErr
		}

		asks, bids = book.TopN(depthLevels)
		bestBid, hasBid = book.BestBid()
		bestAsk, hasAsk = book.BestAsk()
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	if killed {
		return Response{Status: StatusKilled, Reason: reasonFOKNotFillable}, nil
	}

	s.publish(req.Symbol, trades, asks, bids, bestBid, hasBid, bestAsk, hasAsk)

	return Response{Status: StatusOK, Trades: trades}, nil
}

// publish delivers trade events, then the depth snapshot, then the BBO
// snapshot, in that order, per the fan-out's ordering contract. Each
// Channel.Publish call is itself a barrier (see internal/fanout), so
// publishing sequentially here is sufficient to discharge the contract
// without any extra synchronisation.
func (s *Service) publish(symbol string, trades []matching.Trade, asks, bids []matching.LevelView, bestBid matching.Decimal, hasBid bool, bestAsk matching.Decimal, hasAsk bool) {
	now := time.Now().UTC()

	for _, t := range trades {
		payload, err := json.Marshal(wire.TradeEventFrom(t))
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to encode trade event")
			continue
		}
		s.hub.Trades.Publish(payload)
	}

	depth, err := json.Marshal(wire.DepthSnapshotFrom(symbol, asks, bids, now))
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("failed to encode depth snapshot")
	} else {
		s.hub.MarketData.Publish(depth)
	}

	bbo, err := json.Marshal(wire.BBOSnapshotFrom(symbol, bestBid, hasBid, bestAsk, hasAsk))
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("failed to encode bbo snapshot")
	} else {
		s.hub.MarketData.Publish(bbo)
	}
}
