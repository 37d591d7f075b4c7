package fanout

import "gopkg.in/tomb.v2"

// defaultPoolSize bounds how many subscriber sends run concurrently for a
// single publish. Small on purpose: the fan-out is meant to absorb one
// stalled websocket write, not to be a general job queue.
const defaultPoolSize = 8

// Hub owns the two independent event channels and the worker pool that
// backs delivery on both.
type Hub struct {
	Trades     *Channel
	MarketData *Channel

	pool *DeliveryPool
}

// NewHub constructs a Hub with empty subscriber sets on both channels.
func NewHub() *Hub {
	pool := NewDeliveryPool(defaultPoolSize)
	return &Hub{
		Trades:     newChannel(pool),
		MarketData: newChannel(pool),
		pool:       pool,
	}
}

// Start spawns the hub's delivery workers under t. Call once, from the
// process bootstrap, before any Publish call is made.
func (h *Hub) Start(t *tomb.Tomb) {
	h.pool.Start(t)
}
