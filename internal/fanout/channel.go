// Package fanout implements the event fan-out design of SPEC_FULL.md §4.5:
// two independent, best-effort broadcast channels (trades and market
// data), each with its own subscriber set and its own lock.
package fanout

import "sync"

// Endpoint is anything that can receive a published message. A failed
// Send drops the endpoint from the channel whose Publish attempted it;
// other channels it is subscribed to keep it. Delivery is never retried.
type Endpoint interface {
	Send(message []byte) error
}

// Channel is one logical event stream with its own subscriber set.
type Channel struct {
	mu          sync.Mutex
	subscribers map[Endpoint]struct{}
	pool        *DeliveryPool
}

func newChannel(pool *DeliveryPool) *Channel {
	return &Channel{subscribers: make(map[Endpoint]struct{}), pool: pool}
}

// Subscribe adds endpoint to the channel. Idempotent.
func (c *Channel) Subscribe(endpoint Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[endpoint] = struct{}{}
}

// Unsubscribe removes endpoint from the channel. Idempotent.
func (c *Channel) Unsubscribe(endpoint Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, endpoint)
}

// SubscriberCount reports how many endpoints are currently subscribed.
// Intended for diagnostics and tests.
func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

// Publish attempts delivery of message to every endpoint subscribed at
// the moment of the call. The subscriber set is snapshotted under the
// channel lock and released before any Send runs, so a slow or failing
// subscriber never holds up Subscribe/Unsubscribe or other deliveries.
//
// Publish blocks until delivery has been attempted to every endpoint in
// the snapshot. That barrier is what lets a caller publish several
// messages back to back (trade_1, ..., trade_k, depth, bbo) and have
// every still-subscribed endpoint observe them in that exact order: a
// caller's next message is not dispatched until delivery of its previous
// one to this channel has been fully attempted. Publish calls made
// concurrently from different goroutines are not serialised against each
// other.
func (c *Channel) Publish(message []byte) {
	c.mu.Lock()
	snapshot := make([]Endpoint, 0, len(c.subscribers))
	for e := range c.subscribers {
		snapshot = append(snapshot, e)
	}
	c.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var wg sync.WaitGroup
	failedCh := make(chan Endpoint, len(snapshot))
	wg.Add(len(snapshot))
	for _, endpoint := range snapshot {
		endpoint := endpoint
		c.pool.submit(func() {
			defer wg.Done()
			if err := endpoint.Send(message); err != nil {
				failedCh <- endpoint
			}
		})
	}
	wg.Wait()
	close(failedCh)

	if len(failedCh) == 0 {
		return
	}
	c.mu.Lock()
	for e := range failedCh {
		delete(c.subscribers, e)
	}
	c.mu.Unlock()
}
