package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

// fakeEndpoint records every message it receives. Send can be made to fail
// once to exercise the drop-on-failure path.
type fakeEndpoint struct {
	mu       sync.Mutex
	received [][]byte
	failNext bool
}

func (f *fakeEndpoint) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("simulated send failure")
	}
	f.received = append(f.received, message)
	return nil
}

func (f *fakeEndpoint) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.received))
	copy(out, f.received)
	return out
}

// startHub brings up a Hub with its delivery pool running, and tears it
// down when the test ends.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	tb, _ := tomb.WithContext(context.Background())
	hub.Start(tb)
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return hub
}

func TestChannel_SubscribeReceivesPublish(t *testing.T) {
	hub := startHub(t)
	endpoint := &fakeEndpoint{}

	hub.Trades.Subscribe(endpoint)
	assert.Equal(t, 1, hub.Trades.SubscriberCount())

	hub.Trades.Publish([]byte(`{"trade_id":"1"}`))

	require.Len(t, endpoint.messages(), 1)
	assert.Equal(t, `{"trade_id":"1"}`, string(endpoint.messages()[0]))
}

func TestChannel_UnsubscribeStopsDelivery(t *testing.T) {
	hub := startHub(t)
	endpoint := &fakeEndpoint{}

	hub.Trades.Subscribe(endpoint)
	hub.Trades.Unsubscribe(endpoint)
	assert.Equal(t, 0, hub.Trades.SubscriberCount())

	hub.Trades.Publish([]byte("should not arrive"))
	assert.Empty(t, endpoint.messages())
}

func TestChannel_FailedSendDropsSubscriber(t *testing.T) {
	hub := startHub(t)
	endpoint := &fakeEndpoint{failNext: true}

	hub.Trades.Subscribe(endpoint)
	hub.Trades.Publish([]byte("first")) // fails, endpoint dropped
	assert.Equal(t, 0, hub.Trades.SubscriberCount())

	hub.Trades.Publish([]byte("second")) // must not reach the dropped endpoint
	assert.Empty(t, endpoint.messages())
}

func TestChannel_PublishIsABarrierAcrossCalls(t *testing.T) {
	hub := startHub(t)
	endpoint := &fakeEndpoint{}
	hub.Trades.Subscribe(endpoint)

	// Every Publish call blocks until delivery to every current subscriber
	// has been attempted, so issuing three in a row must be observed by
	// the subscriber in that same order.
	hub.Trades.Publish([]byte("1"))
	hub.Trades.Publish([]byte("2"))
	hub.Trades.Publish([]byte("3"))

	got := endpoint.messages()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{string(got[0]), string(got[1]), string(got[2])})
}

func TestChannel_PublishWithNoSubscribersIsANoop(t *testing.T) {
	hub := startHub(t)
	assert.NotPanics(t, func() {
		hub.Trades.Publish([]byte("into the void"))
	})
}

func TestChannel_TradesAndMarketDataAreIndependent(t *testing.T) {
	hub := startHub(t)
	tradesEndpoint := &fakeEndpoint{}
	marketEndpoint := &fakeEndpoint{}

	hub.Trades.Subscribe(tradesEndpoint)
	hub.MarketData.Subscribe(marketEndpoint)

	hub.Trades.Publish([]byte("trade"))
	hub.MarketData.Publish([]byte("depth"))

	require.Len(t, tradesEndpoint.messages(), 1)
	assert.Equal(t, "trade", string(tradesEndpoint.messages()[0]))
	require.Len(t, marketEndpoint.messages(), 1)
	assert.Equal(t, "depth", string(marketEndpoint.messages()[0]))
}

func TestDeliveryPool_FanOutDoesNotSerialiseOnASlowSubscriber(t *testing.T) {
	hub := startHub(t)

	slow := &slowEndpoint{delay: 50 * time.Millisecond}
	fast := &fakeEndpoint{}
	hub.Trades.Subscribe(slow)
	hub.Trades.Subscribe(fast)

	start := time.Now()
	hub.Trades.Publish([]byte("x"))
	elapsed := time.Since(start)

	require.Len(t, fast.messages(), 1)
	assert.True(t, slow.called())
	// The barrier still waits for the slow endpoint, but the two sends run
	// concurrently rather than back to back, so this should land close to
	// one delay, not two or more.
	assert.Less(t, elapsed, 150*time.Millisecond)
}

type slowEndpoint struct {
	delay time.Duration
	mu    sync.Mutex
	hit   bool
}

func (s *slowEndpoint) Send([]byte) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.hit = true
	s.mu.Unlock()
	return nil
}

func (s *slowEndpoint) called() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hit
}
