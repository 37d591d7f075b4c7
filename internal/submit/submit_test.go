package submit

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/fanout"
	"matchbook/internal/matching"
)

func mustDecimal(t *testing.T, s string) matching.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func newService(t *testing.T) *Service {
	t.Helper()
	hub := fanout.NewHub()
	tb, _ := tomb.WithContext(context.Background())
	hub.Start(tb)
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return NewService(matching.NewRegistry(), hub)
}

func TestValidate_RejectsMissingSymbol(t *testing.T) {
	req := Request{Quantity: mustDecimal(t, "1"), OrderType: matching.Market}
	err := Validate(req)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestValidate_RejectsNonPositiveQuantity(t *testing.T) {
	req := Request{Symbol: "BTC-USDT", Quantity: mustDecimal(t, "0"), OrderType: matching.Market}
	require.Error(t, Validate(req))
}

func TestValidate_RequiresPriceUnlessMarket(t *testing.T) {
	req := Request{Symbol: "BTC-USDT", Quantity: mustDecimal(t, "1"), OrderType: matching.Limit}
	require.Error(t, Validate(req))

	req.HasPrice = true
	req.Price = mustDecimal(t, "100")
	assert.NoError(t, Validate(req))
}

func TestValidate_MarketOrderNeedsNoPrice(t *testing.T) {
	req := Request{Symbol: "BTC-USDT", Quantity: mustDecimal(t, "1"), OrderType: matching.Market}
	assert.NoError(t, Validate(req))
}

func TestSubmit_LimitOrderRestsWhenBookEmpty(t *testing.T) {
	svc := newService(t)
	resp, err := svc.Submit(Request{
		Symbol:    "BTC-USDT",
		Side:      matching.Buy,
		OrderType: matching.Limit,
		Quantity:  mustDecimal(t, "1"),
		Price:     mustDecimal(t, "100"),
		HasPrice:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Trades)
}

func TestSubmit_CrossingLimitProducesTrade(t *testing.T) {
	svc := newService(t)
	_, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Sell, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)

	resp, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.True(t, resp.Trades[0].Price.Equal(mustDecimal(t, "100")))
}

func TestSubmit_FOKKilledLeavesBookUntouched(t *testing.T) {
	svc := newService(t)
	_, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Sell, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)

	resp, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.FOK,
		Quantity: mustDecimal(t, "5"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, resp.Status)
	assert.Equal(t, reasonFOKNotFillable, resp.Reason)
	assert.Empty(t, resp.Trades)

	// The resting sell order must still be there: a killed FOK changes
	// nothing about book state.
	followUp, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.Market,
		Quantity: mustDecimal(t, "1"),
	})
	require.NoError(t, err)
	require.Len(t, followUp.Trades, 1)
}

func TestSubmit_FOKFillableExecutesInFull(t *testing.T) {
	svc := newService(t)
	_, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Sell, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "2"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)

	resp, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.FOK,
		Quantity: mustDecimal(t, "2"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.True(t, resp.Trades[0].Quantity.Equal(mustDecimal(t, "2")))
}

func TestSubmit_IOCDiscardsResidualAndStillReportsOK(t *testing.T) {
	svc := newService(t)
	_, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Sell, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)

	resp, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.IOC,
		Quantity: mustDecimal(t, "5"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.True(t, resp.Trades[0].Quantity.Equal(mustDecimal(t, "1")))
}

func TestSubmit_PublishesTradeAndMarketDataEvents(t *testing.T) {
	svc := newService(t)
	tradesEndpoint := &recordingEndpoint{}
	marketEndpoint := &recordingEndpoint{}
	svc.hub.Trades.Subscribe(tradesEndpoint)
	svc.hub.MarketData.Subscribe(marketEndpoint)

	_, err := svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Sell, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Empty(t, tradesEndpoint.messages, "a resting order produces no trade")
	assert.Len(t, marketEndpoint.messages, 2, "depth then bbo")

	_, err = svc.Submit(Request{
		Symbol: "BTC-USDT", Side: matching.Buy, OrderType: matching.Limit,
		Quantity: mustDecimal(t, "1"), Price: mustDecimal(t, "100"), HasPrice: true,
	})
	require.NoError(t, err)
	assert.Len(t, tradesEndpoint.messages, 1)
	assert.Len(t, marketEndpoint.messages, 4)
}

type recordingEndpoint struct {
	messages [][]byte
}

func (r *recordingEndpoint) Send(message []byte) error {
	r.messages = append(r.messages, message)
	return nil
}
