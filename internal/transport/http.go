// Package transport provides the ambient HTTP and websocket surface
// described in SPEC_FULL.md §§4.7-4.8. None of the matching core depends
// on this package; it exists purely to make the module runnable end to
// end.
package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"matchbook/internal/fanout"
	"matchbook/internal/submit"
	"matchbook/internal/wire"
)

// NewRouter builds the gin engine exposing order submission, liveness,
// and the subscriber websocket upgrades.
func NewRouter(svc *submit.Service, hub *fanout.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", handleHealthz)
	r.POST("/orders", handleSubmit(svc))
	r.GET("/ws/trades", handleSubscribe(hub.Trades))
	r.GET("/ws/market-data", handleSubscribe(hub.MarketData))

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request handled")
	}
}

func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleSubmit(svc *submit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body wire.OrderRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, wire.ErrorResponse{Detail: err.Error()})
			return
		}

		req, err := requestFromWire(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, wire.ErrorResponse{Detail: err.Error()})
			return
		}

		resp, err := svc.Submit(req)
		if err != nil {
			if _, ok := err.(*submit.ValidationError); ok {
				c.JSON(http.StatusBadRequest, wire.ErrorResponse{Detail: err.Error()})
				return
			}
			log.Error().Err(err).Str("symbol", body.Symbol).Msg("order submission failed")
			c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Detail: "internal error"})
			return
		}

		out := wire.OrderResponse{Status: string(resp.Status), Reason: resp.Reason, Trades: []wire.TradeEvent{}}
		for _, t := range resp.Trades {
			out.Trades = append(out.Trades, wire.TradeEventFrom(t))
		}
		c.JSON(http.StatusOK, out)
	}
}

func requestFromWire(body wire.OrderRequest) (submit.Request, error) {
	side, err := wire.ParseSide(body.Side)
	if err != nil {
		return submit.Request{}, err
	}
	orderType, err := wire.ParseOrderType(body.OrderType)
	if err != nil {
		return submit.Request{}, err
	}
	qty, err := wire.ParseDecimal(body.Quantity)
	if err != nil {
		return submit.Request{}, err
	}

	req := submit.Request{
		Symbol:    body.Symbol,
		Side:      side,
		OrderType: orderType,
		Quantity:  qty,
	}
	if body.Price != nil {
		price, err := wire.ParseDecimal(*body.Price)
		if err != nil {
			return submit.Request{}, err
		}
		req.Price = price
		req.HasPrice = true
	}
	return req, nil
}
