// Command matchbookctl is a small CLI client for matchbookd, adapted
// from the teacher repo's cmd/client/client.go: flag-driven, one-shot
// actions, optionally followed by watching a live feed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"matchbook/internal/wire"
)

func main() {
	server := flag.String("server", "127.0.0.1:8080", "matchbookd address (host:port)")
	action := flag.String("action", "place", "action to perform: ['place', 'watch-trades', 'watch-market']")

	symbol := flag.String("symbol", "BTC-USDT", "instrument symbol")
	side := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	orderType := flag.String("type", "limit", "order type: 'market', 'limit', 'ioc', or 'fok'")
	price := flag.String("price", "", "limit price (required unless -type=market)")
	qty := flag.String("qty", "1", "order quantity")

	flag.Parse()

	switch strings.ToLower(*action) {
	case "place":
		if err := placeOrder(*server, *symbol, *side, *orderType, *qty, *price); err != nil {
			log.Fatalf("order submission failed: %v", err)
		}
	case "watch-trades":
		watch(*server, "/ws/trades")
	case "watch-market":
		watch(*server, "/ws/market-data")
	default:
		log.Fatalf("unknown action: %s", *action)
	}
}

func placeOrder(server, symbol, side, orderType, qty, price string) error {
	body := wire.OrderRequest{
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Quantity:  qty,
	}
	if price != "" {
		body.Price = &price
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("http://%s/orders", server), "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// watch dials a duplex subscriber feed and prints every frame it
// receives until the connection closes (e.g. on Ctrl+C).
func watch(server, path string) {
	u := url.URL{Scheme: "ws", Host: server, Path: path}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	fmt.Printf("watching %s (Ctrl+C to exit)\n", u.String())
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
			return
		}
		fmt.Println(string(message))
	}
}
