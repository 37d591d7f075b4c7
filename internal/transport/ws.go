package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"matchbook/internal/fanout"
)

const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The subscriber transport is not the subject of this design; any
	// origin may open a feed connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEndpoint adapts a websocket connection to fanout.Endpoint. Writes are
// serialised with a mutex because a gorilla/websocket connection does not
// permit concurrent writers, and Send may be called concurrently by the
// delivery pool for different publishes.
type wsEndpoint struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (e *wsEndpoint) Send(message []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return e.conn.WriteMessage(websocket.TextMessage, message)
}

// handleSubscribe upgrades the connection, subscribes it to channel, and
// blocks reading inbound frames purely to detect the client going away.
// Inbound frames carry no semantics except a "ping" text payload, which
// is answered with "pong" as a liveness reply; anything else is ignored.
func handleSubscribe(channel *fanout.Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		endpoint := &wsEndpoint{conn: conn}
		channel.Subscribe(endpoint)
		defer channel.Unsubscribe(endpoint)

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(message) == "ping" {
				_ = endpoint.Send([]byte("pong"))
			}
		}
	}
}
