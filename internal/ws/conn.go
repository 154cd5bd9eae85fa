package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yunko006/blindotesto/internal/hub"
)

const (
	writeWait = 10 * time.Second

	// Clients ping every 30s; a connection that stays silent past pongWait
	// is considered dead and torn down.
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Conn pumps frames between one websocket and its room subscription.
// The read side feeds inbound frames to the protocol handler; the write
// side drains the subscription queue and keeps the transport alive with
// periodic pings.
type Conn struct {
	ws      *websocket.Conn
	sub     *hub.Subscription
	limiter *rate.Limiter

	handle   func(data []byte)
	teardown func()
}

func NewConn(wsConn *websocket.Conn, sub *hub.Subscription, handle func([]byte), teardown func()) *Conn {
	return &Conn{
		ws:      wsConn,
		sub:     sub,
		limiter: rate.NewLimiter(10, 20),

		handle:   handle,
		teardown: teardown,
	}
}

// Start launches both pumps and returns immediately.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.teardown()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.sub.ClientID, "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			slog.Warn("rate limited, frame dropped", "room", c.sub.RoomID, "clientId", c.sub.ClientID)
			continue
		}

		c.handle(data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.sub.Receive():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Subscription torn down or superseded.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
