package rendezvous

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP payloads fit well
	// within this.
	maxMessageSize = 64 * 1024
)

// Client wraps a single participant's websocket connection.
type Client struct {
	Hub *Hub

	// ID is the server-assigned connection identifier.
	ID string

	Conn *websocket.Conn

	// RoomCode is set once the client has joined a room.
	RoomCode string

	// Send is the buffered outbound queue drained by WritePump.
	Send chan *signaling.Message
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine, ensuring at
// most one reader per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg signaling.Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", zap.String("member", c.ID), zap.Error(err))
			}
			break
		}

		c.Hub.Inbound <- &ClientMessage{From: c, Msg: &msg}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with pings. One goroutine per connection
// ensures at most one writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Hub.log.Warn("websocket write failed", zap.String("member", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
