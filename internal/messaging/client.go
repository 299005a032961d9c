// internal/messaging/client.go

package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Client represents a websocket client
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	userID string

	subMux sync.Mutex
	sub    *subscription

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		userID: userID,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.processMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) processMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad_request", "malformed frame")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		var req SubscribeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.ListingID == "" || req.OtherUserID == "" {
			c.sendError("bad_request", "subscribe requires listing_id and other_user_id")
			return
		}
		if err := c.subscribe(req.ListingID, req.OtherUserID); err != nil {
			c.sendError("subscribe_failed", err.Error())
		}

	case WSTypeUnsubscribe:
		c.unsubscribe()

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// subscribe attaches this connection to one conversation's insert events.
// The previous subscription, if any, is fully released first so a thread
// switch can never double-deliver or leak a listener.
func (c *Client) subscribe(listingID, otherUserID string) error {
	c.subMux.Lock()
	defer c.subMux.Unlock()

	if c.sub != nil {
		c.sub.release()
		c.sub = nil
	}

	events, cancel, err := c.hub.feed.Subscribe(c.hub.ctx, listingID)
	if err != nil {
		return err
	}

	sub := newSubscription(listingID, otherUserID, cancel)
	c.sub = sub

	go c.forwardEvents(sub, events)
	return nil
}

func (c *Client) unsubscribe() {
	c.subMux.Lock()
	defer c.subMux.Unlock()

	if c.sub != nil {
		c.sub.release()
		c.sub = nil
	}
}

// forwardEvents pushes matching feed events down the connection in the
// order the feed emits them. No re-sort against local timestamps happens
// here; the feed is an append-only stream.
func (c *Client) forwardEvents(sub *subscription, events <-chan *Message) {
	for msg := range events {
		if !sub.matches(c.userID, msg) {
			continue
		}
		if !sub.markSeen(msg.ID) {
			continue
		}

		data, err := json.Marshal(WSMessage{
			Type:      WSTypeMessage,
			Data:      mustMarshal(msg),
			Timestamp: msg.CreatedAt,
		})
		if err != nil {
			continue
		}

		c.enqueue(data)
	}
}

func (c *Client) sendError(code, message string) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeError,
		Data:      mustMarshal(WSError{Code: code, Message: message}),
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

// enqueue hands a frame to the write pump without ever blocking the caller:
// a closed client or a full buffer drops the frame.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		feedEventsDropped.Inc()
	}
}

// Close releases the subscription and the connection. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.unsubscribe()
		close(c.done)
	})
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling: %v", err)
		return json.RawMessage(`{}`)
	}
	return data
}
