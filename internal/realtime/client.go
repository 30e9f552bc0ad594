package realtime

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/notewave/notewave/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// bodies run up to 50k characters; leave headroom for JSON framing
	maxMessageSize = 128 << 10
	sendBufferSize = 32
)

var nextClientID atomic.Int64

// wsClient binds one websocket connection to the hub. The read pump feeds
// client events into the hub; the write pump drains the send buffer. A full
// send buffer drops the frame (best-effort delivery).
type wsClient struct {
	id          string
	hub         *Hub
	conn        *websocket.Conn
	send        chan Envelope
	userID      string
	displayName string
}

func newWSClient(hub *Hub, conn *websocket.Conn, userID, displayName string) *wsClient {
	return &wsClient{
		id:          fmt.Sprintf("ws-%d", nextClientID.Add(1)),
		hub:         hub,
		conn:        conn,
		send:        make(chan Envelope, sendBufferSize),
		userID:      userID,
		displayName: displayName,
	}
}

func (c *wsClient) ID() string { return c.id }

// Send queues an outbound envelope. Never blocks the hub loop.
func (c *wsClient) Send(event string, data interface{}) bool {
	select {
	case c.send <- Envelope{Event: event, Data: data}:
		return true
	default:
		return false
	}
}

// readPump consumes client frames until the connection dies or sends
// something malformed. Presence cleanup by connection handle happens here and
// nowhere else, since the client cannot be trusted to announce disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.LeaveByConn(c.id)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("ws %s: read error: %v", c.id, err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			logger.Warnf("ws %s: malformed frame, closing: %v", c.id, err)
			return
		}
		if !c.handle(f) {
			return
		}
	}
}

// handle dispatches one client frame. Returns false when the connection
// should be closed (malformed join).
func (c *wsClient) handle(f Frame) bool {
	switch f.Event {
	case EventJoinRoom:
		var p JoinRoom
		if err := json.Unmarshal(f.Data, &p); err != nil || p.NoteID == "" {
			logger.Warnf("ws %s: malformed join, closing", c.id)
			return false
		}
		name := p.DisplayName
		if name == "" {
			name = c.displayName
		}
		c.hub.Join(p.NoteID, c.userID, name, c)
	case EventLeaveRoom:
		var p LeaveRoom
		if err := json.Unmarshal(f.Data, &p); err != nil || p.NoteID == "" {
			return true
		}
		c.hub.Leave(p.NoteID, c.userID)
	case EventContentBroadcast:
		var p ContentChange
		if err := json.Unmarshal(f.Data, &p); err != nil || p.NoteID == "" {
			return true
		}
		c.hub.BroadcastContent(p.NoteID, c.userID, c.displayName, p.Title, p.Body)
	case EventTypingStarted, EventTypingStopped:
		var p Typing
		if err := json.Unmarshal(f.Data, &p); err != nil || p.NoteID == "" {
			return true
		}
		c.hub.BroadcastTyping(p.NoteID, c.userID, c.displayName, f.Event == EventTypingStarted)
	default:
		logger.Debugf("ws %s: ignoring unknown event %q", c.id, f.Event)
	}
	return true
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
