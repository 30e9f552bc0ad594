package realtime

import (
	"context"
	"time"

	"github.com/notewave/notewave/pkg/logger"
	"github.com/notewave/notewave/pkg/metrics"
)

// Conn is the transport handle for one attached connection. Send must not
// block: it reports false when the frame could not be accepted, and the hub
// treats that as a dropped best-effort delivery.
type Conn interface {
	ID() string
	Send(event string, data interface{}) bool
}

// PresenceEntry is one row of a room's occupancy listing.
type PresenceEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// participant is one connection's presence record within a room.
type participant struct {
	userID      string
	displayName string
	conn        Conn
}

// Hub is the presence registry and broadcast dispatcher. All room state is
// owned by a single run loop; the exported methods hand work to that loop and
// wait for it, so no two membership mutations ever interleave and no locks
// are needed. Deliveries to peers are non-blocking and unacknowledged.
type Hub struct {
	ops  chan func()
	done chan struct{}

	// rooms and seqs are touched only from the run loop
	rooms map[string]map[string]*participant
	seqs  map[string]int64

	occupancy OccupancyStore
}

// NewHub creates a hub. occ may be nil; when set, active counts are mirrored
// to it best-effort after every membership change. Callers must start Run in
// its own goroutine.
func NewHub(occ OccupancyStore) *Hub {
	return &Hub{
		ops:       make(chan func(), 64),
		done:      make(chan struct{}),
		rooms:     make(map[string]map[string]*participant),
		seqs:      make(map[string]int64),
		occupancy: occ,
	}
}

// Run processes hub operations until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case fn := <-h.ops:
			fn()
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Close() {
	close(h.done)
}

// do executes fn on the run loop and waits for it to finish.
func (h *Hub) do(fn func()) {
	donec := make(chan struct{})
	select {
	case h.ops <- func() {
		fn()
		close(donec)
	}:
	case <-h.done:
		return
	}
	select {
	case <-donec:
	case <-h.done:
	}
}

// Join attaches a connection to a note's room and announces it to the other
// participants. Re-joining under the same identity overwrites the previous
// connection handle and display name instead of adding a duplicate entry; the
// room holds at most one participant per identity.
func (h *Hub) Join(noteID, userID, displayName string, conn Conn) {
	h.do(func() {
		room := h.rooms[noteID]
		if room == nil {
			room = make(map[string]*participant)
			h.rooms[noteID] = room
		}
		_, rejoin := room[userID]
		room[userID] = &participant{userID: userID, displayName: displayName, conn: conn}

		if !rejoin {
			metrics.PresenceJoins.Inc()
			metrics.PresenceActive.Inc()
		}
		h.deliver(room, userID, EventPeerJoined, PeerJoined{
			UserID:      userID,
			DisplayName: displayName,
			ActiveCount: len(room),
		})
		h.mirror(noteID, len(room))
		logger.Debugf("presence: %s joined note %s (active=%d)", userID, noteID, len(room))
	})
}

// Leave detaches an identity from a room and announces the departure. The
// room is deleted when its last participant leaves.
func (h *Hub) Leave(noteID, userID string) {
	h.do(func() {
		h.removeLocked(noteID, userID)
	})
}

// LeaveByConn handles an abrupt disconnect: every room entry still bound to
// this connection handle is removed. A connection that re-joined elsewhere,
// or was never registered, matches nothing and the call is a no-op.
func (h *Hub) LeaveByConn(connID string) {
	h.do(func() {
		for noteID, room := range h.rooms {
			for userID, p := range room {
				if p.conn.ID() == connID {
					h.removeLocked(noteID, userID)
				}
			}
		}
	})
}

// removeLocked runs on the hub loop.
func (h *Hub) removeLocked(noteID, userID string) {
	room := h.rooms[noteID]
	if room == nil {
		return
	}
	if _, ok := room[userID]; !ok {
		return
	}
	delete(room, userID)
	metrics.PresenceLeaves.Inc()
	metrics.PresenceActive.Dec()

	if len(room) == 0 {
		delete(h.rooms, noteID)
	} else {
		h.deliver(room, userID, EventPeerLeft, PeerLeft{UserID: userID, ActiveCount: len(room)})
	}
	h.mirror(noteID, len(room))
	logger.Debugf("presence: %s left note %s (active=%d)", userID, noteID, len(room))
}

// ListActive reports the room's participants. Order is unspecified.
func (h *Hub) ListActive(noteID string) []PresenceEntry {
	var out []PresenceEntry
	h.do(func() {
		for _, p := range h.rooms[noteID] {
			out = append(out, PresenceEntry{UserID: p.userID, DisplayName: p.displayName})
		}
	})
	return out
}

// BroadcastContent relays a content change to every participant of the note's
// room except the sender, stamped with the next per-note edit sequence and
// the server time. The relay is independent of persistence.
func (h *Hub) BroadcastContent(noteID, senderID, senderName string, title, body *string) {
	h.do(func() {
		h.seqs[noteID]++
		h.deliver(h.rooms[noteID], senderID, EventContentBroadcast, ContentChange{
			NoteID:          noteID,
			Title:           title,
			Body:            body,
			UserID:          senderID,
			DisplayName:     senderName,
			Seq:             h.seqs[noteID],
			ServerTimestamp: time.Now().UTC(),
		})
	})
}

// BroadcastTyping relays a typing indicator to the sender's peers.
func (h *Hub) BroadcastTyping(noteID, senderID, senderName string, started bool) {
	h.do(func() {
		event := EventTypingStopped
		payload := Typing{NoteID: noteID, UserID: senderID}
		if started {
			event = EventTypingStarted
			payload.DisplayName = senderName
		}
		h.deliver(h.rooms[noteID], senderID, event, payload)
	})
}

// deliver fans an event out to every room participant except the sender.
// Best-effort: a participant that cannot accept the frame is skipped, never
// retried, and the sender is not told about partial delivery.
func (h *Hub) deliver(room map[string]*participant, senderID, event string, data interface{}) {
	for userID, p := range room {
		if userID == senderID {
			continue
		}
		if p.conn.Send(event, data) {
			metrics.BroadcastDelivered.WithLabelValues(event).Inc()
		} else {
			metrics.BroadcastDropped.WithLabelValues(event).Inc()
			logger.Warnf("broadcast: dropped %s for %s (receiver not accepting)", event, userID)
		}
	}
}

// mirror publishes the room's active count to the occupancy store without
// blocking the run loop.
func (h *Hub) mirror(noteID string, count int) {
	if h.occupancy == nil {
		return
	}
	occ := h.occupancy
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var err error
		if count == 0 {
			err = occ.Clear(ctx, noteID)
		} else {
			err = occ.SetActive(ctx, noteID, count)
		}
		if err != nil {
			logger.Debugf("occupancy mirror: %v", err)
		}
	}()
}
