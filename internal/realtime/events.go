package realtime

import (
	"encoding/json"
	"time"
)

// Wire event kinds for the realtime channel.
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventPeerJoined       = "peer-joined"
	EventPeerLeft         = "peer-left"
	EventContentBroadcast = "content-broadcast"
	EventTypingStarted    = "typing-started"
	EventTypingStopped    = "typing-stopped"
)

// Frame is an inbound client message: event kind plus raw payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is an outbound server message.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// JoinRoom is the client request to attach to a note's room. The identity is
// taken from the authenticated connection, never from the payload.
type JoinRoom struct {
	NoteID      string `json:"noteId"`
	DisplayName string `json:"displayName,omitempty"`
}

// LeaveRoom is the client request to detach from a note's room.
type LeaveRoom struct {
	NoteID string `json:"noteId"`
}

// PeerJoined announces a new participant to the rest of the room.
type PeerJoined struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ActiveCount int    `json:"activeCount"`
}

// PeerLeft announces a departure to the rest of the room.
type PeerLeft struct {
	UserID      string `json:"userId"`
	ActiveCount int    `json:"activeCount"`
}

// ContentChange is the content-broadcast payload. Inbound it carries the
// note id and the changed fields; relayed to peers it additionally carries
// the sender, the hub-stamped edit sequence and the server timestamp.
// A relayed change implies nothing about durable persistence.
type ContentChange struct {
	NoteID          string    `json:"noteId"`
	Title           *string   `json:"title,omitempty"`
	Body            *string   `json:"body,omitempty"`
	UserID          string    `json:"userId,omitempty"`
	DisplayName     string    `json:"displayName,omitempty"`
	Seq             int64     `json:"seq,omitempty"`
	ServerTimestamp time.Time `json:"serverTimestamp,omitempty"`
}

// Typing is the payload for typing-started/typing-stopped. DisplayName is
// only carried on typing-started.
type Typing struct {
	NoteID      string `json:"noteId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}
