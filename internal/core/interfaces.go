package core

import (
	"errors"

	"github.com/knmori/lobby/internal/domain"
)

// Frame is a marshaled wire message.
type Frame []byte

// SessionID identifies one live connection.
type SessionID string

var ErrRoomNotFound = errors.New("room not found")

// IDSource produces opaque unique string tokens. Injectable so tests
// can supply deterministic ids instead of randomness.
type IDSource interface {
	NewID() string
}

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RoomSnapshot is a read-only copy for APIs and fan-out
// (no transport fields, safe to marshal).
type RoomSnapshot struct {
	RoomID  domain.RoomID `json:"roomId"`
	OwnerID domain.UserID `json:"ownerId"`
	Users   []domain.User `json:"users"`
}

type RoomInfo struct {
	RoomID      domain.RoomID `json:"roomId"`
	OwnerID     domain.UserID `json:"ownerId"`
	MemberCount int           `json:"memberCount"`
}

// RoomStore is the single source of truth for rooms and their ordered
// member lists. No I/O, no transport awareness.
type RoomStore interface {
	// CreateRoom allocates a room with a fresh id and seeds the member
	// list with the owner. Always succeeds.
	CreateRoom(owner domain.User) RoomSnapshot
	FindRoom(id domain.RoomID) (RoomSnapshot, bool)
	// JoinRoom appends user unless the same userId is already present,
	// in which case it is a no-op that still returns current state.
	// changed reports whether membership actually mutated.
	JoinRoom(id domain.RoomID, user domain.User) (snap RoomSnapshot, changed bool, err error)
	// LeaveRoom removes the matching member. Missing room or member is
	// not an error; removed is false and the caller moves on.
	LeaveRoom(id domain.RoomID, uid domain.UserID) (snap RoomSnapshot, removed bool)
	List() []RoomInfo
}

// Notifier fans out membership snapshots to the live subscribers of a
// room. It never keeps its own copy of who is in a room.
type Notifier interface {
	Subscribe(room domain.RoomID, sid SessionID, conn SignalConnection)
	Unsubscribe(room domain.RoomID, sid SessionID)
	// Notify delivers the user list to every subscriber of snap's room.
	// Best-effort: a non-writable connection is skipped.
	Notify(snap RoomSnapshot)
	// SendInitial delivers the first roster to a single new subscriber.
	SendInitial(conn SignalConnection, snap RoomSnapshot)
}
