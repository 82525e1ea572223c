package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

var ErrUnknownSession = errors.New("unknown session")

// Lobby is the single owner of room state transitions. Every mutation
// runs together with its fan-out under one mutex, so each subscriber
// observes updates in true mutation order. Fan-out itself is
// non-blocking per recipient, so holding the mutex never waits on a
// slow client.
type Lobby struct {
	mu       sync.Mutex
	store    core.RoomStore
	notifier core.Notifier
	ids      core.IDSource
	registry *Registry
}

func NewLobby(store core.RoomStore, notifier core.Notifier, ids core.IDSource, registry *Registry) *Lobby {
	return &Lobby{store: store, notifier: notifier, ids: ids, registry: registry}
}

// CreateRoom allocates a room seeded with its owner. Nothing observes
// a brand-new room yet, so there is no fan-out.
func (l *Lobby) CreateRoom(owner domain.User) core.RoomSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.CreateRoom(owner)
}

// JoinRoom adds user to a room and broadcasts the new roster to that
// room's subscribers. An idempotent re-join changes nothing and stays
// silent.
func (l *Lobby) JoinRoom(room domain.RoomID, user domain.User) (core.RoomSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap, changed, err := l.store.JoinRoom(room, user)
	if err != nil {
		return core.RoomSnapshot{}, err
	}
	if changed {
		l.notifier.Notify(snap)
	}
	return snap, nil
}

// LeaveRoom removes the member and, if membership actually changed,
// re-broadcasts to the remaining subscribers.
func (l *Lobby) LeaveRoom(room domain.RoomID, uid domain.UserID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap, removed := l.store.LeaveRoom(room, uid)
	if removed {
		l.notifier.Notify(snap)
	}
	return removed
}

func (l *Lobby) FindRoom(room domain.RoomID) (core.RoomSnapshot, bool) {
	return l.store.FindRoom(room)
}

func (l *Lobby) Rooms() []core.RoomInfo {
	return l.store.List()
}

// Attach registers an open, unbound connection with the session
// registry. The adapter calls Detach when the transport closes.
func (l *Lobby) Attach(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	l.registry.Attach(sid, conn, cancel)
}

// CreateRoomFor creates a room on behalf of a live connection and
// subscribes it to the room it now owns.
func (l *Lobby) CreateRoomFor(sid core.SessionID, owner domain.User) (core.RoomSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	conn, ok := l.registry.ConnOf(sid)
	if !ok {
		return core.RoomSnapshot{}, ErrUnknownSession
	}
	l.unbindLocked(sid, "")
	snap := l.store.CreateRoom(owner)
	l.registry.Bind(sid, snap.RoomID, owner.ID)
	l.notifier.Subscribe(snap.RoomID, sid, conn)
	return snap, nil
}

// JoinRoomFor joins a room on behalf of a live connection, subscribes
// it, and broadcasts the new roster. The subscription is in place
// before the fan-out, so the joiner receives the update too.
func (l *Lobby) JoinRoomFor(sid core.SessionID, room domain.RoomID, user domain.User) (core.RoomSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	conn, ok := l.registry.ConnOf(sid)
	if !ok {
		return core.RoomSnapshot{}, ErrUnknownSession
	}
	if _, ok := l.store.FindRoom(room); !ok {
		return core.RoomSnapshot{}, core.ErrRoomNotFound
	}
	l.unbindLocked(sid, room)
	snap, changed, err := l.store.JoinRoom(room, user)
	if err != nil {
		return core.RoomSnapshot{}, err
	}
	l.registry.Bind(sid, room, user.ID)
	l.notifier.Subscribe(room, sid, conn)
	if changed {
		l.notifier.Notify(snap)
	}
	return snap, nil
}

// unbindLocked detaches sid from its previous room, if any, so a
// session is only ever a member of one room. keep skips the detach
// when the session is already bound to the target room. Caller holds
// l.mu.
func (l *Lobby) unbindLocked(sid core.SessionID, keep domain.RoomID) {
	room, uid, ok := l.registry.BindingOf(sid)
	if !ok || room == keep {
		return
	}
	l.notifier.Unsubscribe(room, sid)
	if snap, removed := l.store.LeaveRoom(room, uid); removed {
		l.notifier.Notify(snap)
	}
}

// Subscribe implements the room-scoped endpoint: the server invents a
// member identity, joins it, sends the initial roster to the new
// connection, then broadcasts the refreshed list room-wide.
func (l *Lobby) Subscribe(sid core.SessionID, conn core.SignalConnection, room domain.RoomID, cancel context.CancelFunc) (domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.store.FindRoom(room); !ok {
		return domain.User{}, core.ErrRoomNotFound
	}

	uid := domain.UserID(l.ids.NewID())
	user := domain.User{ID: uid, Username: domain.GuestUsername(uid)}

	snap, _, err := l.store.JoinRoom(room, user)
	if err != nil {
		return domain.User{}, err
	}

	l.registry.Attach(sid, conn, cancel)
	l.registry.Bind(sid, room, uid)
	l.notifier.Subscribe(room, sid, conn)
	l.notifier.SendInitial(conn, snap)
	l.notifier.Notify(snap)

	log.Info().Str("module", "app.lobby").Str("sid", string(sid)).Str("room", string(room)).Str("user", string(uid)).Msg("subscriber joined")
	return user, nil
}

// Detach translates a transport close into a leave. Unbound sessions
// just disappear; bound ones leave their room and the remaining
// subscribers see the updated roster.
func (l *Lobby) Detach(sid core.SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.registry.Cancel(sid)
	room, uid, bound := l.registry.Remove(sid)
	if !bound {
		return
	}
	l.notifier.Unsubscribe(room, sid)
	if snap, removed := l.store.LeaveRoom(room, uid); removed {
		l.notifier.Notify(snap)
	}
	log.Info().Str("module", "app.lobby").Str("sid", string(sid)).Str("room", string(room)).Msg("session detached")
}
