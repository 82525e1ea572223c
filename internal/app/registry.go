package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

// binding is the live association of one connection with its room and
// member identity. RoomID is empty while the session is unbound.
type binding struct {
	RoomID domain.RoomID
	UserID domain.UserID
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// Registry tracks session bindings. A reconnecting client is a new
// session with a new id; removed sessions never come back.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*binding
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*binding)}
}

// Attach registers an open, not-yet-bound connection.
func (r *Registry) Attach(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &binding{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session attached")
}

// Bind associates the session with exactly one (room, user) pair.
func (r *Registry) Bind(sid core.SessionID, room domain.RoomID, uid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions[sid]
	if !ok {
		return false
	}
	b.RoomID = room
	b.UserID = uid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Str("user", string(uid)).Msg("session bound")
	return true
}

// BindingOf reports the (room, user) pair for a bound session.
func (r *Registry) BindingOf(sid core.SessionID) (domain.RoomID, domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.sessions[sid]
	if !ok || b.RoomID == "" {
		return "", "", false
	}
	return b.RoomID, b.UserID, true
}

// ConnOf returns the transport endpoint of an attached session.
func (r *Registry) ConnOf(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return b.Conn, true
}

// Remove drops the session and returns its last binding so the caller
// can translate the close into a leave.
func (r *Registry) Remove(sid core.SessionID) (domain.RoomID, domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions[sid]
	if !ok {
		return "", "", false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session removed")
	if b.RoomID == "" {
		return "", "", false
	}
	return b.RoomID, b.UserID, true
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	b, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if b.Cancel != nil {
		b.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
