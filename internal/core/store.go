package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/domain"
	"github.com/knmori/lobby/internal/monitoring"
)

// roomState pairs room meta with its member list, insertion order =
// join order.
type roomState struct {
	room    domain.Room
	members []domain.User
}

func (st *roomState) snapshot() RoomSnapshot {
	users := make([]domain.User, len(st.members))
	copy(users, st.members)
	return RoomSnapshot{RoomID: st.room.ID, OwnerID: st.room.OwnerID, Users: users}
}

// roomStore is a threadsafe in-memory registry indexed by room id.
// Rooms are never reclaimed automatically.
type roomStore struct {
	ids   IDSource
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewRoomStore(ids IDSource) RoomStore {
	return &roomStore{
		ids:   ids,
		rooms: make(map[domain.RoomID]*roomState),
	}
}

func (s *roomStore) CreateRoom(owner domain.User) RoomSnapshot {
	id := domain.RoomID(s.ids.NewID())

	s.mu.Lock()
	defer s.mu.Unlock()
	st := &roomState{
		room:    domain.Room{ID: id, OwnerID: owner.ID},
		members: []domain.User{owner},
	}
	s.rooms[id] = st
	monitoring.RoomsActive.Set(float64(len(s.rooms)))
	log.Info().Str("module", "core.store").Str("room", string(id)).Str("owner", string(owner.ID)).Msg("room created")
	return st.snapshot()
}

func (s *roomStore) FindRoom(id domain.RoomID) (RoomSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.rooms[id]
	if !ok {
		return RoomSnapshot{}, false
	}
	return st.snapshot(), true
}

func (s *roomStore) JoinRoom(id domain.RoomID, user domain.User) (RoomSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rooms[id]
	if !ok {
		return RoomSnapshot{}, false, ErrRoomNotFound
	}
	for _, m := range st.members {
		if m.ID == user.ID {
			// Idempotent re-join: stale joins after a leave race are
			// normal, not an error.
			return st.snapshot(), false, nil
		}
	}
	st.members = append(st.members, user)
	log.Info().Str("module", "core.store").Str("room", string(id)).Str("user", string(user.ID)).Msg("member joined")
	return st.snapshot(), true, nil
}

func (s *roomStore) LeaveRoom(id domain.RoomID, uid domain.UserID) (RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rooms[id]
	if !ok {
		return RoomSnapshot{}, false
	}
	for i, m := range st.members {
		if m.ID == uid {
			st.members = append(st.members[:i], st.members[i+1:]...)
			log.Info().Str("module", "core.store").Str("room", string(id)).Str("user", string(uid)).Msg("member left")
			return st.snapshot(), true
		}
	}
	return RoomSnapshot{}, false
}

func (s *roomStore) List() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for id, st := range s.rooms {
		out = append(out, RoomInfo{RoomID: id, OwnerID: st.room.OwnerID, MemberCount: len(st.members)})
	}
	return out
}
