package app_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/knmori/lobby/internal/app"
	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) messages(t *testing.T) []core.UserListMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.UserListMessage, 0, len(c.frames))
	for _, f := range c.frames {
		var msg core.UserListMessage
		require.NoError(t, json.Unmarshal(f, &msg))
		out = append(out, msg)
	}
	return out
}

func newLobby() *app.Lobby {
	ids := &seqIDs{}
	store := core.NewRoomStore(ids)
	return app.NewLobby(store, core.NewNotifier(), ids, app.NewRegistry())
}

func TestLobby_SubscribeReceivesInitialThenUpdate(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	room := lobby.CreateRoom(domain.User{ID: "u1", Username: "Alice"}).RoomID

	conn := &fakeConn{}
	user, err := lobby.Subscribe("s1", conn, room, nil)
	require.NoError(t, err)
	require.Equal(t, domain.GuestUsername(user.ID), user.Username)

	msgs := conn.messages(t)
	require.Len(t, msgs, 2)
	require.Equal(t, core.MsgInitialUserList, msgs[0].Type)
	require.Equal(t, core.MsgRoomUserListUpdate, msgs[1].Type)
	// The initial roster already reflects the subscriber's own join.
	require.Equal(t, []domain.UserID{"u1", user.ID}, userIDs(msgs[0].Users))
	require.Equal(t, msgs[0].Users, msgs[1].Users)
}

func TestLobby_Subscribe_RoomNotFound(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	_, err := lobby.Subscribe("s1", &fakeConn{}, "zzz", nil)
	require.ErrorIs(t, err, core.ErrRoomNotFound)
}

func TestLobby_BroadcastConsistency(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	room := lobby.CreateRoom(domain.User{ID: "u1", Username: "Alice"}).RoomID

	first, second := &fakeConn{}, &fakeConn{}
	_, err := lobby.Subscribe("s1", first, room, nil)
	require.NoError(t, err)
	_, err = lobby.Subscribe("s2", second, room, nil)
	require.NoError(t, err)

	_, err = lobby.JoinRoom(room, domain.User{ID: "u2", Username: "Bob"})
	require.NoError(t, err)

	snap, ok := lobby.FindRoom(room)
	require.True(t, ok)

	// Every subscriber's last received list equals the store's state.
	for _, conn := range []*fakeConn{first, second} {
		msgs := conn.messages(t)
		require.NotEmpty(t, msgs)
		require.Equal(t, snap.Users, msgs[len(msgs)-1].Users)
	}
}

func TestLobby_IdempotentRejoinStaysSilent(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	room := lobby.CreateRoom(domain.User{ID: "u1", Username: "Alice"}).RoomID

	conn := &fakeConn{}
	_, err := lobby.Subscribe("s1", conn, room, nil)
	require.NoError(t, err)
	seen := len(conn.messages(t))

	// u1 is already a member; nothing changes, nothing is broadcast.
	snap, err := lobby.JoinRoom(room, domain.User{ID: "u1", Username: "Alice"})
	require.NoError(t, err)
	require.Len(t, snap.Users, 2)
	require.Len(t, conn.messages(t), seen)
}

func TestLobby_DetachLeavesAndRebroadcasts(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	room := lobby.CreateRoom(domain.User{ID: "u1", Username: "Alice"}).RoomID

	stay, leave := &fakeConn{}, &fakeConn{}
	_, err := lobby.Subscribe("s1", stay, room, nil)
	require.NoError(t, err)
	leaver, err := lobby.Subscribe("s2", leave, room, nil)
	require.NoError(t, err)

	lobby.Detach("s2")

	snap, ok := lobby.FindRoom(room)
	require.True(t, ok)
	require.NotContains(t, userIDs(snap.Users), leaver.ID)

	msgs := stay.messages(t)
	require.NotEmpty(t, msgs)
	require.Equal(t, snap.Users, msgs[len(msgs)-1].Users)

	// The departed connection receives nothing further.
	gone := len(leave.messages(t))
	_, err = lobby.JoinRoom(room, domain.User{ID: "u2", Username: "Bob"})
	require.NoError(t, err)
	require.Len(t, leave.messages(t), gone)
}

func TestLobby_DetachUnboundIsNoop(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	conn := &fakeConn{}
	lobby.Attach("s1", conn, nil)
	lobby.Detach("s1")
	lobby.Detach("s1")
}

func TestLobby_ChannelSessions(t *testing.T) {
	t.Parallel()

	lobby := newLobby()

	creator, joiner := &fakeConn{}, &fakeConn{}
	lobby.Attach("s1", creator, nil)
	lobby.Attach("s2", joiner, nil)

	snap, err := lobby.CreateRoomFor("s1", domain.User{ID: "u1", Username: "Alice"})
	require.NoError(t, err)

	_, err = lobby.JoinRoomFor("s2", snap.RoomID, domain.User{ID: "u2", Username: "Bob"})
	require.NoError(t, err)

	// Both bound connections observe the join, the joiner included.
	for _, conn := range []*fakeConn{creator, joiner} {
		msgs := conn.messages(t)
		require.NotEmpty(t, msgs)
		require.Equal(t, []domain.UserID{"u1", "u2"}, userIDs(msgs[len(msgs)-1].Users))
	}

	// Closing the creator's connection removes u1 and tells u2.
	lobby.Detach("s1")
	msgs := joiner.messages(t)
	require.Equal(t, []domain.UserID{"u2"}, userIDs(msgs[len(msgs)-1].Users))
}

func TestLobby_SwitchingRoomsLeavesThePreviousOne(t *testing.T) {
	t.Parallel()

	lobby := newLobby()
	first := lobby.CreateRoom(domain.User{ID: "owner1", Username: "One"}).RoomID
	second := lobby.CreateRoom(domain.User{ID: "owner2", Username: "Two"}).RoomID

	conn := &fakeConn{}
	lobby.Attach("s1", conn, nil)
	_, err := lobby.JoinRoomFor("s1", first, domain.User{ID: "u1", Username: "Alice"})
	require.NoError(t, err)
	_, err = lobby.JoinRoomFor("s1", second, domain.User{ID: "u1", Username: "Alice"})
	require.NoError(t, err)

	snap, _ := lobby.FindRoom(first)
	require.Equal(t, []domain.UserID{"owner1"}, userIDs(snap.Users))
	snap, _ = lobby.FindRoom(second)
	require.Equal(t, []domain.UserID{"owner2", "u1"}, userIDs(snap.Users))

	// Disconnecting now only leaves the current room.
	lobby.Detach("s1")
	snap, _ = lobby.FindRoom(second)
	require.Equal(t, []domain.UserID{"owner2"}, userIDs(snap.Users))
}

func TestLobby_JoinRoomFor_Errors(t *testing.T) {
	t.Parallel()

	lobby := newLobby()

	_, err := lobby.JoinRoomFor("ghost", "zzz", domain.User{ID: "u1", Username: "Alice"})
	require.ErrorIs(t, err, app.ErrUnknownSession)

	lobby.Attach("s1", &fakeConn{}, nil)
	_, err = lobby.JoinRoomFor("s1", "zzz", domain.User{ID: "u1", Username: "Alice"})
	require.ErrorIs(t, err, core.ErrRoomNotFound)
}

func userIDs(users []domain.User) []domain.UserID {
	out := make([]domain.UserID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
