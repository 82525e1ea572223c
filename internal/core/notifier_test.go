package core_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

// fakeConn records delivered frames; fail simulates a dead transport.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
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

func snapshotFor(room domain.RoomID, users ...domain.User) core.RoomSnapshot {
	return core.RoomSnapshot{RoomID: room, OwnerID: users[0].ID, Users: users}
}

func TestNotifier_NotifyIsRoomScoped(t *testing.T) {
	t.Parallel()

	n := core.NewNotifier()
	inRoom, otherRoom := &fakeConn{}, &fakeConn{}
	n.Subscribe("r1", "s1", inRoom)
	n.Subscribe("r2", "s2", otherRoom)

	n.Notify(snapshotFor("r1", domain.User{ID: "u1", Username: "Alice"}))

	msgs := inRoom.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, core.MsgRoomUserListUpdate, msgs[0].Type)
	require.Equal(t, []domain.User{{ID: "u1", Username: "Alice"}}, msgs[0].Users)

	require.Empty(t, otherRoom.messages(t))
}

func TestNotifier_SendInitial(t *testing.T) {
	t.Parallel()

	n := core.NewNotifier()
	conn := &fakeConn{}
	n.SendInitial(conn, snapshotFor("r1", domain.User{ID: "u1", Username: "Alice"}))

	msgs := conn.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, core.MsgInitialUserList, msgs[0].Type)
	require.Equal(t, []domain.User{{ID: "u1", Username: "Alice"}}, msgs[0].Users)
}

func TestNotifier_SkipsBrokenSubscriber(t *testing.T) {
	t.Parallel()

	n := core.NewNotifier()
	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}
	n.Subscribe("r1", "s1", broken)
	n.Subscribe("r1", "s2", healthy)

	n.Notify(snapshotFor("r1", domain.User{ID: "u1", Username: "Alice"}))

	require.Len(t, healthy.messages(t), 1)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	t.Parallel()

	n := core.NewNotifier()
	conn := &fakeConn{}
	n.Subscribe("r1", "s1", conn)
	n.Unsubscribe("r1", "s1")
	// Double unsubscribe must be harmless (disconnect races).
	n.Unsubscribe("r1", "s1")

	n.Notify(snapshotFor("r1", domain.User{ID: "u1", Username: "Alice"}))
	require.Empty(t, conn.messages(t))
}
