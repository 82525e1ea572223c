package core

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/domain"
	"github.com/knmori/lobby/internal/monitoring"
)

const (
	MsgInitialUserList    = "initialUserList"
	MsgRoomUserListUpdate = "onRoomUserListUpdate"
)

// UserListMessage is the fan-out payload for both the initial roster
// and subsequent membership updates.
type UserListMessage struct {
	Type  string        `json:"type"`
	Users []domain.User `json:"users"`
}

// notifier keeps per-room subscriber sets keyed by session. Fan-out is
// strictly room-scoped.
type notifier struct {
	mu   sync.RWMutex
	subs map[domain.RoomID]map[SessionID]SignalConnection
}

func NewNotifier() Notifier {
	return &notifier{subs: make(map[domain.RoomID]map[SessionID]SignalConnection)}
}

func (n *notifier) Subscribe(room domain.RoomID, sid SessionID, conn SignalConnection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set, ok := n.subs[room]
	if !ok {
		set = make(map[SessionID]SignalConnection)
		n.subs[room] = set
	}
	set[sid] = conn
	monitoring.SubscribersActive.Inc()
	log.Info().Str("module", "core.notifier").Str("room", string(room)).Str("sid", string(sid)).Msg("subscribed")
}

func (n *notifier) Unsubscribe(room domain.RoomID, sid SessionID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set, ok := n.subs[room]
	if !ok {
		return
	}
	if _, ok := set[sid]; !ok {
		return
	}
	delete(set, sid)
	if len(set) == 0 {
		delete(n.subs, room)
	}
	monitoring.SubscribersActive.Dec()
	log.Info().Str("module", "core.notifier").Str("room", string(room)).Str("sid", string(sid)).Msg("unsubscribed")
}

func (n *notifier) Notify(snap RoomSnapshot) {
	data, err := json.Marshal(UserListMessage{Type: MsgRoomUserListUpdate, Users: snap.Users})
	if err != nil {
		log.Error().Err(err).Str("module", "core.notifier").Msg("marshal user list")
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	sent, dropped := 0, 0
	for sid, conn := range n.subs[snap.RoomID] {
		if err := conn.TrySend(data); err != nil {
			// A broken or slow recipient never fails the others.
			monitoring.DroppedSendsTotal.Inc()
			dropped++
			log.Debug().Str("module", "core.notifier").Str("sid", string(sid)).Err(err).Msg("skipped subscriber")
			continue
		}
		sent++
	}
	monitoring.BroadcastsTotal.Inc()
	log.Debug().Str("module", "core.notifier").Str("room", string(snap.RoomID)).Int("sent", sent).Int("dropped", dropped).Msg("fan-out")
}

func (n *notifier) SendInitial(conn SignalConnection, snap RoomSnapshot) {
	data, err := json.Marshal(UserListMessage{Type: MsgInitialUserList, Users: snap.Users})
	if err != nil {
		log.Error().Err(err).Str("module", "core.notifier").Msg("marshal initial list")
		return
	}
	if err := conn.TrySend(data); err != nil {
		monitoring.DroppedSendsTotal.Inc()
		log.Debug().Str("module", "core.notifier").Err(err).Msg("initial send skipped")
	}
}
