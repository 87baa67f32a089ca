package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Handlers are exercised directly: the hub loop is a plain dispatcher and
// all state is single-goroutine, so calling handleEvent synchronously tests
// the same code Run drives.

func testHub() *Hub {
	return NewHub()
}

func testClient(h *Hub) *Client {
	c := newClient(h, nil)
	h.joined[c] = make(map[string]struct{})
	return c
}

func mustEnvelope(t *testing.T, event string, payload any) Envelope {
	t.Helper()
	env, err := NewEnvelope(event, payload)
	require.NoError(t, err)
	return *env
}

// recvEvent pops the next queued envelope for a client, failing the test
// when the queue is empty.
func recvEvent(t *testing.T, c *Client) *Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return &env
	default:
		t.Fatal("no queued event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		_ = json.Unmarshal(raw, &env)
		t.Fatalf("unexpected queued event %q", env.Event)
	default:
	}
}

func join(t *testing.T, h *Hub, c *Client, projectID, userID, userName string) {
	t.Helper()
	h.handleEvent(c, mustEnvelope(t, EventJoinProject, JoinProject{
		ProjectID: projectID,
		UserID:    userID,
		UserName:  userName,
	}))
}

func TestHub_JoinCreatesRoomAndAcks(t *testing.T) {
	t.Parallel()

	h := testHub()
	c := testClient(h)

	join(t, h, c, "p1", "u1", "Alex")

	require.Equal(t, 1, h.roomCount())

	// First the roster (empty for the first joiner), then the ack.
	roster := recvEvent(t, c)
	assert.Equal(t, EventRoomUsers, roster.Event)

	var users RoomUsers
	require.NoError(t, json.Unmarshal(roster.Data, &users))
	assert.Equal(t, "p1", users.ProjectID)
	assert.Empty(t, users.Users)

	ack := recvEvent(t, c)
	assert.Equal(t, EventJoinSuccess, ack.Event)

	assertNoEvent(t, c)
}

func TestHub_JoinRosterExcludesJoiner(t *testing.T) {
	t.Parallel()

	h := testHub()
	a := testClient(h)
	b := testClient(h)

	join(t, h, a, "p1", "u1", "Alex")
	drainClient(a)

	join(t, h, b, "p1", "u2", "Sam")

	roster := recvEvent(t, b)
	require.Equal(t, EventRoomUsers, roster.Event)

	var users RoomUsers
	require.NoError(t, json.Unmarshal(roster.Data, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "u1", users.Users[0].UserID)
	assert.Equal(t, PresenceViewing, users.Users[0].Presence)

	// The earlier member hears about the new one.
	joined := recvEvent(t, a)
	require.Equal(t, EventUserJoined, joined.Event)

	var announce UserJoined
	require.NoError(t, json.Unmarshal(joined.Data, &announce))
	assert.Equal(t, "u2", announce.User.UserID)
	assert.False(t, announce.Timestamp.IsZero())
}

func TestHub_MalformedJoinErrorsSenderOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		join JoinProject
	}{
		{"missing project", JoinProject{UserID: "u1", UserName: "Alex"}},
		{"missing user id", JoinProject{ProjectID: "p1", UserName: "Alex"}},
		{"missing user name", JoinProject{ProjectID: "p1", UserID: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := testHub()
			c := testClient(h)

			h.handleEvent(c, mustEnvelope(t, EventJoinProject, tt.join))

			env := recvEvent(t, c)
			assert.Equal(t, EventError, env.Event)

			var errEvt ErrorEvent
			require.NoError(t, json.Unmarshal(env.Data, &errEvt))
			assert.NotEmpty(t, errEvt.Message)

			// No half-joined state.
			assert.Equal(t, 0, h.roomCount())
		})
	}
}

func TestHub_CardMoveBroadcastSkipsSenderAndStampsActor(t *testing.T) {
	t.Parallel()

	h := testHub()
	a := testClient(h)
	b := testClient(h)

	join(t, h, a, "p1", "u1", "Alex")
	join(t, h, b, "p1", "u2", "Sam")
	drainClient(a)
	drainClient(b)

	h.handleEvent(a, mustEnvelope(t, EventCardMove, CardMove{
		ProjectID:         "p1",
		CardID:            "c1",
		SourceListID:      "l1",
		DestinationListID: "l2",
		Position:          2,
	}))

	// The sender already applied the move optimistically; it hears nothing.
	assertNoEvent(t, a)

	env := recvEvent(t, b)
	require.Equal(t, EventCardMoved, env.Event)

	var moved CardMoved
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, "c1", moved.CardID)
	assert.Equal(t, "l2", moved.DestinationListID)
	assert.Equal(t, 2, moved.Position)

	// movedBy comes from the sender's join identity, not the payload.
	assert.Equal(t, "u1", moved.MovedBy.UserID)
	assert.Equal(t, "Alex", moved.MovedBy.UserName)
	assert.False(t, moved.Timestamp.IsZero())
}

func TestHub_EventsForUnjoinedRoomAreDropped(t *testing.T) {
	t.Parallel()

	h := testHub()
	joined := testClient(h)
	stranger := testClient(h)

	join(t, h, joined, "p1", "u1", "Alex")
	drainClient(joined)

	// stranger never joined p1; its event must not reach anyone.
	h.handleEvent(stranger, mustEnvelope(t, EventCardUpdate, CardUpdate{
		ProjectID: "p1",
		CardID:    "c1",
		Updates:   map[string]any{"title": "sneaky"},
	}))

	assertNoEvent(t, joined)
	assertNoEvent(t, stranger)
}

func TestHub_PresenceUpdateChangesRosterState(t *testing.T) {
	t.Parallel()

	h := testHub()
	a := testClient(h)
	b := testClient(h)

	join(t, h, a, "p1", "u1", "Alex")
	join(t, h, b, "p1", "u2", "Sam")
	drainClient(a)
	drainClient(b)

	h.handleEvent(a, mustEnvelope(t, EventPresenceUpdate, PresenceUpdate{
		ProjectID:   "p1",
		Presence:    PresenceEditing,
		EditingCard: "c9",
	}))

	env := recvEvent(t, b)
	require.Equal(t, EventUserPresence, env.Event)

	var pres UserPresence
	require.NoError(t, json.Unmarshal(env.Data, &pres))
	assert.Equal(t, "u1", pres.UserID)
	assert.Equal(t, PresenceEditing, pres.Presence)
	assert.Equal(t, "c9", pres.EditingCard)

	// Later joiners see the presence in their roster snapshot.
	late := testClient(h)
	join(t, h, late, "p1", "u3", "Kim")

	roster := recvEvent(t, late)
	var users RoomUsers
	require.NoError(t, json.Unmarshal(roster.Data, &users))

	var found bool
	for _, u := range users.Users {
		if u.UserID == "u1" {
			found = true
			assert.Equal(t, PresenceEditing, u.Presence)
			assert.Equal(t, "c9", u.EditingCard)
		}
	}
	assert.True(t, found)
}

func TestHub_LeaveAnnouncesAndPrunesEmptyRoom(t *testing.T) {
	t.Parallel()

	h := testHub()
	a := testClient(h)
	b := testClient(h)

	join(t, h, a, "p1", "u1", "Alex")
	join(t, h, b, "p1", "u2", "Sam")
	drainClient(a)
	drainClient(b)

	h.leaveAll(a)

	env := recvEvent(t, b)
	require.Equal(t, EventUserLeft, env.Event)

	var left UserLeft
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, "u1", left.UserID)

	// The room survives while someone remains, and vanishes with the last
	// member.
	assert.Equal(t, 1, h.roomCount())

	h.leaveAll(b)
	assert.Equal(t, 0, h.roomCount())
}

func TestHub_ClientInMultipleRooms(t *testing.T) {
	t.Parallel()

	h := testHub()
	c := testClient(h)
	other := testClient(h)

	join(t, h, c, "p1", "u1", "Alex")
	join(t, h, c, "p2", "u1", "Alex")
	join(t, h, other, "p2", "u2", "Sam")
	drainClient(c)
	drainClient(other)

	assert.Equal(t, 2, h.roomCount())

	h.leaveAll(c)

	// The p2 member hears the departure; both rooms that are now empty are
	// pruned.
	env := recvEvent(t, other)
	assert.Equal(t, EventUserLeft, env.Event)
	assert.Equal(t, 1, h.roomCount())
}

func TestHub_SweepEvictsIdleParticipants(t *testing.T) {
	t.Parallel()

	h := testHub()

	base := time.Now()
	h.now = func() time.Time { return base }

	idle := testClient(h)
	active := testClient(h)

	join(t, h, idle, "p1", "u1", "Alex")
	join(t, h, active, "p1", "u2", "Sam")
	drainClient(idle)
	drainClient(active)

	// Six minutes pass; only the active participant sends anything.
	h.now = func() time.Time { return base.Add(6 * time.Minute) }
	h.handleEvent(active, mustEnvelope(t, EventPresenceUpdate, PresenceUpdate{
		ProjectID: "p1",
		Presence:  PresenceViewing,
	}))
	drainClient(idle)

	h.sweep()

	// The idle participant is gone; the active one was announced to.
	r := h.rooms["p1"]
	require.NotNil(t, r)
	assert.Len(t, r.members, 1)
	_, stillThere := r.members[active.id]
	assert.True(t, stillThere)

	env := recvEvent(t, active)
	require.Equal(t, EventUserLeft, env.Event)

	var left UserLeft
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, "u1", left.UserID)
}

func TestHub_ActivityOnAnyEventDefersEviction(t *testing.T) {
	t.Parallel()

	h := testHub()

	base := time.Now()
	h.now = func() time.Time { return base }

	c := testClient(h)
	peer := testClient(h)
	join(t, h, c, "p1", "u1", "Alex")
	join(t, h, peer, "p1", "u2", "Sam")
	drainClient(c)
	drainClient(peer)

	// A card move four minutes in counts as activity.
	h.now = func() time.Time { return base.Add(4 * time.Minute) }
	h.handleEvent(c, mustEnvelope(t, EventCardMove, CardMove{
		ProjectID:         "p1",
		CardID:            "c1",
		SourceListID:      "l1",
		DestinationListID: "l1",
		Position:          0,
	}))

	// At eight minutes, u1's last activity is four minutes old: kept.
	// u2 has been silent since joining: evicted.
	h.now = func() time.Time { return base.Add(8 * time.Minute) }
	h.sweep()

	r := h.rooms["p1"]
	require.NotNil(t, r)
	_, kept := r.members[c.id]
	assert.True(t, kept)
	_, evicted := r.members[peer.id]
	assert.False(t, evicted)
}

func TestHub_QueueOverflowDropsEvent(t *testing.T) {
	t.Parallel()

	h := testHub()
	c := testClient(h)

	env, err := NewEnvelope(EventJoinSuccess, JoinSuccess{ProjectID: "p1"})
	require.NoError(t, err)

	for i := 0; i < sendQueueSize; i++ {
		require.True(t, c.queue(env))
	}

	// Queue is full: delivery is at-most-once, the event is dropped.
	assert.False(t, c.queue(env))
}

func TestHub_RunAndShutdown(t *testing.T) {
	t.Parallel()

	h := testHub()
	go h.Run()

	c := newClient(h, nil)
	h.register <- c

	h.events <- inbound{client: c, env: mustEnvelope(t, EventJoinProject, JoinProject{
		ProjectID: "p1", UserID: "u1", UserName: "Alex",
	})}

	require.Eventually(t, func() bool {
		return len(c.send) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	h.Shutdown()
}

func drainClient(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
