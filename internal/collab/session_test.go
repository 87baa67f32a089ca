package collab_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/lanes/internal/collab"
	"github.com/gosuda/lanes/internal/realtime"
)

var errDropped = errors.New("connection dropped")

// fakeTransport is an in-memory Transport. Each Dial opens a fresh inbound
// channel; drop closes it to simulate a connection loss.
type fakeTransport struct {
	mu    sync.Mutex
	sent  []*realtime.Envelope
	recv  chan *realtime.Envelope
	dials int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Dial(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.mu.Lock()
	f.dials++
	f.recv = make(chan *realtime.Envelope, 8)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Send(env *realtime.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (*realtime.Envelope, error) {
	f.mu.Lock()
	ch := f.recv
	f.mu.Unlock()

	select {
	case env, ok := <-ch:
		if !ok {
			return nil, errDropped
		}
		return env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) deliver(t *testing.T, event string, payload any) {
	t.Helper()
	env, err := realtime.NewEnvelope(event, payload)
	require.NoError(t, err)

	f.mu.Lock()
	ch := f.recv
	f.mu.Unlock()
	ch <- env
}

// drop closes the current inbound channel, simulating a connection loss.
func (f *fakeTransport) drop() {
	f.mu.Lock()
	close(f.recv)
	f.mu.Unlock()
}

func (f *fakeTransport) sentEnvelopes() []*realtime.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*realtime.Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func newTestSession(projectID string, transport *fakeTransport) (*collab.Session, chan collab.State) {
	states := make(chan collab.State, 16)
	s := collab.NewSession(projectID, "u1", "Alex", transport, collab.NewResolver(nil))
	s.SetHandlers(collab.Handlers{
		StateChanged: func(st collab.State) { states <- st },
	})
	return s, states
}

func waitState(t *testing.T, states chan collab.State, want collab.State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-states:
			if st == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestSession_ConnectSendsJoin(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	sess, states := newTestSession("p1", transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	waitState(t, states, collab.StateConnected)

	require.Eventually(t, func() bool {
		return len(transport.sentEnvelopes()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	first := transport.sentEnvelopes()[0]
	assert.Equal(t, realtime.EventJoinProject, first.Event)

	var join realtime.JoinProject
	require.NoError(t, json.Unmarshal(first.Data, &join))
	assert.Equal(t, "p1", join.ProjectID)
	assert.Equal(t, "u1", join.UserID)
	assert.Equal(t, "Alex", join.UserName)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, collab.StateDisconnected, sess.State())
}

func TestSession_EmptyProjectIDStillJoins(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	sess, states := newTestSession("", transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	// Degraded mode: the session connects and sends the handshake anyway;
	// the hub is the one that rejects it.
	waitState(t, states, collab.StateConnected)

	require.Eventually(t, func() bool {
		return len(transport.sentEnvelopes()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	var join realtime.JoinProject
	require.NoError(t, json.Unmarshal(transport.sentEnvelopes()[0].Data, &join))
	assert.Empty(t, join.ProjectID)
}

func TestSession_ReconnectsAfterDrop(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	sess, states := newTestSession("p1", transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	waitState(t, states, collab.StateConnected)

	transport.drop()

	waitState(t, states, collab.StateReconnecting)
	waitState(t, states, collab.StateConnected)

	assert.GreaterOrEqual(t, transport.dialCount(), 2)

	// The join handshake is re-sent on the new connection.
	require.Eventually(t, func() bool {
		return len(transport.sentEnvelopes()) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, realtime.EventJoinProject, transport.sentEnvelopes()[1].Event)
}

func TestSession_InboundCardUpdateWithoutLocalEdit(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	resolver := collab.NewResolver(nil)
	sess := collab.NewSession("p1", "u1", "Alex", transport, resolver)

	updated := make(chan realtime.CardUpdated, 1)
	sess.SetHandlers(collab.Handlers{
		CardUpdated: func(u realtime.CardUpdated) { updated <- u },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sess.State() == collab.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	payload := realtime.CardUpdated{
		CardUpdate: realtime.CardUpdate{
			ProjectID: "p1",
			CardID:    "c1",
			Updates:   map[string]any{"title": "remote title"},
		},
		UpdatedBy: realtime.Actor{UserID: "u2", UserName: "Sam"},
		Timestamp: time.Now(),
	}
	transport.deliver(t, realtime.EventCardUpdated, payload)

	select {
	case got := <-updated:
		assert.Equal(t, "c1", got.CardID)
		assert.Equal(t, "Sam", got.UpdatedBy.UserName)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	assert.Equal(t, 0, resolver.OpenCount())
}

func TestSession_InboundCardUpdateConflictsWithLocalEdit(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	resolver := collab.NewResolver(nil)
	sess := collab.NewSession("p1", "u1", "Alex", transport, resolver)

	handlerCalled := make(chan struct{}, 1)
	conflictSeen := make(chan *collab.Conflict, 1)
	sess.SetHandlers(collab.Handlers{
		CardUpdated: func(_ realtime.CardUpdated) { handlerCalled <- struct{}{} },
	})
	resolver.Subscribe(collab.EntityCard, "c1", func(c *collab.Conflict) {
		conflictSeen <- c
	})

	sess.TrackLocalChange(collab.EntityCard, "c1", collab.Change{"title": "my local title"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sess.State() == collab.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	payload := realtime.CardUpdated{
		CardUpdate: realtime.CardUpdate{
			ProjectID: "p1",
			CardID:    "c1",
			Updates:   map[string]any{"title": "their remote title"},
		},
		UpdatedBy: realtime.Actor{UserID: "u2", UserName: "Sam"},
		Timestamp: time.Now(),
	}
	transport.deliver(t, realtime.EventCardUpdated, payload)

	select {
	case c := <-conflictSeen:
		assert.Equal(t, collab.EntityCard, c.Entity)
		assert.Equal(t, "c1", c.EntityID)
		assert.Equal(t, "Sam", c.RemoteActor.UserName)
		assert.Equal(t, collab.Change{"title": "my local title"}, c.Local)
	case <-time.After(2 * time.Second):
		t.Fatal("conflict was not registered")
	}

	// The conflicting event is suppressed: the handler never fires.
	select {
	case <-handlerCalled:
		t.Fatal("handler fired for a conflicting update")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_BaselineAwareDetectionSkipsConvergentEdits(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	resolver := collab.NewResolver(nil)
	sess := collab.NewSession("p1", "u1", "Alex", transport, resolver)

	updated := make(chan realtime.CardUpdated, 1)
	sess.SetHandlers(collab.Handlers{
		CardUpdated: func(u realtime.CardUpdated) { updated <- u },
	})

	// Both sides changed title from "old" to the same new value: with a
	// baseline this is not a conflict.
	sess.TrackLocalChange(collab.EntityCard, "c1",
		collab.Change{"title": "agreed"},
		collab.Change{"title": "old"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sess.State() == collab.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	transport.deliver(t, realtime.EventCardUpdated, realtime.CardUpdated{
		CardUpdate: realtime.CardUpdate{
			ProjectID: "p1",
			CardID:    "c1",
			Updates:   map[string]any{"title": "agreed"},
		},
		UpdatedBy: realtime.Actor{UserID: "u2", UserName: "Sam"},
	})

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("convergent update should pass through to the handler")
	}
	assert.Equal(t, 0, resolver.OpenCount())
}

func TestSession_ClearLocalChangeStopsDetection(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	resolver := collab.NewResolver(nil)
	sess := collab.NewSession("p1", "u1", "Alex", transport, resolver)

	updated := make(chan realtime.CardUpdated, 1)
	sess.SetHandlers(collab.Handlers{
		CardUpdated: func(u realtime.CardUpdated) { updated <- u },
	})

	sess.TrackLocalChange(collab.EntityCard, "c1", collab.Change{"title": "local"}, nil)
	sess.ClearLocalChange(collab.EntityCard, "c1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sess.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sess.State() == collab.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	transport.deliver(t, realtime.EventCardUpdated, realtime.CardUpdated{
		CardUpdate: realtime.CardUpdate{
			ProjectID: "p1",
			CardID:    "c1",
			Updates:   map[string]any{"title": "remote"},
		},
		UpdatedBy: realtime.Actor{UserID: "u2"},
	})

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("cleared edits must not block remote updates")
	}
	assert.Equal(t, 0, resolver.OpenCount())
}

func TestSession_EmitCardMovePayload(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	sess, _ := newTestSession("p1", transport)

	require.NoError(t, sess.EmitCardMove("c1", "l1", "l2", 3))

	envs := transport.sentEnvelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, realtime.EventCardMove, envs[0].Event)

	var move realtime.CardMove
	require.NoError(t, json.Unmarshal(envs[0].Data, &move))
	assert.Equal(t, "p1", move.ProjectID)
	assert.Equal(t, "c1", move.CardID)
	assert.Equal(t, "l1", move.SourceListID)
	assert.Equal(t, "l2", move.DestinationListID)
	assert.Equal(t, 3, move.Position)
}
