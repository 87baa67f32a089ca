package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/lanes/internal/realtime"
)

// State is the session's connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Transport is the bidirectional event channel a Session rides on. Dial
// blocks until connected, applying the transport's own backoff between
// attempts; Receive blocks until an event arrives or the connection drops.
type Transport interface {
	Dial(ctx context.Context) error
	Send(env *realtime.Envelope) error
	Receive(ctx context.Context) (*realtime.Envelope, error)
	Close() error
}

// Handlers receive inbound events. Nil entries are skipped. The local
// optimistic mutation has already happened before any Emit call, so these
// callbacks only deal with *other* participants' changes.
type Handlers struct {
	RoomUsers        func(realtime.RoomUsers)
	JoinSuccess      func(realtime.JoinSuccess)
	UserJoined       func(realtime.UserJoined)
	UserLeft         func(realtime.UserLeft)
	UserPresence     func(realtime.UserPresence)
	CardMoved        func(realtime.CardMoved)
	CardUpdated      func(realtime.CardUpdated)
	ListUpdated      func(realtime.ListUpdated)
	ChecklistUpdated func(realtime.ChecklistUpdated)
	Error            func(realtime.ErrorEvent)
	StateChanged     func(State)
}

// localEdit is an unsaved local delta with its optional shared baseline.
type localEdit struct {
	delta Change
	base  Change // nil when no common baseline is known
}

// Session is the per-board-view synchronization facade: it joins the
// project room, emits local mutations, and routes inbound remote mutations
// through the conflict detector before handing them to the UI handlers.
//
// An empty project id is a degraded-but-non-fatal mode: the session still
// connects, but the join handshake never succeeds and no events flow.
type Session struct {
	projectID string
	userID    string
	userName  string
	transport Transport
	resolver  *Resolver
	handlers  Handlers

	mu    sync.Mutex
	state State
	local map[string]localEdit
}

// NewSession creates a Session. Never fails: missing ids degrade the join
// handshake, they do not prevent construction.
func NewSession(projectID, userID, userName string, t Transport, r *Resolver) *Session {
	return &Session{
		projectID: projectID,
		userID:    userID,
		userName:  userName,
		transport: t,
		resolver:  r,
		state:     StateDisconnected,
		local:     make(map[string]localEdit),
	}
}

// SetHandlers installs the inbound event callbacks. Call before Run.
func (s *Session) SetHandlers(h Handlers) {
	s.handlers = h
}

// Resolver exposes the session's conflict resolver for UI resolution calls.
func (s *Session) Resolver() *Resolver {
	return s.resolver
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()

	if changed && s.handlers.StateChanged != nil {
		s.handlers.StateChanged(st)
	}
}

// Run drives the connect / receive / reconnect loop until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)

	for {
		if err := s.transport.Dial(ctx); err != nil {
			s.setState(StateDisconnected)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("collab.Session.Run: dial: %w", err)
		}

		s.setState(StateConnected)
		s.sendJoin()

		for {
			env, err := s.transport.Receive(ctx)
			if err != nil {
				break
			}
			s.handleInbound(env)
		}

		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			_ = s.transport.Close()
			return nil
		}

		// Transport-level drop: non-fatal, redial with the transport's backoff.
		s.setState(StateReconnecting)
	}
}

func (s *Session) sendJoin() {
	// Sent even with missing fields: the hub answers with an error event
	// and the session stays connected but unjoined.
	err := s.emit(realtime.EventJoinProject, realtime.JoinProject{
		ProjectID: s.projectID,
		UserID:    s.userID,
		UserName:  s.userName,
	})
	if err != nil {
		log.Debug().Err(err).Msg("collab: join emit failed")
	}
}

func (s *Session) emit(event string, payload any) error {
	env, err := realtime.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("collab.Session.emit: %w", err)
	}
	if err := s.transport.Send(env); err != nil {
		return fmt.Errorf("collab.Session.emit: %s: %w", event, err)
	}
	return nil
}

// EmitCardMove announces a card drag. The optimistic local move has
// already been applied by the caller; emit failure never rolls it back.
func (s *Session) EmitCardMove(cardID, sourceListID, destListID string, position int) error {
	return s.emit(realtime.EventCardMove, realtime.CardMove{
		ProjectID:         s.projectID,
		CardID:            cardID,
		SourceListID:      sourceListID,
		DestinationListID: destListID,
		Position:          position,
	})
}

// EmitCardUpdate announces a card field delta.
func (s *Session) EmitCardUpdate(cardID string, updates Change) error {
	return s.emit(realtime.EventCardUpdate, realtime.CardUpdate{
		ProjectID: s.projectID,
		CardID:    cardID,
		Updates:   updates,
	})
}

// EmitListUpdate announces a list field delta.
func (s *Session) EmitListUpdate(listID string, updates Change) error {
	return s.emit(realtime.EventListUpdate, realtime.ListUpdate{
		ProjectID: s.projectID,
		ListID:    listID,
		Updates:   updates,
	})
}

// EmitChecklistUpdate announces a checklist field delta.
func (s *Session) EmitChecklistUpdate(checklistID, cardID string, updates Change) error {
	return s.emit(realtime.EventChecklistUpdate, realtime.ChecklistUpdate{
		ProjectID:   s.projectID,
		ChecklistID: checklistID,
		CardID:      cardID,
		Updates:     updates,
	})
}

// UpdatePresence announces the viewer's presence change.
func (s *Session) UpdatePresence(presence realtime.Presence, editingCard string) error {
	return s.emit(realtime.EventPresenceUpdate, realtime.PresenceUpdate{
		ProjectID:   s.projectID,
		Presence:    presence,
		EditingCard: editingCard,
	})
}

// TrackLocalChange records an unsaved local delta for an entity, with an
// optional shared baseline, so inbound remote deltas for the same entity
// can be conflict-checked.
func (s *Session) TrackLocalChange(entity EntityType, id string, delta, base Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[conflictKey(entity, id)] = localEdit{delta: delta, base: base}
}

// ClearLocalChange forgets the unsaved delta for an entity, typically after
// a save or a resolved conflict.
func (s *Session) ClearLocalChange(entity EntityType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.local, conflictKey(entity, id))
}

// reconcile checks an inbound remote delta against any tracked local edit.
// Returns true when a conflict was registered, in which case the event must
// not be applied directly — the UI blocks edits to the entity until the
// resolver settles it.
func (s *Session) reconcile(entity EntityType, id string, remote Change, actor realtime.Actor) bool {
	s.mu.Lock()
	edit, ok := s.local[conflictKey(entity, id)]
	s.mu.Unlock()

	if !ok {
		return false
	}

	var conflicted bool
	if edit.base != nil {
		conflicted = ConflictsWithBase(edit.base, edit.delta, remote)
	} else {
		conflicted = Conflicts(edit.delta, remote)
	}

	if !conflicted {
		return false
	}

	s.resolver.Register(&Conflict{
		Entity:      entity,
		EntityID:    id,
		Local:       edit.delta,
		Remote:      remote,
		RemoteActor: actor,
		DetectedAt:  time.Now(),
	})
	return true
}

func (s *Session) handleInbound(env *realtime.Envelope) {
	switch env.Event {
	case realtime.EventRoomUsers:
		dispatch(env.Data, s.handlers.RoomUsers)
	case realtime.EventJoinSuccess:
		dispatch(env.Data, s.handlers.JoinSuccess)
	case realtime.EventUserJoined:
		dispatch(env.Data, s.handlers.UserJoined)
	case realtime.EventUserLeft:
		dispatch(env.Data, s.handlers.UserLeft)
	case realtime.EventUserPresence:
		dispatch(env.Data, s.handlers.UserPresence)
	case realtime.EventCardMoved:
		dispatch(env.Data, s.handlers.CardMoved)
	case realtime.EventCardUpdated:
		var upd realtime.CardUpdated
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			return
		}
		if s.reconcile(EntityCard, upd.CardID, Change(upd.Updates), upd.UpdatedBy) {
			return
		}
		if s.handlers.CardUpdated != nil {
			s.handlers.CardUpdated(upd)
		}
	case realtime.EventListUpdated:
		var upd realtime.ListUpdated
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			return
		}
		if s.reconcile(EntityList, upd.ListID, Change(upd.Updates), upd.UpdatedBy) {
			return
		}
		if s.handlers.ListUpdated != nil {
			s.handlers.ListUpdated(upd)
		}
	case realtime.EventChecklistUpdated:
		var upd realtime.ChecklistUpdated
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			return
		}
		if s.reconcile(EntityChecklist, upd.ChecklistID, Change(upd.Updates), upd.UpdatedBy) {
			return
		}
		if s.handlers.ChecklistUpdated != nil {
			s.handlers.ChecklistUpdated(upd)
		}
	case realtime.EventError:
		dispatch(env.Data, s.handlers.Error)
	default:
		log.Debug().Str("event", env.Event).Msg("collab: unknown inbound event")
	}
}

// dispatch unmarshals a payload and calls the handler when one is set.
func dispatch[T any](data json.RawMessage, fn func(T)) {
	if fn == nil {
		return
	}
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Debug().Err(err).Msg("collab: payload decode")
		return
	}
	fn(payload)
}
