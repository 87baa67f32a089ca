package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// Participants idle longer than this are forcibly evicted by the sweep.
	idleTimeout = 5 * time.Minute
	// How often the eviction sweep runs.
	sweepInterval = time.Minute
)

// participant is one live connection's state inside a room. Owned by the
// room it belongs to; only the hub goroutine touches it.
type participant struct {
	client       *Client
	userID       string
	userName     string
	presence     Presence
	editingCard  string
	lastActivity time.Time
}

func (p *participant) roomUser() RoomUser {
	return RoomUser{
		UserID:      p.userID,
		UserName:    p.userName,
		Presence:    p.presence,
		EditingCard: p.editingCard,
	}
}

// room is the set of participants currently viewing one project board,
// keyed by connection id.
type room struct {
	projectID string
	members   map[uuid.UUID]*participant
}

type inbound struct {
	client *Client
	env    Envelope
}

// Hub is the presence room registry and broadcast fan-out. All room state
// is owned by the single goroutine running Run; clients communicate with
// it exclusively through channels.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan inbound
	rooms      map[string]*room
	// joined indexes which rooms each connection is a member of.
	joined map[*Client]map[string]struct{}
	stop   chan struct{}
	done   chan struct{}

	// now is swappable for eviction tests.
	now func() time.Time
}

// NewHub creates a Hub. Call Run in its own goroutine before registering clients.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan inbound, 256),
		rooms:      make(map[string]*room),
		joined:     make(map[*Client]map[string]struct{}),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run processes hub events until Shutdown is called. Room state is mutated
// only from this goroutine.
func (h *Hub) Run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case c := <-h.register:
			h.joined[c] = make(map[string]struct{})
		case c := <-h.unregister:
			h.dispatch(func() { h.leaveAll(c) })
		case ev := <-h.events:
			h.dispatch(func() { h.handleEvent(ev.client, ev.env) })
		case <-ticker.C:
			h.dispatch(h.sweep)
		case <-h.stop:
			for c := range h.joined {
				h.leaveAll(c)
			}
			close(h.done)
			return
		}
	}
}

// Shutdown stops the hub loop and detaches all participants.
func (h *Hub) Shutdown() {
	close(h.stop)
	<-h.done
}

// dispatch runs one event handler, containing panics so a bad event can
// never take down the hub or other participants' rooms.
func (h *Hub) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("realtime: event handler panicked")
		}
	}()
	fn()
}

func (h *Hub) handleEvent(c *Client, env Envelope) {
	if env.Event == EventJoinProject {
		h.handleJoin(c, env.Data)
		return
	}

	// Everything else requires current room membership. Events referencing
	// a room the connection never joined (or already left) are a benign
	// race, not an error: drop them silently.
	switch env.Event {
	case EventPresenceUpdate:
		h.handlePresence(c, env.Data)
	case EventCardMove:
		h.handleCardMove(c, env.Data)
	case EventCardUpdate:
		h.handleCardUpdate(c, env.Data)
	case EventListUpdate:
		h.handleListUpdate(c, env.Data)
	case EventChecklistUpdate:
		h.handleChecklistUpdate(c, env.Data)
	default:
		log.Debug().Str("event", env.Event).Msg("realtime: unknown event dropped")
	}
}

func (h *Hub) handleJoin(c *Client, data json.RawMessage) {
	var join JoinProject
	if err := json.Unmarshal(data, &join); err != nil || join.ProjectID == "" || join.UserID == "" || join.UserName == "" {
		// Malformed join is reported to the offending connection only.
		c.sendEvent(EventError, ErrorEvent{Message: "projectId, userId and userName are required"})
		return
	}

	r, ok := h.rooms[join.ProjectID]
	if !ok {
		r = &room{projectID: join.ProjectID, members: make(map[uuid.UUID]*participant)}
		h.rooms[join.ProjectID] = r
	}

	p := &participant{
		client:       c,
		userID:       join.UserID,
		userName:     join.UserName,
		presence:     PresenceViewing,
		lastActivity: h.now(),
	}

	// Roster snapshot excludes the joining participant.
	roster := make([]RoomUser, 0, len(r.members))
	for _, m := range r.members {
		roster = append(roster, m.roomUser())
	}

	r.members[c.id] = p
	if h.joined[c] == nil {
		h.joined[c] = make(map[string]struct{})
	}
	h.joined[c][join.ProjectID] = struct{}{}

	c.sendEvent(EventRoomUsers, RoomUsers{ProjectID: join.ProjectID, Users: roster})
	c.sendEvent(EventJoinSuccess, JoinSuccess{ProjectID: join.ProjectID})

	h.broadcast(r, c, EventUserJoined, UserJoined{
		ProjectID: join.ProjectID,
		User:      p.roomUser(),
		Timestamp: h.now(),
	})

	log.Debug().Str("project", join.ProjectID).Str("user", join.UserID).Msg("realtime: joined room")
}

func (h *Hub) handlePresence(c *Client, data json.RawMessage) {
	var upd PresenceUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return
	}

	r, p := h.member(c, upd.ProjectID)
	if p == nil {
		return
	}

	p.presence = upd.Presence
	p.editingCard = upd.EditingCard
	p.lastActivity = h.now()

	h.broadcast(r, c, EventUserPresence, UserPresence{
		ProjectID:   upd.ProjectID,
		UserID:      p.userID,
		Presence:    upd.Presence,
		EditingCard: upd.EditingCard,
		Timestamp:   h.now(),
	})
}

func (h *Hub) handleCardMove(c *Client, data json.RawMessage) {
	var move CardMove
	if err := json.Unmarshal(data, &move); err != nil {
		return
	}

	r, p := h.member(c, move.ProjectID)
	if p == nil {
		return
	}
	p.lastActivity = h.now()

	h.broadcast(r, c, EventCardMoved, CardMoved{
		CardMove:  move,
		MovedBy:   Actor{UserID: p.userID, UserName: p.userName},
		Timestamp: h.now(),
	})
}

func (h *Hub) handleCardUpdate(c *Client, data json.RawMessage) {
	var upd CardUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return
	}

	r, p := h.member(c, upd.ProjectID)
	if p == nil {
		return
	}
	p.lastActivity = h.now()

	h.broadcast(r, c, EventCardUpdated, CardUpdated{
		CardUpdate: upd,
		UpdatedBy:  Actor{UserID: p.userID, UserName: p.userName},
		Timestamp:  h.now(),
	})
}

func (h *Hub) handleListUpdate(c *Client, data json.RawMessage) {
	var upd ListUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return
	}

	r, p := h.member(c, upd.ProjectID)
	if p == nil {
		return
	}
	p.lastActivity = h.now()

	h.broadcast(r, c, EventListUpdated, ListUpdated{
		ListUpdate: upd,
		UpdatedBy:  Actor{UserID: p.userID, UserName: p.userName},
		Timestamp:  h.now(),
	})
}

func (h *Hub) handleChecklistUpdate(c *Client, data json.RawMessage) {
	var upd ChecklistUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return
	}

	r, p := h.member(c, upd.ProjectID)
	if p == nil {
		return
	}
	p.lastActivity = h.now()

	h.broadcast(r, c, EventChecklistUpdated, ChecklistUpdated{
		ChecklistUpdate: upd,
		UpdatedBy:       Actor{UserID: p.userID, UserName: p.userName},
		Timestamp:       h.now(),
	})
}

// member resolves the sender's participant record in the given project room.
// Returns nils when the room doesn't exist or the connection never joined it.
func (h *Hub) member(c *Client, projectID string) (*room, *participant) {
	r, ok := h.rooms[projectID]
	if !ok {
		return nil, nil
	}
	p, ok := r.members[c.id]
	if !ok {
		return nil, nil
	}
	return r, p
}

// broadcast fans an event out to every room member except skip. Delivery is
// at-most-once: a member with a full send queue misses the event.
func (h *Hub) broadcast(r *room, skip *Client, event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("realtime: broadcast encode")
		return
	}

	for _, m := range r.members {
		if m.client == skip {
			continue
		}
		m.client.queue(env)
	}
}

// leaveAll removes a connection from every room it joined, announcing
// user:left to each and pruning rooms left empty.
func (h *Hub) leaveAll(c *Client) {
	for projectID := range h.joined[c] {
		h.leaveRoom(c, projectID)
	}
	delete(h.joined, c)
}

func (h *Hub) leaveRoom(c *Client, projectID string) {
	r, ok := h.rooms[projectID]
	if !ok {
		return
	}

	p, ok := r.members[c.id]
	if !ok {
		return
	}

	delete(r.members, c.id)
	if set := h.joined[c]; set != nil {
		delete(set, projectID)
	}

	h.broadcast(r, c, EventUserLeft, UserLeft{
		ProjectID: projectID,
		UserID:    p.userID,
		Timestamp: h.now(),
	})

	// No empty rooms persist.
	if len(r.members) == 0 {
		delete(h.rooms, projectID)
	}
}

// sweep evicts participants whose last activity is older than idleTimeout,
// with full leave semantics for the idle connection.
func (h *Hub) sweep() {
	cutoff := h.now().Add(-idleTimeout)

	var idle []*Client
	seen := make(map[*Client]struct{})
	for _, r := range h.rooms {
		for _, p := range r.members {
			if p.lastActivity.Before(cutoff) {
				if _, dup := seen[p.client]; !dup {
					seen[p.client] = struct{}{}
					idle = append(idle, p.client)
				}
			}
		}
	}

	for _, c := range idle {
		log.Info().Str("conn", c.id.String()).Msg("realtime: evicting idle connection")
		h.leaveAll(c)
	}
}

func (h *Hub) roomCount() int {
	return len(h.rooms)
}
