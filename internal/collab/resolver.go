package collab

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gosuda/lanes/internal/notify"
	"github.com/gosuda/lanes/internal/realtime"
)

// EntityType names the kind of board entity a conflict is about.
type EntityType string

const (
	EntityCard      EntityType = "card"
	EntityList      EntityType = "list"
	EntityChecklist EntityType = "checklist"
)

// Resolution is one of the three ways a conflict can be settled.
type Resolution string

const (
	// ResolutionMerge reconciles both change sets field by field.
	ResolutionMerge Resolution = "merge"
	// ResolutionOverride keeps the local change set, discarding remote.
	ResolutionOverride Resolution = "override"
	// ResolutionCancel accepts the remote change set, discarding local.
	ResolutionCancel Resolution = "cancel"
)

// ErrNoConflict is returned when resolving a key with no open conflict.
var ErrNoConflict = errors.New("collab: no open conflict")

// Conflict is one detected disagreement over a single entity: the viewer's
// unsaved local delta against a freshly arrived remote delta.
type Conflict struct {
	Entity      EntityType
	EntityID    string
	Local       Change
	Remote      Change
	RemoteActor realtime.Actor
	DetectedAt  time.Time
}

// Listener is invoked synchronously when a conflict is registered for its key.
type Listener func(*Conflict)

// Resolver holds open conflicts keyed by (entity type, entity id) and
// computes resolved values. Each board viewer owns its own Resolver; there
// is no cross-client conflict state.
type Resolver struct {
	mu        sync.Mutex
	open      map[string]*Conflict
	listeners map[string]map[int]Listener
	nextSub   int
	toasts    notify.Surface
}

// NewResolver creates a Resolver surfacing conflicts on the given surface.
func NewResolver(toasts notify.Surface) *Resolver {
	if toasts == nil {
		toasts = notify.LogSurface{}
	}
	return &Resolver{
		open:      make(map[string]*Conflict),
		listeners: make(map[string]map[int]Listener),
		toasts:    toasts,
	}
}

func conflictKey(entity EntityType, id string) string {
	return string(entity) + ":" + id
}

// Register opens a conflict, replacing any prior record for the same
// (entity type, entity id) — the newest remote change is the one to
// reconcile against. Listeners for the key are invoked synchronously and a
// sticky notification names the remote actor.
func (r *Resolver) Register(c *Conflict) {
	key := conflictKey(c.Entity, c.EntityID)

	r.mu.Lock()
	r.open[key] = c
	subs := make([]Listener, 0, len(r.listeners[key]))
	for _, fn := range r.listeners[key] {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	r.toasts.Show("conflict:"+key,
		fmt.Sprintf("%s made conflicting changes to this %s", c.RemoteActor.UserName, c.Entity),
		notify.Options{Sticky: true, Kind: notify.KindWarning},
	)

	for _, fn := range subs {
		fn(c)
	}
}

// Get returns the open conflict for the key, if any.
func (r *Resolver) Get(entity EntityType, id string) (*Conflict, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.open[conflictKey(entity, id)]
	return c, ok
}

// OpenCount reports how many conflicts are currently open.
func (r *Resolver) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// Resolve settles the open conflict for the key with the given action and
// returns the resolved change set. The record is removed and a confirmation
// notification replaces the conflict toast.
func (r *Resolver) Resolve(entity EntityType, id string, action Resolution) (Change, error) {
	key := conflictKey(entity, id)

	r.mu.Lock()
	c, ok := r.open[key]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("collab.Resolver.Resolve: %s: %w", key, ErrNoConflict)
	}
	delete(r.open, key)
	r.mu.Unlock()

	var resolved Change
	switch action {
	case ResolutionMerge:
		resolved = Merge(c.Local, c.Remote)
	case ResolutionOverride:
		resolved = c.Local
	case ResolutionCancel:
		resolved = c.Remote
	default:
		// Unknown action: restore the record so the user can retry.
		r.mu.Lock()
		r.open[key] = c
		r.mu.Unlock()
		return nil, fmt.Errorf("collab.Resolver.Resolve: unknown action %q", action)
	}

	r.toasts.Hide("conflict:" + key)
	r.toasts.Show("conflict-resolved:"+key,
		fmt.Sprintf("conflict resolved using %s", action),
		notify.Options{Kind: notify.KindSuccess},
	)

	return resolved, nil
}

// Dismiss abandons the open conflict for the key without resolving it.
func (r *Resolver) Dismiss(entity EntityType, id string) {
	key := conflictKey(entity, id)

	r.mu.Lock()
	delete(r.open, key)
	r.mu.Unlock()

	r.toasts.Hide("conflict:" + key)
}

// Subscribe registers a listener for conflicts on the key. The returned
// handle removes exactly this subscription; the listener list for a key is
// pruned when the last subscriber unsubscribes.
func (r *Resolver) Subscribe(entity EntityType, id string, fn Listener) func() {
	key := conflictKey(entity, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners[key] == nil {
		r.listeners[key] = make(map[int]Listener)
	}
	sub := r.nextSub
	r.nextSub++
	r.listeners[key][sub] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.listeners[key], sub)
		if len(r.listeners[key]) == 0 {
			delete(r.listeners, key)
		}
	}
}
