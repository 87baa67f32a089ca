// Package notify provides the scoped, dismissable notification surface
// consumed by the realtime conflict resolver, plus outbound sinks for
// content-approval events.
package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
)

// Options controls how a notification is presented.
type Options struct {
	// Sticky notifications are not auto-dismissed; the surface keeps them
	// visible until Hide is called or the user dismisses them.
	Sticky bool
	Kind   Kind
}

// Surface is a dismissable notification target. Show with an id already on
// screen replaces that notification in place.
type Surface interface {
	Show(id, message string, opts Options)
	Hide(id string)
}

// LogSurface writes notifications to the process log. It is the default
// sink when no UI surface is attached.
type LogSurface struct{}

func (LogSurface) Show(id, message string, opts Options) {
	log.Info().Str("id", id).Str("kind", string(opts.Kind)).Bool("sticky", opts.Sticky).Msg(message)
}

func (LogSurface) Hide(id string) {
	log.Debug().Str("id", id).Msg("notification hidden")
}

// Fanout delivers every notification to all attached surfaces.
type Fanout struct {
	mu       sync.RWMutex
	surfaces []Surface
}

// NewFanout creates a Fanout with the given initial surfaces.
func NewFanout(surfaces ...Surface) *Fanout {
	return &Fanout{surfaces: surfaces}
}

// Attach adds a surface to the fanout.
func (f *Fanout) Attach(s Surface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surfaces = append(f.surfaces, s)
}

func (f *Fanout) Show(id, message string, opts Options) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.surfaces {
		s.Show(id, message, opts)
	}
}

func (f *Fanout) Hide(id string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.surfaces {
		s.Hide(id)
	}
}
