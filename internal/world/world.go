package world

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/scenerunner/internal/primitive"
)

// ErrDuplicateID is returned by Add when the id is already taken.
var ErrDuplicateID = errors.New("actor id already exists")

// World is the in-memory scene store. The zero value is not usable; create
// one with New or NewDefault.
type World struct {
	mu       sync.RWMutex
	actors   []*Actor
	selected string
	running  bool

	generation uint64 // last bubble generation handed out
	created    int    // actors ever added, used for default names

	now       func() time.Time
	afterFunc func(time.Duration, func())
	newID     func() string
}

// Option configures a World.
type Option func(*World)

// WithClock replaces the clock used to stamp bubbles.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// WithTimer replaces time.AfterFunc for scheduling bubble expiry.
func WithTimer(afterFunc func(time.Duration, func())) Option {
	return func(w *World) { w.afterFunc = afterFunc }
}

// WithIDGenerator replaces the generator used for actors added without an id.
func WithIDGenerator(gen func() string) Option {
	return func(w *World) { w.newID = gen }
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		newID: func() string {
			return generatedIDPrefix + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewDefault creates a world holding the single default actor, selected.
func NewDefault(opts ...Option) *World {
	w := New(opts...)
	a, _ := w.Add(Actor{ID: DefaultActorID, Name: DefaultActorName})
	w.Select(a.ID)
	return w
}

// Add appends an actor. A missing id is generated, a missing name becomes
// "Sprite N" and a zero size takes the defaults. The new actor's snapshot is
// returned.
func (w *World) Add(a Actor) (Actor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if a.ID == "" {
		a.ID = w.newID()
	}
	if w.find(a.ID) != nil {
		return Actor{}, fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	w.created++
	if a.Name == "" {
		a.Name = fmt.Sprintf("Sprite %d", w.created)
	}
	if a.Width <= 0 {
		a.Width = DefaultWidth
	}
	if a.Height <= 0 {
		a.Height = DefaultHeight
	}
	a.Rotation = NormalizeRotation(a.Rotation)
	a.Speech, a.Thought = nil, nil

	stored := a
	w.actors = append(w.actors, &stored)
	return stored.clone(), nil
}

// AddActor adds an actor with a generated id at (x, y).
func (w *World) AddActor(name string, x, y float64) Actor {
	a, _ := w.Add(Actor{Name: name, X: x, Y: y})
	return a
}

// Actor returns a snapshot of the actor with the given id.
func (w *World) Actor(id string) (Actor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a := w.find(id)
	if a == nil {
		return Actor{}, false
	}
	return a.clone(), true
}

// Actors returns snapshots of every actor in creation order.
func (w *World) Actors() []Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Actor, len(w.actors))
	for i, a := range w.actors {
		out[i] = a.clone()
	}
	return out
}

// Len returns the number of actors.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actors)
}

// Select marks an actor as selected. Unknown ids are ignored.
func (w *World) Select(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.find(id) != nil {
		w.selected = id
	}
}

// Selected returns the selected actor, if any.
func (w *World) Selected() (Actor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a := w.find(w.selected)
	if a == nil {
		return Actor{}, false
	}
	return a.clone(), true
}

// IsRunning reports the global running flag.
func (w *World) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// SetRunning sets the global running flag.
func (w *World) SetRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = running
}

// SetPosition moves an actor to (x, y).
func (w *World) SetPosition(id string, x, y float64) {
	w.update(id, func(a *Actor) {
		a.X, a.Y = x, y
	})
}

// SetRotation sets an actor's heading, folded into [0, 360).
func (w *World) SetRotation(id string, deg float64) {
	w.update(id, func(a *Actor) {
		a.Rotation = NormalizeRotation(deg)
	})
}

// SetScript assigns a compiled script and its serialized block-graph.
func (w *World) SetScript(id string, script primitive.Script, source string) {
	w.update(id, func(a *Actor) {
		a.Script = script
		a.Source = source
	})
}

// SetCollisionFlag sets an actor's collision flag.
func (w *World) SetCollisionFlag(id string, flagged bool) {
	w.update(id, func(a *Actor) {
		a.CollisionFlagged = flagged
	})
}

// SetBubble shows a bubble of the given kind, replacing any previous bubble
// of that kind, and schedules its removal after d. The removal only clears
// this bubble: a newer one set in the meantime survives.
func (w *World) SetBubble(id string, kind BubbleKind, text string, d time.Duration) {
	if !kind.Valid() {
		return
	}
	w.mu.Lock()
	a := w.find(id)
	if a == nil {
		w.mu.Unlock()
		return
	}
	w.generation++
	gen := w.generation
	*a.bubbleSlot(kind) = &Bubble{
		Text:       text,
		Duration:   d,
		Timestamp:  w.now(),
		generation: gen,
	}
	w.mu.Unlock()

	w.afterFunc(d, func() { w.expireBubble(kind, gen) })
}

// ClearBubble removes an actor's bubble of the given kind.
func (w *World) ClearBubble(id string, kind BubbleKind) {
	if !kind.Valid() {
		return
	}
	w.update(id, func(a *Actor) {
		*a.bubbleSlot(kind) = nil
	})
}

// expireBubble clears the bubble with generation gen wherever it is now.
// Scripts, and with them ids, may have been swapped since it was set.
func (w *World) expireBubble(kind BubbleKind, gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.actors {
		slot := a.bubbleSlot(kind)
		if *slot != nil && (*slot).generation == gen {
			*slot = nil
			return
		}
	}
}

// SetHalted sets the halted-by-collision flag on every actor.
func (w *World) SetHalted(halted bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.actors {
		a.HaltedByCollision = halted
	}
}

// Resume clears the halted and collision flags on every actor.
func (w *World) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.actors {
		a.HaltedByCollision = false
		a.CollisionFlagged = false
	}
}

// SwapScripts exchanges the identity, script and source of two actors. Name,
// geometry, bubbles and flags stay where they are, so instructions tagged
// with id a drive the slot that used to be b's from now on. Swapping an actor
// with itself, or with an unknown id, does nothing.
func (w *World) SwapScripts(a, b string) {
	if a == b {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	x, y := w.find(a), w.find(b)
	if x == nil || y == nil {
		return
	}
	x.ID, y.ID = y.ID, x.ID
	x.Script, y.Script = y.Script, x.Script
	x.Source, y.Source = y.Source, x.Source
	if w.selected == a {
		w.selected = b
	} else if w.selected == b {
		w.selected = a
	}
}

func (w *World) update(id string, fn func(*Actor)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a := w.find(id); a != nil {
		fn(a)
	}
}

// find must be called with w.mu held.
func (w *World) find(id string) *Actor {
	if id == "" {
		return nil
	}
	for _, a := range w.actors {
		if a.ID == id {
			return a
		}
	}
	return nil
}
