package world

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/vk/scenerunner/internal/primitive"
)

const (
	// DefaultWidth and DefaultHeight size an actor added without a size.
	DefaultWidth  = 95.0
	DefaultHeight = 105.0

	// DefaultActorID and DefaultActorName identify the actor NewDefault creates.
	DefaultActorID   = "default//sprite"
	DefaultActorName = "Sprite 1"

	generatedIDPrefix = "sprite//"
)

// BubbleKind distinguishes the two bubbles an actor may show at once.
type BubbleKind string

// The two bubble kinds; an actor can show one of each at the same time.
const (
	Speech  BubbleKind = "speech"
	Thought BubbleKind = "thought"
)

// Valid reports whether k is Speech or Thought.
func (k BubbleKind) Valid() bool {
	return k == Speech || k == Thought
}

// Bubble is a speech or thought bubble. It expires once Duration has passed
// since Timestamp.
type Bubble struct {
	Text      string
	Duration  time.Duration
	Timestamp time.Time

	generation uint64
}

// Expired reports whether the bubble should no longer be shown at now.
func (b *Bubble) Expired(now time.Time) bool {
	return b == nil || now.Sub(b.Timestamp) >= b.Duration
}

// Actor is a snapshot of one scriptable entity of the scene.
type Actor struct {
	ID       string
	Name     string
	X, Y     float64
	Rotation float64
	Width    float64
	Height   float64

	// Script is the compiled primitive sequence; Source is its serialized
	// block-graph, kept for re-editing and never read by the engine.
	Script primitive.Script
	Source string

	Speech  *Bubble
	Thought *Bubble

	CollisionFlagged  bool
	HaltedByCollision bool
}

// Bounds returns the axis-aligned bounding box centered on the actor.
func (a Actor) Bounds() (left, top, right, bottom float64) {
	hw, hh := a.Width/2, a.Height/2
	return a.X - hw, a.Y - hh, a.X + hw, a.Y + hh
}

// Bubble returns the actor's bubble of the given kind, or nil.
func (a Actor) Bubble(kind BubbleKind) *Bubble {
	switch kind {
	case Speech:
		return a.Speech
	case Thought:
		return a.Thought
	}
	return nil
}

func (a Actor) String() string {
	return fmt.Sprintf("%s (%s) at (%s, %s) rot %s",
		a.ID, a.Name, fmtNum(a.X), fmtNum(a.Y), fmtNum(a.Rotation))
}

// clone copies the actor so the caller cannot reach the store through the
// bubble pointers. Scripts are replaced wholesale and never mutated in
// place, so the slice is shared.
func (a *Actor) clone() Actor {
	c := *a
	if a.Speech != nil {
		b := *a.Speech
		c.Speech = &b
	}
	if a.Thought != nil {
		b := *a.Thought
		c.Thought = &b
	}
	return c
}

func (a *Actor) bubbleSlot(kind BubbleKind) **Bubble {
	switch kind {
	case Speech:
		return &a.Speech
	case Thought:
		return &a.Thought
	}
	return nil
}

// NormalizeRotation folds degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r == 360 || r == 0 {
		return 0
	}
	return r
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
