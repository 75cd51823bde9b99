// Package primitive defines the fixed vocabulary of actor operations shared
// by the compiler and the execution engine. It contains no behavior beyond
// validation and a canonical text rendering.
package primitive

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind names a primitive operation.
type Kind string

const (
	Move   Kind = "move"
	Turn   Kind = "turn"
	GoTo   Kind = "goTo"
	Say    Kind = "say"
	Think  Kind = "think"
	Repeat Kind = "repeat"
)

// RepeatDelay is the pause inserted between two iterations of a repeat.
const RepeatDelay = 100 * time.Millisecond

// Kinds lists every primitive in palette order.
var Kinds = []Kind{Move, Turn, GoTo, Say, Think, Repeat}

// Valid reports whether k is one of the six primitives.
func (k Kind) Valid() bool {
	switch k {
	case Move, Turn, GoTo, Say, Think, Repeat:
		return true
	}
	return false
}

// Geometric reports whether executing k changes an actor's position or
// rotation, which is what triggers a collision check.
func (k Kind) Geometric() bool {
	return k == Move || k == Turn || k == GoTo
}

// Blocking reports whether k suspends the issuing actor.
func (k Kind) Blocking() bool {
	return k == Say || k == Think || k == Repeat
}

// Instruction is one compiled primitive invocation. Only the parameters of
// its Kind are meaningful; Actor is the identity the instruction targets.
type Instruction struct {
	Kind    Kind          `json:"kind"`
	Actor   string        `json:"actor"`
	Steps   float64       `json:"steps,omitempty"`
	Degrees float64       `json:"degrees,omitempty"`
	X       float64       `json:"x,omitempty"`
	Y       float64       `json:"y,omitempty"`
	Text    string        `json:"text,omitempty"`
	Seconds float64       `json:"seconds,omitempty"`
	Count   int           `json:"count,omitempty"`
	Body    []Instruction `json:"body,omitempty"`
}

var (
	ErrUnknownKind  = errors.New("unknown primitive")
	ErrInvalidCount = errors.New("repeat count must be at least 1")
	ErrNegativeTime = errors.New("duration must not be negative")
	ErrNoActor      = errors.New("instruction has no target actor")
)

// Validate checks the instruction (and, for repeat, its body) for values the
// engine cannot interpret.
func (in Instruction) Validate() error {
	if err := in.Check(); err != nil {
		return err
	}
	if in.Kind == Repeat {
		for i, child := range in.Body {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("repeat body[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Check validates the instruction itself, leaving a repeat body unchecked.
// The engine checks each instruction right before running it.
func (in Instruction) Check() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, in.Kind)
	}
	if in.Actor == "" {
		return fmt.Errorf("%s: %w", in.Kind, ErrNoActor)
	}
	switch in.Kind {
	case Say, Think:
		if in.Seconds < 0 || math.IsNaN(in.Seconds) {
			return fmt.Errorf("%s: %w", in.Kind, ErrNegativeTime)
		}
	case Repeat:
		if in.Count < 1 {
			return fmt.Errorf("%w, got %d", ErrInvalidCount, in.Count)
		}
	}
	return nil
}

// Duration converts the instruction's seconds into a wall-clock duration.
func (in Instruction) Duration() time.Duration {
	return Seconds(in.Seconds)
}

// Seconds converts a fractional number of seconds into a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// String renders a single instruction without its body.
func (in Instruction) String() string {
	actor := strconv.Quote(in.Actor)
	switch in.Kind {
	case Move:
		return fmt.Sprintf("move(%s, %s)", actor, num(in.Steps))
	case Turn:
		return fmt.Sprintf("turn(%s, %s)", actor, num(in.Degrees))
	case GoTo:
		return fmt.Sprintf("goTo(%s, %s, %s)", actor, num(in.X), num(in.Y))
	case Say, Think:
		return fmt.Sprintf("%s(%s, %s, %s)", in.Kind, actor, strconv.Quote(in.Text), num(in.Seconds))
	case Repeat:
		return fmt.Sprintf("repeat(%s, %d)", actor, in.Count)
	}
	return fmt.Sprintf("%s(%s)", in.Kind, actor)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Script is the ordered primitive sequence compiled for one actor.
type Script []Instruction

// Empty reports whether the script has nothing to execute.
func (s Script) Empty() bool { return len(s) == 0 }

// Validate validates every instruction in order.
func (s Script) Validate() error {
	for i, in := range s {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// Len counts instructions including those nested in repeat bodies (each
// body counted once).
func (s Script) Len() int {
	n := 0
	for _, in := range s {
		n++
		if in.Kind == Repeat {
			n += Script(in.Body).Len()
		}
	}
	return n
}

// Text renders the script in its canonical textual form. The rendering is
// deterministic, so equal scripts always produce byte-identical text.
func (s Script) Text() string {
	var b strings.Builder
	s.write(&b, 0)
	return b.String()
}

func (s Script) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range s {
		b.WriteString(indent)
		b.WriteString(in.String())
		if in.Kind == Repeat {
			b.WriteString(" {\n")
			Script(in.Body).write(b, depth+1)
			b.WriteString(indent)
			b.WriteString("}")
		}
		b.WriteString("\n")
	}
}
