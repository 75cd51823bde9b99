package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/scenerunner/internal/collision"
	"github.com/vk/scenerunner/internal/primitive"
	"github.com/vk/scenerunner/internal/world"
)

// ErrAlreadyRunning is returned by RunAll while another run is in flight.
var ErrAlreadyRunning = errors.New("engine: a run is already in progress")

// RuntimeFault is a failure while interpreting one actor's script. It aborts
// only that actor's remaining instructions for the current run.
type RuntimeFault struct {
	Actor string
	Err   error
}

func (f *RuntimeFault) Error() string {
	return fmt.Sprintf("runtime fault in actor %q: %v", f.Actor, f.Err)
}

func (f *RuntimeFault) Unwrap() error { return f.Err }

// ActorResult summarizes one actor's task. Executed counts the primitives
// that took effect; halted no-ops are not counted. Err is a *RuntimeFault or
// the context error that ended the task early.
type ActorResult struct {
	ID       string
	Executed int
	Err      error
}

// Report describes a finished run.
type Report struct {
	Started    time.Time
	Finished   time.Time
	Actors     []ActorResult
	Collisions []collision.Pair
}

// Duration is the wall-clock time the run took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Collided reports whether the collision response fired during the run.
func (r *Report) Collided() bool {
	return len(r.Collisions) > 0
}

// Faults returns the runtime faults of the run, in actor order.
func (r *Report) Faults() []*RuntimeFault {
	var faults []*RuntimeFault
	for _, a := range r.Actors {
		var f *RuntimeFault
		if errors.As(a.Err, &f) {
			faults = append(faults, f)
		}
	}
	return faults
}

// Step is a primitive that took effect, with the target actor's state right
// after it.
type Step struct {
	Actor       string
	Instruction primitive.Instruction
	State       world.Actor
	At          time.Time
}

// Observer watches a run. Callbacks for steps and collisions are made while
// the engine holds its step lock, so they must not call back into the
// engine and should return quickly.
type Observer interface {
	OnStep(ctx context.Context, step Step)
	OnCollision(ctx context.Context, pairs []collision.Pair)
	OnActorDone(ctx context.Context, result ActorResult)
}

type observers []Observer

func (o observers) OnStep(ctx context.Context, step Step) {
	for _, obs := range o {
		obs.OnStep(ctx, step)
	}
}

func (o observers) OnCollision(ctx context.Context, pairs []collision.Pair) {
	for _, obs := range o {
		obs.OnCollision(ctx, pairs)
	}
}

func (o observers) OnActorDone(ctx context.Context, result ActorResult) {
	for _, obs := range o {
		obs.OnActorDone(ctx, result)
	}
}
