package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vk/scenerunner/internal/collision"
	"github.com/vk/scenerunner/internal/ctxlog"
	"github.com/vk/scenerunner/internal/primitive"
	"github.com/vk/scenerunner/internal/world"
)

// runActor interprets one actor's script. Panics and invalid instructions
// become a RuntimeFault for this actor only; instructions that ran before
// the fault keep their effects.
func (e *Engine) runActor(ctx context.Context, id string, script primitive.Script) (res ActorResult) {
	res.ID = id
	logger := ctxlog.FromContext(ctx).With("actor", id)
	ctx = ctxlog.WithLogger(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			res.Err = &RuntimeFault{Actor: id, Err: fmt.Errorf("panic: %v", r)}
		}
		if res.Err != nil {
			logger.Error("Actor task aborted.", "error", res.Err, "executed", res.Executed)
		} else {
			logger.Debug("Actor task finished.", "executed", res.Executed)
		}
		e.observers.OnActorDone(ctx, res)
	}()

	logger.Debug("Actor task started.", "instructions", script.Len())
	for _, in := range script {
		if err := e.checkAndExec(ctx, in, &res); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				res.Err = err
			} else {
				res.Err = &RuntimeFault{Actor: id, Err: err}
			}
			return res
		}
	}
	return res
}

// checkAndExec validates in just before running it.
func (e *Engine) checkAndExec(ctx context.Context, in primitive.Instruction, res *ActorResult) error {
	if err := in.Check(); err != nil {
		return err
	}
	return e.exec(ctx, in, res)
}

func (e *Engine) exec(ctx context.Context, in primitive.Instruction, res *ActorResult) error {
	switch in.Kind {
	case primitive.Move, primitive.Turn, primitive.GoTo:
		e.step(ctx, in, res)
		return nil
	case primitive.Say, primitive.Think:
		return e.bubble(ctx, in, res)
	case primitive.Repeat:
		return e.repeat(ctx, in, res)
	}
	return fmt.Errorf("%w: %q", primitive.ErrUnknownKind, in.Kind)
}

// step executes a geometric primitive and runs collision detection, all
// under the step lock.
func (e *Engine) step(ctx context.Context, in primitive.Instruction, res *ActorResult) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	a, ok := e.world.Actor(in.Actor)
	if !ok || a.HaltedByCollision {
		return
	}

	switch in.Kind {
	case primitive.Move:
		rad := a.Rotation * math.Pi / 180
		e.world.SetPosition(in.Actor, a.X+math.Cos(rad)*in.Steps, a.Y+math.Sin(rad)*in.Steps)
	case primitive.Turn:
		e.world.SetRotation(in.Actor, a.Rotation+in.Degrees)
	case primitive.GoTo:
		e.world.SetPosition(in.Actor, in.X, in.Y)
	}
	e.record(ctx, in, res)

	if e.latched {
		return
	}
	if pairs := collision.Detect(e.world.Actors()); len(pairs) > 0 {
		e.respond(ctx, pairs)
	}
}

// respond applies the collision response. Must be called with stepMu held.
func (e *Engine) respond(ctx context.Context, pairs []collision.Pair) {
	e.latched = true
	e.collisions = pairs

	ctxlog.FromContext(ctx).Info("💥 Collision detected, halting all actors.", "pairs", fmt.Sprint(pairs))
	for _, p := range pairs {
		e.world.SetCollisionFlag(p.A, true)
		e.world.SetCollisionFlag(p.B, true)
		e.world.SwapScripts(p.A, p.B)
	}
	e.world.SetHalted(true)
	e.observers.OnCollision(ctx, pairs)
}

// bubble shows a speech or thought bubble and then suspends the actor for
// its duration. A halt during the wait does not shorten it.
func (e *Engine) bubble(ctx context.Context, in primitive.Instruction, res *ActorResult) error {
	shown := func() bool {
		e.stepMu.Lock()
		defer e.stepMu.Unlock()

		a, ok := e.world.Actor(in.Actor)
		if !ok || a.HaltedByCollision {
			return false
		}
		kind := world.Speech
		if in.Kind == primitive.Think {
			kind = world.Thought
		}
		e.world.SetBubble(in.Actor, kind, in.Text, in.Duration())
		e.record(ctx, in, res)
		return true
	}()
	if !shown {
		return nil
	}
	return wait(ctx, in.Duration())
}

// repeat runs the body Count times with the repeat delay between
// iterations. The halt flag is checked before every iteration.
func (e *Engine) repeat(ctx context.Context, in primitive.Instruction, res *ActorResult) error {
	for i := 0; i < in.Count; i++ {
		if e.halted(in.Actor) {
			return nil
		}
		if i == 0 {
			e.recordLocked(ctx, in, res)
		} else if err := wait(ctx, e.repeatDelay); err != nil {
			return err
		}
		for _, child := range in.Body {
			if err := e.checkAndExec(ctx, child, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) recordLocked(ctx context.Context, in primitive.Instruction, res *ActorResult) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	e.record(ctx, in, res)
}

func (e *Engine) halted(id string) bool {
	a, ok := e.world.Actor(id)
	return !ok || a.HaltedByCollision
}

// record counts an executed primitive and reports it. Must be called with
// stepMu held.
func (e *Engine) record(ctx context.Context, in primitive.Instruction, res *ActorResult) {
	res.Executed++
	ctxlog.FromContext(ctx).Debug("Executed primitive.", "instruction", in.String())
	if len(e.observers) == 0 {
		return
	}
	state, _ := e.world.Actor(in.Actor)
	e.observers.OnStep(ctx, Step{
		Actor:       in.Actor,
		Instruction: in,
		State:       state,
		At:          time.Now(),
	})
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
