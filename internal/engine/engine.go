package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/scenerunner/internal/collision"
	"github.com/vk/scenerunner/internal/ctxlog"
	"github.com/vk/scenerunner/internal/primitive"
	"github.com/vk/scenerunner/internal/world"
	"golang.org/x/sync/errgroup"
)

// Engine executes the scripts stored in a world. One engine drives one
// world; it may run any number of times but never twice at once.
type Engine struct {
	world       *world.World
	repeatDelay time.Duration
	observers   observers

	running atomic.Bool

	// stepMu serializes steps across actors. latched and collisions belong
	// to the current run and are guarded by it.
	stepMu     sync.Mutex
	latched    bool
	collisions []collision.Pair
}

// Option configures an Engine.
type Option func(*Engine)

// WithRepeatDelay sets the pause between two iterations of a repeat.
func WithRepeatDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.repeatDelay = d
		}
	}
}

// WithObserver adds an observer to every run.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an engine for w.
func New(w *world.World, opts ...Option) *Engine {
	e := &Engine{
		world:       w,
		repeatDelay: primitive.RepeatDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Running reports whether a run is in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// RunAll starts one task per actor that has a script and is not halted, and
// blocks until every task settles. Failures stay inside their actor's result;
// the only error RunAll returns is ErrAlreadyRunning.
//
// Cancelling ctx ends pending say, think and repeat waits, which is how a
// host shuts a run down. It is not a substitute for the collision halt.
func (e *Engine) RunAll(ctx context.Context) (*Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	logger := ctxlog.FromContext(ctx)

	e.stepMu.Lock()
	e.latched = false
	e.collisions = nil
	e.stepMu.Unlock()

	e.world.SetRunning(true)
	defer e.world.SetRunning(false)

	report := &Report{Started: time.Now()}

	var tasks []world.Actor
	for _, a := range e.world.Actors() {
		if a.Script.Empty() {
			logger.Debug("Skipping actor without script.", "actor", a.ID)
			continue
		}
		if a.HaltedByCollision {
			logger.Debug("Skipping halted actor.", "actor", a.ID)
			continue
		}
		tasks = append(tasks, a)
	}
	logger.Info("▶️ Starting run.", "actors", len(tasks))

	results := make([]ActorResult, len(tasks))
	var g errgroup.Group
	for i, a := range tasks {
		i, a := i, a
		g.Go(func() error {
			results[i] = e.runActor(ctx, a.ID, a.Script)
			return nil
		})
	}
	_ = g.Wait()

	e.stepMu.Lock()
	report.Collisions = e.collisions
	e.stepMu.Unlock()
	report.Actors = results
	report.Finished = time.Now()

	logger.Info("✅ Run finished.",
		"actors", len(results),
		"collided", report.Collided(),
		"faults", len(report.Faults()),
		"duration", report.Duration(),
	)
	return report, nil
}
