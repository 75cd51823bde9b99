package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/scenerunner/internal/ctxlog"
	"github.com/vk/scenerunner/internal/engine"
	"github.com/vk/scenerunner/internal/watch"
)

// Run executes the configured number of runs, then, in watch mode, keeps
// rerunning the scene whenever a script file changes until ctx is done. The
// final world state is printed to the app's output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.Close()

	run := 0
	for ; run < a.config.Runs; run++ {
		if run > 0 && a.config.Resume {
			a.logger.Debug("Resuming actors before the next run.")
			a.world.Resume()
		}
		if err := a.runOnce(ctx, run+1); err != nil {
			return err
		}
	}

	if a.config.Watch {
		if err := a.watchLoop(ctx, run); err != nil {
			return err
		}
	}

	printWorld(a.outW, a.world.Actors())
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) runOnce(ctx context.Context, n int) error {
	if a.trace != nil {
		a.trace.StartRun(n)
	}
	report, err := a.engine.RunAll(ctxlog.With(ctx, "run", n))
	if err != nil {
		return fmt.Errorf("run %d: %w", n, err)
	}
	printReport(a.outW, n, report)
	return nil
}

// watchLoop recompiles the actors scripted by a changed file, resumes the
// world and runs it again.
func (a *App) watchLoop(ctx context.Context, run int) error {
	paths := a.scene.ScriptPaths()
	if len(paths) == 0 {
		a.logger.Warn("Watch mode enabled but the scene references no script files.")
		return nil
	}

	w, err := watch.New(paths)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()
	a.logger.Info("👀 Watching script files for changes.", "files", len(paths))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch mode stopped.")
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("Watcher error.", "error", err)
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			a.logger.Info("Script changed, recompiling.", "path", path)
			for _, id := range a.scene.ActorsForScript(path) {
				spec, _ := a.scene.Actor(id)
				if err := a.scene.Reload(ctx, a.world, spec); err != nil {
					a.logger.Warn("Actor script failed to compile.", "actor", id, "error", err)
				}
			}
			a.world.Resume()
			run++
			if err := a.runOnce(ctx, run); err != nil {
				if errors.Is(err, engine.ErrAlreadyRunning) {
					continue
				}
				return err
			}
		}
	}
}
