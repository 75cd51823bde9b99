package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/scenerunner/internal/ctxlog"
	"github.com/vk/scenerunner/internal/engine"
	"github.com/vk/scenerunner/internal/scene"
	"github.com/vk/scenerunner/internal/tracelog"
	"github.com/vk/scenerunner/internal/world"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	scene  *scene.File
	world  *world.World
	engine *engine.Engine
	trace  *tracelog.Recorder

	// buildErrs are the per-actor script failures found while building the
	// world. They are reported, not fatal.
	buildErrs []error
}

// NewApp loads the scene, compiles every actor's script and prepares the
// engine. It returns an error when the scene itself cannot be loaded; an
// actor whose script does not compile is kept without a script.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config) (*App, error) {
	if cfg == nil {
		panic("app: NewApp called with a nil config")
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	var (
		file *scene.File
		err  error
	)
	switch {
	case cfg.HeroExample:
		logger.Debug("Using the built-in hero example.")
		file = scene.HeroExample()
	case isDir(cfg.ScenePath):
		logger.Debug("Building a scene from a script directory.", "dir", cfg.ScenePath)
		file, err = scene.FromDir(cfg.ScenePath)
	default:
		file, err = scene.Load(cfg.ScenePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	logger.Debug("Scene loaded.", "path", cfg.ScenePath, "actors", len(file.Actors))

	w, buildErrs := file.Build(ctx)
	for _, err := range buildErrs {
		logger.Warn("Actor script failed to compile.", "error", err)
	}

	opts := []engine.Option{engine.WithRepeatDelay(cfg.RepeatDelay)}
	var rec *tracelog.Recorder
	if cfg.TracePath != "" {
		rec, err = tracelog.Create(cfg.TracePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		opts = append(opts, engine.WithObserver(rec))
		logger.Debug("Trace recording enabled.", "path", cfg.TracePath)
	}

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		scene:     file,
		world:     w,
		engine:    engine.New(w, opts...),
		trace:     rec,
		buildErrs: buildErrs,
	}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// World returns the application's world. This is primarily for testing.
func (a *App) World() *world.World {
	return a.world
}

// BuildErrors returns the script failures found while building the world.
func (a *App) BuildErrors() []error {
	return a.buildErrs
}

// Close flushes the trace, if any.
func (a *App) Close() error {
	if a.trace == nil {
		return nil
	}
	if err := a.trace.Close(); err != nil {
		a.logger.Error("Failed to close trace.", "error", err)
		return err
	}
	return nil
}
