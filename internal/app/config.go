package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/scenerunner/internal/primitive"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenePath   string // scene YAML; empty when HeroExample is set
	HeroExample bool   // run the built-in two-hero scene

	Runs        int
	Resume      bool // clear halt and collision flags between runs
	Watch       bool // rerun whenever a script file changes
	TracePath   string
	RepeatDelay time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenePath == "" && !cfg.HeroExample {
		return nil, errors.New("a scene path is required unless the hero example is used")
	}
	if cfg.ScenePath != "" && cfg.HeroExample {
		return nil, errors.New("a scene path and the hero example are mutually exclusive")
	}
	if cfg.Runs == 0 {
		cfg.Runs = 1
	}
	if cfg.Runs < 0 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", cfg.Runs)
	}
	if cfg.RepeatDelay < 0 {
		return nil, fmt.Errorf("repeat delay must not be negative, got %s", cfg.RepeatDelay)
	}
	if cfg.RepeatDelay == 0 {
		cfg.RepeatDelay = primitive.RepeatDelay
	}
	if cfg.Watch && cfg.HeroExample {
		return nil, errors.New("watch mode needs a scene file with script files to watch")
	}
	return &cfg, nil
}
