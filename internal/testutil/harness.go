// Package testutil holds the harness the scene integration tests run through.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/scenerunner/internal/app"
)

// SceneFile is the name the harness expects the scene to be written under.
const SceneFile = "scene.yaml"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir       string
	LogOutput string
	Err       error
	App       *app.App
}

// Path returns the absolute path of a file written by the harness.
func (r *HarnessResult) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// RunScene provides a standardized harness for running integration tests
// using a default background context.
func RunScene(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunSceneWithContext(context.Background(), t, files, cfg)
}

// RunSceneWithContext writes files into a temporary directory, points the app
// at its scene.yaml and runs it. A zero RepeatDelay is replaced with a short
// one so repeat-heavy scenes stay fast.
func RunSceneWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	if !cfg.HeroExample {
		cfg.ScenePath = filepath.Join(dir, SceneFile)
	}
	if cfg.RepeatDelay == 0 {
		cfg.RepeatDelay = time.Millisecond
	}
	if cfg.TracePath != "" && !filepath.IsAbs(cfg.TracePath) {
		cfg.TracePath = filepath.Join(dir, cfg.TracePath)
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	result := &HarnessResult{Dir: dir}

	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		result.App, result.Err = app.NewApp(ctx, logBuffer, validated)
		if result.Err == nil {
			result.Err = result.App.Run(ctx)
		}
	}()
	if panicErr != nil {
		result.Err = fmt.Errorf("application panicked | %v", panicErr)
	}

	if os.Getenv("SCENERUNNER_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}
	result.LogOutput = logBuffer.String()
	return result
}
