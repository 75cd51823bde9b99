package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/scenerunner/internal/app"
	"github.com/vk/scenerunner/internal/primitive"
)

func TestParse_Config(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want app.Config
	}{
		{
			name: "positional scene with defaults",
			args: []string{"scene.yaml"},
			want: app.Config{
				ScenePath:   "scene.yaml",
				Runs:        1,
				RepeatDelay: primitive.RepeatDelay,
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
		{
			name: "scene flag wins over shorthand and positional",
			args: []string{"--scene", "a.yaml", "-s", "b.yaml", "c.yaml"},
			want: app.Config{
				ScenePath:   "a.yaml",
				Runs:        1,
				RepeatDelay: primitive.RepeatDelay,
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
		{
			name: "hero with every option",
			args: []string{
				"--hero", "--runs", "3", "--resume", "--trace", "out.zst",
				"--repeat-delay", "5ms", "--log-format", "JSON", "--log-level", "Debug",
			},
			want: app.Config{
				HeroExample: true,
				Runs:        3,
				Resume:      true,
				TracePath:   "out.zst",
				RepeatDelay: 5 * time.Millisecond,
				LogFormat:   "json",
				LogLevel:    "debug",
			},
		},
		{
			name: "watch a scene",
			args: []string{"-s", "scene.yaml", "--watch"},
			want: app.Config{
				ScenePath:   "scene.yaml",
				Runs:        1,
				Watch:       true,
				RepeatDelay: primitive.RepeatDelay,
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			got, exit, err := Parse(tc.args, &bytes.Buffer{})

			// --- Assert ---
			require.NoError(t, err)
			require.False(t, exit)
			if diff := cmp.Diff(tc.want, *got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ExitsCleanly(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "help", args: []string{"-h"}},
		{name: "no scene", args: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, exit, err := Parse(tc.args, out)

			require.NoError(t, err)
			assert.True(t, exit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantMsg: "flag provided but not defined"},
		{name: "bad log format", args: []string{"--log-format", "xml", "s.yaml"}, wantMsg: "invalid log-format"},
		{name: "bad log level", args: []string{"--log-level", "loud", "s.yaml"}, wantMsg: "invalid log-level"},
		{name: "zero runs", args: []string{"--runs", "0", "s.yaml"}, wantMsg: "invalid runs"},
		{name: "bad duration", args: []string{"--repeat-delay", "soon", "s.yaml"}, wantMsg: "invalid value"},
		{name: "negative delay", args: []string{"--repeat-delay", "-1s", "s.yaml"}, wantMsg: "must not be negative"},
		{name: "scene and hero", args: []string{"--hero", "s.yaml"}, wantMsg: "mutually exclusive"},
		{name: "watch hero", args: []string{"--hero", "--watch"}, wantMsg: "watch mode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
