package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/scenerunner/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("scenerunner", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Scenerunner - runs block-scripted actors concurrently on a shared stage.

Usage:
  scenerunner [options] [SCENE_PATH]
  scenerunner --hero [options]

Arguments:
  SCENE_PATH
    Path to a scene .yaml file listing the actors and their scripts, or a
    directory of .hcl/.json scripts to run one actor per file.

Options:
`)
		flagSet.PrintDefaults()
	}

	sceneFlag := flagSet.String("scene", "", "Path to the scene file.")
	sFlag := flagSet.String("s", "", "Path to the scene file (shorthand).")
	heroFlag := flagSet.Bool("hero", false, "Run the built-in two-hero example instead of a scene file.")
	runsFlag := flagSet.Int("runs", 1, "Number of times to run the scene.")
	resumeFlag := flagSet.Bool("resume", false, "Clear collision halts between runs.")
	watchFlag := flagSet.Bool("watch", false, "Rerun the scene whenever one of its script files changes.")
	traceFlag := flagSet.String("trace", "", "Write a zstd-compressed trace of every run to this path.")
	delayFlag := flagSet.Duration("repeat-delay", 0, "Pause between repeat iterations. 0 uses the default of 100ms.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *sceneFlag != "" {
		path = *sceneFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Scene path determined.", "path", path, "hero", *heroFlag)

	if path == "" && !*heroFlag {
		slog.Debug("No scene provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *runsFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid runs: must be at least 1, got %d", *runsFlag)}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ScenePath:   path,
		HeroExample: *heroFlag,
		Runs:        *runsFlag,
		Resume:      *resumeFlag,
		Watch:       *watchFlag,
		TracePath:   *traceFlag,
		RepeatDelay: *delayFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
