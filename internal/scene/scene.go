// Package scene loads scene files: the actors of a world together with the
// block-graphs that script them.
package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/scenerunner/internal/blockgraph"
	"github.com/vk/scenerunner/internal/compiler"
	"github.com/vk/scenerunner/internal/ctxlog"
	"github.com/vk/scenerunner/internal/primitive"
	"github.com/vk/scenerunner/internal/world"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScene = errors.New("invalid scene")

// File is a decoded scene file.
type File struct {
	// Path is where the file was loaded from; relative script paths resolve
	// against its directory. Empty for in-memory scenes.
	Path   string      `yaml:"-"`
	Actors []ActorSpec `yaml:"actors"`
}

// ActorSpec describes one actor. Script names a block-graph file; Program
// holds a block-graph inline (HCL, or JSON when it starts with '{'). At most
// one of the two may be set.
type ActorSpec struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Script   string  `yaml:"script,omitempty"`
	Program  string  `yaml:"program,omitempty"`
}

// Load reads and validates a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode parses a scene document. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrInvalidScene)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks for duplicate ids, negative sizes and ambiguous scripts.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]int, len(f.Actors))
	for i, a := range f.Actors {
		if a.ID != "" {
			if j, dup := seen[a.ID]; dup {
				errs = append(errs, fmt.Errorf("%w: actors[%d] repeats id %q of actors[%d]", ErrInvalidScene, i, a.ID, j))
			}
			seen[a.ID] = i
		}
		if a.Width < 0 || a.Height < 0 {
			errs = append(errs, fmt.Errorf("%w: actors[%d] has a negative size", ErrInvalidScene, i))
		}
		if a.Script != "" && a.Program != "" {
			errs = append(errs, fmt.Errorf("%w: actors[%d] sets both script and program", ErrInvalidScene, i))
		}
	}
	return errors.Join(errs...)
}

// ScriptPath resolves an actor's script file, or returns "" if it has none.
func (f *File) ScriptPath(a ActorSpec) string {
	if a.Script == "" {
		return ""
	}
	if filepath.IsAbs(a.Script) || f.Path == "" {
		return filepath.Clean(a.Script)
	}
	return filepath.Join(filepath.Dir(f.Path), a.Script)
}

// ScriptPaths returns every script file the scene references, sorted.
func (f *File) ScriptPaths() []string {
	set := map[string]struct{}{}
	for _, a := range f.Actors {
		if p := f.ScriptPath(a); p != "" {
			set[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ActorsForScript returns the ids of the actors scripted by the file at path.
func (f *File) ActorsForScript(path string) []string {
	var ids []string
	clean := filepath.Clean(path)
	for _, a := range f.Actors {
		if p := f.ScriptPath(a); p != "" && p == clean {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Build creates a world holding the scene's actors and compiles their
// scripts. An actor whose script cannot be loaded or compiled is still
// added, without a script; the failure is returned alongside the world.
func (f *File) Build(ctx context.Context, opts ...world.Option) (*world.World, []error) {
	logger := ctxlog.FromContext(ctx)
	w := world.New(opts...)

	var errs []error
	for i := range f.Actors {
		spec := &f.Actors[i]
		a, err := w.Add(world.Actor{
			ID:       spec.ID,
			Name:     spec.Name,
			X:        spec.X,
			Y:        spec.Y,
			Rotation: spec.Rotation,
			Width:    spec.Width,
			Height:   spec.Height,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("scene: actors[%d]: %w", i, err))
			continue
		}
		// Remember generated ids so reloads address the same actor.
		spec.ID = a.ID

		if err := f.Reload(ctx, w, *spec); err != nil {
			logger.Warn("Actor left without a script.", "actor", a.ID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(f.Actors) > 0 {
		w.Select(f.Actors[0].ID)
	}

	logger.Info("Scene built.", "actors", w.Len(), "errors", len(errs))
	return w, errs
}

// Reload compiles an actor's block-graph and stores the result in w. On
// failure the actor's script is cleared, so it does nothing until the
// block-graph is fixed.
func (f *File) Reload(ctx context.Context, w *world.World, spec ActorSpec) error {
	script, source, err := f.compile(ctx, spec)
	if err != nil {
		w.SetScript(spec.ID, nil, "")
		return err
	}
	w.SetScript(spec.ID, script, source)
	ctxlog.FromContext(ctx).Debug("Actor script compiled.", "actor", spec.ID, "instructions", script.Len())
	return nil
}

// Actor returns the spec of the actor with the given id.
func (f *File) Actor(id string) (ActorSpec, bool) {
	for _, a := range f.Actors {
		if a.ID == id {
			return a, true
		}
	}
	return ActorSpec{}, false
}

func (f *File) compile(ctx context.Context, spec ActorSpec) (primitive.Script, string, error) {
	var (
		g   *blockgraph.Graph
		err error
	)
	switch {
	case spec.Script != "":
		g, _, err = blockgraph.Load(ctx, f.ScriptPath(spec))
	case strings.TrimSpace(spec.Program) != "":
		g, err = blockgraph.Parse(inlineName(spec), []byte(spec.Program))
	default:
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("scene: actor %q: %w", spec.ID, err)
	}

	script, err := compiler.Compile(spec.ID, g)
	if err != nil {
		return nil, "", err
	}
	source, err := g.Marshal()
	if err != nil {
		return nil, "", fmt.Errorf("scene: actor %q: %w", spec.ID, err)
	}
	return script, string(source), nil
}

func inlineName(spec ActorSpec) string {
	if strings.HasPrefix(strings.TrimSpace(spec.Program), "{") {
		return spec.ID + ".json"
	}
	return spec.ID + ".hcl"
}
