package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/scenerunner/internal/fsutil"
)

// DirSpacing is the horizontal gap between actors of a directory scene.
const DirSpacing = 200

// FromDir builds a scene with one actor per block-graph file (.hcl or .json)
// found under dir. Actors are named after the file, lined up along the x
// axis in path order, far enough apart not to start out colliding.
func FromDir(dir string) (*File, error) {
	paths, err := fsutil.FindFiles(dir, ".hcl", ".json")
	if err != nil {
		return nil, fmt.Errorf("scene: scan %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no .hcl or .json scripts under %s", ErrInvalidScene, dir)
	}

	f := &File{Actors: make([]ActorSpec, 0, len(paths))}
	for i, p := range paths {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		f.Actors = append(f.Actors, ActorSpec{
			ID:     id,
			Name:   id,
			X:      float64(i * DirSpacing),
			Script: p,
		})
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
