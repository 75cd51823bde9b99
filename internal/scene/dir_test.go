package scene

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDir(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "walker.hcl", walkerHCL)
	writeFile(t, dir, "crew/turner.hcl", `turn { degrees = 45 }`)
	writeFile(t, dir, "README.md", "not a script")

	// --- Act ---
	f, err := FromDir(dir)
	require.NoError(t, err)
	w, errs := f.Build(context.Background())

	// --- Assert ---
	require.Empty(t, errs)
	require.Len(t, f.Actors, 2)
	assert.Equal(t, "crew/turner", f.Actors[0].ID)
	assert.Equal(t, 0.0, f.Actors[0].X)
	assert.Equal(t, "walker", f.Actors[1].ID)
	assert.Equal(t, float64(DirSpacing), f.Actors[1].X)

	walker, ok := w.Actor("walker")
	require.True(t, ok)
	assert.Equal(t, 2, walker.Script.Len())
	assert.Equal(t, []string{"walker"}, f.ActorsForScript(filepath.Join(dir, "walker.hcl")))
}

func TestFromDir_Empty(t *testing.T) {
	_, err := FromDir(t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScene))
}
