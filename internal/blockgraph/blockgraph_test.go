package blockgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heroBlockly is the workspace the editor saves for the "right mover" hero.
const heroBlockly = `{
  "blocks": {
    "languageVersion": 0,
    "blocks": [
      {
        "type": "repeat_animation",
        "id": "hero1_repeat",
        "x": 70,
        "y": 70,
        "fields": { "TIMES": 15 },
        "inputs": {
          "DO": {
            "block": {
              "type": "move_steps",
              "id": "hero1_move",
              "fields": { "STEPS": 10 },
              "next": {
                "block": { "type": "turn_degrees", "fields": { "DEGREES": 15 } }
              }
            }
          }
        },
        "next": {
          "block": { "type": "say_for_seconds", "fields": { "TEXT": "done", "SECONDS": 2 } }
        }
      }
    ]
  }
}`

const heroHCL = `
repeat {
  count = 15
  move { steps = 10 }
  turn { degrees = 15 }
}
say {
  text    = "done"
  seconds = 2
}
`

func TestParseBlockly_FlattensStacks(t *testing.T) {
	g, err := ParseBlockly([]byte(heroBlockly))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	repeat := g.Nodes[0]
	assert.Equal(t, "repeat", repeat.Type)
	assert.Equal(t, float64(15), repeat.Fields["count"])
	require.Len(t, repeat.Children, 2)
	assert.Equal(t, "move", repeat.Children[0].Type)
	assert.Equal(t, float64(10), repeat.Children[0].Fields["steps"])
	assert.Equal(t, "turn", repeat.Children[1].Type)

	say := g.Nodes[1]
	assert.Equal(t, "say", say.Type)
	assert.Equal(t, "done", say.Fields["text"])
	assert.Equal(t, 4, g.Count())
}

func TestParseBlockly_RejectsSchemaViolations(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "missing blocks", doc: `{"workspace": {}}`},
		{name: "block without type", doc: `{"blocks": {"blocks": [{"id": "x"}]}}`},
		{name: "object field value", doc: `{"blocks": {"blocks": [{"type": "move_steps", "fields": {"STEPS": {"v": 1}}}]}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBlockly([]byte(tc.doc))
			require.Error(t, err)
		})
	}
}

func TestParseBlockly_KeepsUnknownTypes(t *testing.T) {
	g, err := ParseBlockly([]byte(`{"blocks": {"blocks": [{"type": "play_sound", "fields": {"NAME": "meow"}}]}}`))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "play_sound", g.Nodes[0].Type)
	assert.Equal(t, "meow", g.Nodes[0].Fields["name"])
}

func TestParseHCL_MatchesBlockly(t *testing.T) {
	fromHCL, err := ParseHCL("hero.hcl", []byte(heroHCL))
	require.NoError(t, err)
	fromBlockly, err := ParseBlockly([]byte(heroBlockly))
	require.NoError(t, err)

	a, err := fromHCL.Marshal()
	require.NoError(t, err)
	b, err := fromBlockly.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(a))
}

func TestParseHCL_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `move { steps = `},
		{name: "top-level attribute", src: `steps = 10`},
		{name: "labelled block", src: `move "fast" { steps = 10 }`},
		{name: "list value", src: `move { steps = [1, 2] }`},
		{name: "variable reference", src: `move { steps = var.steps }`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseHCL("bad.hcl", []byte(tc.src))
			require.Error(t, err)
		})
	}
}

func TestParseHCL_ReportsFirstTopLevelAttribute(t *testing.T) {
	src := "zeta = 1\nalpha = 2\nmid = 3\nmove { steps = 1 }\n"

	for i := 0; i < 20; i++ {
		_, err := ParseHCL("multi.hcl", []byte(src))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"zeta"`)
		assert.Contains(t, err.Error(), "multi.hcl:1,1")
	}
}

func TestMarshal_RoundTripsCanonicalJSON(t *testing.T) {
	g, err := ParseHCL("hero.hcl", []byte(heroHCL))
	require.NoError(t, err)

	data, err := g.Marshal()
	require.NoError(t, err)
	back, err := ParseJSON(data)
	require.NoError(t, err)
	again, err := back.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	empty, err := (*Graph)(nil).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[]}`, string(empty))
}

func TestLoad_DetectsFormat(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.hcl":  heroHCL,
		"b.json": heroBlockly,
		"c.json": `{"nodes":[{"type":"move","fields":{"steps":5}}]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}

	ctx := context.Background()
	for name := range files {
		g, raw, err := Load(ctx, filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, g.Nodes, name)
		assert.Equal(t, files[name], string(raw), name)
	}

	_, _, err := Load(ctx, filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)

	_, err = DetectFormat("script.yaml", nil)
	require.Error(t, err)
}
