package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/scenerunner/internal/blockgraph"
	"github.com/vk/scenerunner/internal/primitive"
)

func node(typ string, fields map[string]any, children ...*blockgraph.Node) *blockgraph.Node {
	return &blockgraph.Node{Type: typ, Fields: fields, Children: children}
}

func TestCompile_RepeatMove(t *testing.T) {
	// --- Arrange ---
	g := &blockgraph.Graph{Nodes: []*blockgraph.Node{
		node("repeat", map[string]any{"count": 15},
			node("move", map[string]any{"steps": 10}),
		),
	}}

	// --- Act ---
	script, err := Compile("hero-character-1", g)

	// --- Assert ---
	require.NoError(t, err)
	want := primitive.Script{{
		Kind:  primitive.Repeat,
		Actor: "hero-character-1",
		Count: 15,
		Body: []primitive.Instruction{
			{Kind: primitive.Move, Actor: "hero-character-1", Steps: 10},
		},
	}}
	assert.Equal(t, want, script)
	assert.Equal(t, "repeat(\"hero-character-1\", 15) {\n  move(\"hero-character-1\", 10)\n}\n", script.Text())
}

func TestCompile_AllPrimitivesInOrder(t *testing.T) {
	g := &blockgraph.Graph{Nodes: []*blockgraph.Node{
		node("goTo", map[string]any{"x": -150, "y": 0}),
		node("turn", map[string]any{"degrees": 90}),
		node("say", map[string]any{"text": "hello", "seconds": 2}),
		node("think", map[string]any{"text": "hmm", "seconds": 0.5}),
		node("move", map[string]any{"steps": -10}),
	}}

	script, err := Compile("a", g)
	require.NoError(t, err)
	require.Len(t, script, 5)

	kinds := make([]primitive.Kind, 0, len(script))
	for _, in := range script {
		assert.Equal(t, "a", in.Actor)
		kinds = append(kinds, in.Kind)
	}
	assert.Equal(t, []primitive.Kind{primitive.GoTo, primitive.Turn, primitive.Say, primitive.Think, primitive.Move}, kinds)
	assert.Equal(t, float64(-150), script[0].X)
	assert.Equal(t, "hello", script[2].Text)
	assert.Equal(t, 0.5, script[3].Seconds)
	assert.Equal(t, float64(-10), script[4].Steps)
	require.NoError(t, script.Validate())
}

func TestCompile_EmptyGraph(t *testing.T) {
	script, err := Compile("a", &blockgraph.Graph{})
	require.NoError(t, err)
	assert.NotNil(t, script)
	assert.True(t, script.Empty())
}

func TestCompile_AcceptsNumericStrings(t *testing.T) {
	g := &blockgraph.Graph{Nodes: []*blockgraph.Node{
		node("repeat", map[string]any{"count": "3"},
			node("move", map[string]any{"steps": "2.5"}),
		),
	}}

	script, err := Compile("a", g)
	require.NoError(t, err)
	assert.Equal(t, 3, script[0].Count)
	assert.Equal(t, 2.5, script[0].Body[0].Steps)
}

func TestCompile_IsDeterministic(t *testing.T) {
	g, err := blockgraph.ParseHCL("hero.hcl", []byte(`
repeat {
  count = 4
  move { steps = 10 }
  turn { degrees = 15 }
}
think {
  text    = "done"
  seconds = 1
}
`))
	require.NoError(t, err)

	first, err := Compile("a", g)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compile("a", g)
		require.NoError(t, err)
		assert.Equal(t, first.Text(), again.Text())
	}
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		graph   *blockgraph.Graph
		wantErr error
		path    string
	}{
		{
			name:    "nil graph",
			graph:   nil,
			wantErr: ErrNilGraph,
		},
		{
			name:    "unknown type",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("play_sound", nil)}},
			wantErr: ErrUnknownType,
			path:    "nodes[0]",
		},
		{
			name:    "missing steps",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("move", map[string]any{})}},
			wantErr: ErrMissingField,
			path:    "nodes[0]",
		},
		{
			name:    "goTo missing y",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("goTo", map[string]any{"x": 1})}},
			wantErr: ErrMissingField,
			path:    "nodes[0]",
		},
		{
			name:    "non-numeric steps",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("move", map[string]any{"steps": "far"})}},
			wantErr: ErrInvalidField,
			path:    "nodes[0]",
		},
		{
			name:    "unexpected field",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("turn", map[string]any{"degrees": 5, "speed": 1})}},
			wantErr: ErrInvalidField,
			path:    "nodes[0]",
		},
		{
			name:    "zero repeat count",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("repeat", map[string]any{"count": 0})}},
			wantErr: ErrInvalidField,
			path:    "nodes[0]",
		},
		{
			name:    "fractional repeat count",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("repeat", map[string]any{"count": 2.5})}},
			wantErr: ErrInvalidField,
			path:    "nodes[0]",
		},
		{
			name:    "negative say duration",
			graph:   &blockgraph.Graph{Nodes: []*blockgraph.Node{node("say", map[string]any{"text": "hi", "seconds": -1})}},
			wantErr: ErrInvalidField,
			path:    "nodes[0]",
		},
		{
			name: "children on move",
			graph: &blockgraph.Graph{Nodes: []*blockgraph.Node{
				node("move", map[string]any{"steps": 1}, node("move", map[string]any{"steps": 1})),
			}},
			wantErr: ErrUnexpectedBody,
			path:    "nodes[0]",
		},
		{
			name: "nested error reports path",
			graph: &blockgraph.Graph{Nodes: []*blockgraph.Node{
				node("move", map[string]any{"steps": 1}),
				node("repeat", map[string]any{"count": 2},
					node("move", map[string]any{"steps": 1}),
					node("turn", map[string]any{"degrees": 1}),
					node("fly", nil),
				),
			}},
			wantErr: ErrUnknownType,
			path:    "nodes[1].children[2]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			script, err := Compile("actor-1", tc.graph)

			// --- Assert ---
			require.Error(t, err)
			assert.Nil(t, script)
			assert.ErrorIs(t, err, tc.wantErr)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "actor-1", ce.Actor)
			assert.Equal(t, tc.path, ce.Path)
		})
	}
}

func TestCompileAll_IsolatesFailures(t *testing.T) {
	graphs := map[string]*blockgraph.Graph{
		"good": {Nodes: []*blockgraph.Node{node("move", map[string]any{"steps": 10})}},
		"bad":  {Nodes: []*blockgraph.Node{node("dance", nil)}},
		"none": {},
	}

	scripts, errs := CompileAll(graphs)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs["bad"], ErrUnknownType)
	require.Contains(t, scripts, "good")
	require.Contains(t, scripts, "none")
	assert.NotContains(t, scripts, "bad")
	assert.Equal(t, "move(\"good\", 10)\n", scripts["good"].Text())
	assert.True(t, scripts["none"].Empty())
}
