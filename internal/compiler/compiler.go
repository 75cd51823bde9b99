// Package compiler translates one actor's block-graph into the ordered
// primitive sequence the execution engine interprets.
//
// Compilation is pure: it reads only the graph and the actor identity it is
// given, never the world, and the same graph always yields the same script.
// Blocks are emitted in graph order without reordering or optimization.
package compiler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/vk/scenerunner/internal/blockgraph"
	"github.com/vk/scenerunner/internal/primitive"
)

var (
	ErrUnknownType    = errors.New("unknown block type")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidField   = errors.New("invalid field")
	ErrUnexpectedBody = errors.New("only repeat blocks may contain children")
	ErrNilGraph       = errors.New("block-graph is nil")
)

// CompileError reports a malformed block-graph for one actor. Path locates
// the offending node, e.g. "nodes[0].children[2]".
type CompileError struct {
	Actor string
	Path  string
	Type  string
	Err   error
}

func (e *CompileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("compile actor %q: %v", e.Actor, e.Err)
	}
	return fmt.Sprintf("compile actor %q: %s (%s): %v", e.Actor, e.Path, e.Type, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

type moveFields struct {
	Steps float64 `mapstructure:"steps"`
}

type turnFields struct {
	Degrees float64 `mapstructure:"degrees"`
}

type goToFields struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

type bubbleFields struct {
	Text    string  `mapstructure:"text"`
	Seconds float64 `mapstructure:"seconds"`
}

type repeatFields struct {
	Count float64 `mapstructure:"count"`
}

// requiredFields lists, per primitive, the fields a node must carry.
var requiredFields = map[primitive.Kind][]string{
	primitive.Move:   {"steps"},
	primitive.Turn:   {"degrees"},
	primitive.GoTo:   {"x", "y"},
	primitive.Say:    {"text", "seconds"},
	primitive.Think:  {"text", "seconds"},
	primitive.Repeat: {"count"},
}

// Compile translates g into the script for actorID. Every emitted
// instruction is tagged with actorID.
func Compile(actorID string, g *blockgraph.Graph) (primitive.Script, error) {
	if g == nil {
		return nil, &CompileError{Actor: actorID, Err: ErrNilGraph}
	}
	script, err := compileNodes(actorID, g.Nodes, "nodes")
	if err != nil {
		return nil, err
	}
	if script == nil {
		script = primitive.Script{}
	}
	return script, nil
}

// CompileAll compiles every actor's graph in isolation. A failure for one
// actor is reported in errs and leaves the other actors' scripts untouched.
func CompileAll(graphs map[string]*blockgraph.Graph) (scripts map[string]primitive.Script, errs map[string]error) {
	scripts = make(map[string]primitive.Script, len(graphs))
	errs = make(map[string]error)

	ids := make([]string, 0, len(graphs))
	for id := range graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s, err := Compile(id, graphs[id])
		if err != nil {
			errs[id] = err
			continue
		}
		scripts[id] = s
	}
	return scripts, errs
}

func compileNodes(actorID string, nodes []*blockgraph.Node, path string) ([]primitive.Instruction, error) {
	var out []primitive.Instruction
	for i, n := range nodes {
		nodePath := fmt.Sprintf("%s[%d]", path, i)
		in, err := compileNode(actorID, n, nodePath)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func compileNode(actorID string, n *blockgraph.Node, path string) (primitive.Instruction, error) {
	fail := func(typ string, err error) (primitive.Instruction, error) {
		return primitive.Instruction{}, &CompileError{Actor: actorID, Path: path, Type: typ, Err: err}
	}

	if n == nil {
		return fail("", fmt.Errorf("%w: nil node", ErrInvalidField))
	}
	kind := primitive.Kind(n.Type)
	if !kind.Valid() {
		return fail(n.Type, fmt.Errorf("%w %q", ErrUnknownType, n.Type))
	}
	for _, name := range requiredFields[kind] {
		if v, ok := n.Fields[name]; !ok || v == nil {
			return fail(n.Type, fmt.Errorf("%w %q", ErrMissingField, name))
		}
	}
	if kind != primitive.Repeat && len(n.Children) > 0 {
		return fail(n.Type, ErrUnexpectedBody)
	}

	in := primitive.Instruction{Kind: kind, Actor: actorID}
	switch kind {
	case primitive.Move:
		var f moveFields
		if err := decodeFields(n.Fields, &f); err != nil {
			return fail(n.Type, err)
		}
		in.Steps = f.Steps
	case primitive.Turn:
		var f turnFields
		if err := decodeFields(n.Fields, &f); err != nil {
			return fail(n.Type, err)
		}
		in.Degrees = f.Degrees
	case primitive.GoTo:
		var f goToFields
		if err := decodeFields(n.Fields, &f); err != nil {
			return fail(n.Type, err)
		}
		in.X, in.Y = f.X, f.Y
	case primitive.Say, primitive.Think:
		var f bubbleFields
		if err := decodeFields(n.Fields, &f); err != nil {
			return fail(n.Type, err)
		}
		if f.Seconds < 0 {
			return fail(n.Type, fmt.Errorf("%w \"seconds\": must not be negative, got %v", ErrInvalidField, f.Seconds))
		}
		in.Text, in.Seconds = f.Text, f.Seconds
	case primitive.Repeat:
		var f repeatFields
		if err := decodeFields(n.Fields, &f); err != nil {
			return fail(n.Type, err)
		}
		if f.Count < 1 || f.Count != math.Trunc(f.Count) || f.Count > math.MaxInt32 {
			return fail(n.Type, fmt.Errorf("%w \"count\": must be an integer >= 1, got %v", ErrInvalidField, f.Count))
		}
		body, err := compileNodes(actorID, n.Children, path+".children")
		if err != nil {
			return primitive.Instruction{}, err
		}
		in.Count = int(f.Count)
		in.Body = body
	}
	return in, nil
}

// decodeFields binds a node's literal fields onto a typed parameter struct.
// Numbers given as strings are accepted, as the editor stores some fields as
// text; fields the primitive does not define are rejected.
func decodeFields(fields map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	for _, v := range floatFields(target) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: number must be finite", ErrInvalidField)
		}
	}
	return nil
}

func floatFields(target any) []float64 {
	switch f := target.(type) {
	case *moveFields:
		return []float64{f.Steps}
	case *turnFields:
		return []float64{f.Degrees}
	case *goToFields:
		return []float64{f.X, f.Y}
	case *bubbleFields:
		return []float64{f.Seconds}
	case *repeatFields:
		return []float64{f.Count}
	}
	return nil
}
