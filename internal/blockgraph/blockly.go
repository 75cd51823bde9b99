package blockgraph

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/blockly.schema.json
var blocklySchemaSource []byte

const blocklySchemaURL = "https://scenerunner.local/schemas/blockly.schema.json"

var (
	blocklySchemaOnce sync.Once
	blocklySchema     *jsonschema.Schema
	blocklySchemaErr  error
)

// blocklyStatementInput is the input slot of repeat_animation holding its body.
const blocklyStatementInput = "DO"

// blocklyType maps an editor block type onto a primitive and renames its
// upper-case editor fields onto the canonical field names.
type blocklyType struct {
	primitive string
	fields    map[string]string
}

var blocklyTypes = map[string]blocklyType{
	"move_steps":        {primitive: "move", fields: map[string]string{"STEPS": "steps"}},
	"turn_degrees":      {primitive: "turn", fields: map[string]string{"DEGREES": "degrees"}},
	"go_to_xy":          {primitive: "goTo", fields: map[string]string{"X": "x", "Y": "y"}},
	"say_for_seconds":   {primitive: "say", fields: map[string]string{"TEXT": "text", "SECONDS": "seconds"}},
	"think_for_seconds": {primitive: "think", fields: map[string]string{"TEXT": "text", "SECONDS": "seconds"}},
	"repeat_animation":  {primitive: "repeat", fields: map[string]string{"TIMES": "count"}},
}

type blocklyDocument struct {
	Blocks struct {
		LanguageVersion int             `json:"languageVersion"`
		Blocks          []*blocklyBlock `json:"blocks"`
	} `json:"blocks"`
}

type blocklyBlock struct {
	Type   string                        `json:"type"`
	ID     string                        `json:"id,omitempty"`
	Fields map[string]any                `json:"fields,omitempty"`
	Inputs map[string]*blocklyConnection `json:"inputs,omitempty"`
	Next   *blocklyConnection            `json:"next,omitempty"`
}

type blocklyConnection struct {
	Block *blocklyBlock `json:"block,omitempty"`
}

func compiledBlocklySchema() (*jsonschema.Schema, error) {
	blocklySchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(blocklySchemaURL, bytes.NewReader(blocklySchemaSource)); err != nil {
			blocklySchemaErr = err
			return
		}
		blocklySchema, blocklySchemaErr = c.Compile(blocklySchemaURL)
	})
	return blocklySchema, blocklySchemaErr
}

// IsBlockly reports whether data looks like a Blockly workspace document
// rather than the canonical form.
func IsBlockly(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, hasBlocks := probe["blocks"]
	_, hasNodes := probe["nodes"]
	return hasBlocks && !hasNodes
}

// ParseBlockly validates a Blockly workspace serialization against the
// embedded schema and flattens its statement stacks into a Graph. Top-level
// stacks are concatenated in document order; `next` chains keep their order.
func ParseBlockly(data []byte) (*Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	schema, err := compiledBlocklySchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile blockly schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode blockly JSON: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("blockly document does not match schema: %w", err)
	}

	var doc blocklyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode blockly JSON: %w", err)
	}

	g := &Graph{Nodes: []*Node{}}
	for _, top := range doc.Blocks.Blocks {
		g.Nodes = append(g.Nodes, flattenStack(top)...)
	}
	return g, nil
}

// flattenStack walks a block and its `next` chain, translating each block.
func flattenStack(b *blocklyBlock) []*Node {
	var nodes []*Node
	for cur := b; cur != nil; {
		nodes = append(nodes, translateBlock(cur))
		if cur.Next == nil {
			break
		}
		cur = cur.Next.Block
	}
	return nodes
}

func translateBlock(b *blocklyBlock) *Node {
	bt, known := blocklyTypes[b.Type]
	n := &Node{Type: b.Type, Fields: map[string]any{}}
	if known {
		n.Type = bt.primitive
	}
	for name, v := range b.Fields {
		if canonical, ok := bt.fields[name]; ok {
			n.Fields[canonical] = v
			continue
		}
		n.Fields[strings.ToLower(name)] = v
	}
	if in, ok := b.Inputs[blocklyStatementInput]; ok && in != nil && in.Block != nil {
		n.Children = flattenStack(in.Block)
	}
	return n
}
