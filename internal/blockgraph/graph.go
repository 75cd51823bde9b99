// Package blockgraph holds the format-agnostic block-graph model that the
// compiler consumes, together with loaders for the authoring formats that
// produce it: canonical JSON, the Blockly workspace serialization and HCL.
package blockgraph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Node is one block: a primitive name, its literal fields and, for repeat,
// the ordered child statements nested in its body.
type Node struct {
	Type     string         `json:"type"`
	Fields   map[string]any `json:"fields,omitempty"`
	Children []*Node        `json:"children,omitempty"`
}

// Graph is the ordered top-level statement list of one actor's program.
type Graph struct {
	Nodes []*Node `json:"nodes"`
}

// ErrEmptyDocument is returned by the parsers when the input has no content.
var ErrEmptyDocument = errors.New("empty block-graph document")

// Marshal returns the canonical JSON serialization of the graph. Map keys
// are sorted by encoding/json, so equal graphs serialize identically.
func (g *Graph) Marshal() ([]byte, error) {
	if g == nil {
		return []byte(`{"nodes":[]}`), nil
	}
	nodes := g.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(Graph{Nodes: nodes})
}

// ParseJSON decodes the canonical JSON form produced by Marshal.
func ParseJSON(data []byte) (*Graph, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode block-graph JSON: %w", err)
	}
	return &g, nil
}

// Count returns the number of nodes in the graph, nested ones included.
func (g *Graph) Count() int {
	if g == nil {
		return 0
	}
	return countNodes(g.Nodes)
}

func countNodes(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		if node == nil {
			continue
		}
		n += 1 + countNodes(node.Children)
	}
	return n
}
