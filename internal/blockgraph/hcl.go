package blockgraph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseHCL decodes the HCL authoring format. Every block is a node named by
// its block type, attributes become fields and nested blocks become the
// node's children, in source order:
//
//	repeat {
//	  count = 15
//	  move { steps = 10 }
//	}
func ParseHCL(filename string, src []byte) (*Graph, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL file %s: unexpected body type %T", filename, file.Body)
	}
	var first *hclsyntax.Attribute
	for _, attr := range body.Attributes {
		if first == nil || attr.SrcRange.Start.Byte < first.SrcRange.Start.Byte {
			first = attr
		}
	}
	if first != nil {
		return nil, fmt.Errorf("%s: top-level attribute %q is not allowed, expected blocks only", first.SrcRange.String(), first.Name)
	}

	nodes, err := decodeHCLBlocks(body.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	return &Graph{Nodes: nodes}, nil
}

func decodeHCLBlocks(blocks hclsyntax.Blocks) ([]*Node, error) {
	nodes := make([]*Node, 0, len(blocks))
	for _, block := range blocks {
		if len(block.Labels) > 0 {
			return nil, fmt.Errorf("%s: block %q does not take labels", block.TypeRange.String(), block.Type)
		}
		n := &Node{Type: block.Type, Fields: make(map[string]any, len(block.Body.Attributes))}
		for name, attr := range block.Body.Attributes {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			goVal, err := ctyToGo(val)
			if err != nil {
				return nil, fmt.Errorf("%s: attribute %q: %w", attr.SrcRange.String(), name, err)
			}
			n.Fields[name] = goVal
		}
		if len(block.Body.Blocks) > 0 {
			children, err := decodeHCLBlocks(block.Body.Blocks)
			if err != nil {
				return nil, err
			}
			n.Children = children
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ctyToGo converts the literal cty values a block field may carry.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, fmt.Errorf("value must not be null")
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value must be known")
	}
	switch val.Type() {
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case cty.String:
		return val.AsString(), nil
	case cty.Bool:
		return val.True(), nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", val.Type().FriendlyName())
}
