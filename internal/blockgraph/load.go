package blockgraph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/scenerunner/internal/ctxlog"
)

// Format identifies a block-graph authoring format.
type Format string

const (
	FormatCanonical Format = "canonical"
	FormatBlockly   Format = "blockly"
	FormatHCL       Format = "hcl"
)

// DetectFormat picks a format from the file extension and, for JSON, the
// document's top-level keys.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hcl":
		return FormatHCL, nil
	case ".json":
		if IsBlockly(data) {
			return FormatBlockly, nil
		}
		return FormatCanonical, nil
	}
	return "", fmt.Errorf("unsupported script file %s: expected .hcl or .json", name)
}

// Parse decodes data according to the format detected for name.
func Parse(name string, data []byte) (*Graph, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatHCL:
		return ParseHCL(name, data)
	case FormatBlockly:
		return ParseBlockly(data)
	default:
		return ParseJSON(data)
	}
}

// Load reads and parses a script file. The raw bytes are returned as well so
// callers can keep the serialized form next to the compiled script.
func Load(ctx context.Context, path string) (*Graph, []byte, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading block-graph.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read script file %s: %w", path, err)
	}
	g, err := Parse(path, data)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("Block-graph loaded.", "path", path, "nodes", g.Count())
	return g, data, nil
}
