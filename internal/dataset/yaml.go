package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// frameDoc is the YAML document shape for a frame.
// yaml.Node preserves mapping key order, which becomes the column order.
type frameDoc struct {
	Columns yaml.Node `yaml:"columns"`
}

// LoadYAML reads a frame from a YAML file.
// See the package documentation for the expected document shape.
func LoadYAML(path string) (*Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame file: %w", err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes a frame from YAML bytes.
// Column order follows the document's mapping order.
func ParseYAML(raw []byte) (*Frame, error) {
	var doc frameDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode frame document: %w", err)
	}
	if doc.Columns.Kind == 0 {
		return nil, fmt.Errorf("frame document missing columns mapping")
	}
	if doc.Columns.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("columns must be a mapping, got %v", doc.Columns.Kind)
	}

	// Mapping nodes store alternating key/value children.
	var pairs []NamedColumn
	content := doc.Columns.Content
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value
		col, err := decodeColumn(content[i+1])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		pairs = append(pairs, Col(name, col))
	}
	return NewFrame(pairs...)
}

// decodeColumn converts a YAML sequence node into a Numeric or Factor column.
// A sequence is numeric only if every element decodes as a float.
func decodeColumn(node *yaml.Node) (Column, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("column value must be a sequence")
	}

	var nums []float64
	if err := node.Decode(&nums); err == nil {
		return Numeric(nums), nil
	}

	var strs []string
	if err := node.Decode(&strs); err != nil {
		return nil, fmt.Errorf("column is neither numeric nor factor: %w", err)
	}
	return Factor(strs), nil
}
