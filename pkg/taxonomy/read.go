package taxonomy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadJSON decodes a taxonomy tree from r.
//
// The input must be a JSON object with an "id" field and optional "label",
// "categories" and "children" fields:
//
//	{
//	  "id": "root",
//	  "label": "Topics",
//	  "children": [{"id": "a", "categories": ["advisory"]}]
//	}
//
// The decoded tree is validated; ReadJSON returns an error if the JSON is
// malformed, if a node is missing an ID, or if two nodes share one. The
// returned tree is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Node, error) {
	var root Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// ReadYAML decodes a taxonomy tree from r. It accepts the same structure as
// [ReadJSON] in YAML form and applies the same validation.
func ReadYAML(r io.Reader) (*Node, error) {
	var root Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// Load reads the taxonomy file at path, choosing the decoder from the file
// extension: .json uses [ReadJSON], .yaml and .yml use [ReadYAML]. Errors
// wrap the underlying cause with the file path for context.
func Load(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var root *Node
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		root, err = ReadYAML(f)
	case ".json":
		root, err = ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported taxonomy format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return root, nil
}
