// Package design loads pre-elaborated SystemRDL designs from YAML.
//
// A design document lists component definitions with their local property
// assignments and an instance tree that has already been elaborated:
// every instance names its definition, its declared width and whether it
// is external. Instances may carry dynamic property overrides. The loader
// does not elaborate anything; it only rebuilds what the document says.
//
//	version: 1
//	enums:
//	  mode_e: [slow, fast]
//	components:
//	  - name: status_f
//	    kind: field
//	    properties:
//	      sw: {access: r}
//	      reset: 0x3
//	      next: {ref: ctrl_f}
//	root:
//	  name: top
//	  type: top_map
//	  children:
//	    - name: status
//	      type: status_reg
//	      width: 32
package design

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the decoded YAML file.
type Document struct {
	Version    int                 `yaml:"version" json:"version"`
	Enums      map[string][]string `yaml:"enums,omitempty" json:"enums,omitempty"`
	Components []ComponentDoc      `yaml:"components" json:"components"`
	Root       InstanceDoc         `yaml:"root" json:"root"`

	// File is the path the document was read from.
	File string `yaml:"-" json:"-"`
	// Raw is the generic decoding of the same bytes, for schema checks.
	Raw any `yaml:"-" json:"-"`
}

// ComponentDoc is a component definition.
type ComponentDoc struct {
	Name       string      `yaml:"name" json:"name"`
	Kind       string      `yaml:"kind" json:"kind"`
	Properties Assignments `yaml:"properties,omitempty" json:"-"`
	Line       int         `yaml:"-" json:"-"`
}

// InstanceDoc is one node of the elaborated instance tree.
type InstanceDoc struct {
	Name       string        `yaml:"name" json:"name"`
	Type       string        `yaml:"type" json:"type"`
	Width      int           `yaml:"width,omitempty" json:"width,omitempty"`
	External   bool          `yaml:"external,omitempty" json:"external,omitempty"`
	Properties Assignments   `yaml:"properties,omitempty" json:"-"`
	Children   []InstanceDoc `yaml:"children,omitempty" json:"children,omitempty"`
	Line       int           `yaml:"-" json:"-"`
}

// Assignment is one `name: value` entry. Value is kept as a YAML node
// until the loader knows which user enums exist.
type Assignment struct {
	Name  string
	Value *yaml.Node
	Line  int
}

// Assignments preserves the order entries appear in the document.
type Assignments []Assignment

func (a *Assignments) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		*a = append(*a, Assignment{Name: key.Value, Value: val, Line: key.Line})
	}
	return nil
}

func (c *ComponentDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain ComponentDoc
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line = n.Line
	return nil
}

func (d *InstanceDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain InstanceDoc
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Line = n.Line
	return nil
}

// ReadFile decodes a design document from disk.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.File = path
	return doc, nil
}

// Parse decodes a design document from memory.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	doc.Raw = raw
	return &doc, nil
}
