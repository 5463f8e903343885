// Package rdl holds the register-model types shared by the property rule
// engine and its collaborators: component and value kinds, the closed
// Value sum, component definitions and the instance-tree view.
package rdl

import (
	"sort"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
)

// Component is a component definition: the template-level description of
// an entity before instantiation. Properties holds the explicit
// assignments made to it.
type Component struct {
	Kind       ComponentKind
	TypeName   string
	Source     diag.Source
	Properties map[string]Value
}

// NewComponent returns a definition with an empty property map.
func NewComponent(kind ComponentKind, typeName string, src diag.Source) *Component {
	return &Component{
		Kind:       kind,
		TypeName:   typeName,
		Source:     src,
		Properties: make(map[string]Value),
	}
}

// Explicit returns the explicitly assigned value for name, if any.
func (c *Component) Explicit(name string) (Value, bool) {
	if c == nil || c.Properties == nil {
		return nil, false
	}
	v, ok := c.Properties[name]
	return v, ok
}

// PropertyNames returns the explicitly assigned property names, sorted.
func (c *Component) PropertyNames() []string {
	names := make([]string, 0, len(c.Properties))
	for name := range c.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Node is a position in the elaborated instance tree. The rule engine only
// reads from it.
type Node interface {
	// Def is the component definition this node instantiates.
	Def() *Component
	// Name is the instance name.
	Name() string
	// Path is the dotted hierarchical path from the root instance.
	Path() string
	// Parent is nil for the root.
	Parent() Node
	// Width is the declared width of a field or signal instantiation, or
	// of a register when the tree knows it. Zero when not applicable.
	Width() int
	// External reports whether the instance was declared external.
	External() bool
	// Resolve looks up the instance a reference value points at.
	Resolve(ref Ref) (Node, bool)
	// Property returns the folded value of name: the explicit value when
	// one was assigned, otherwise the rule's default.
	Property(name string) (Value, error)
	// Source locates the instantiation for diagnostics.
	Source() diag.Source
}

// Evaluator is the expression collaborator.
type Evaluator interface {
	// PredictKind returns the kind the expression will fold to.
	PredictKind(e Expr) (ValueKind, error)
	// IsCastable reports whether a value of kind from may satisfy a
	// property expecting kind to.
	IsCastable(from, to ValueKind) bool
}
