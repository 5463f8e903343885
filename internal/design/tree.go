package design

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Statement is one property assignment to replay through the rule engine.
// Local statements target a definition; dynamic statements target an
// instance and are always queued after every local statement.
type Statement struct {
	Comp    *rdl.Component
	Inst    *Instance
	Name    string
	Value   rdl.Value
	Source  diag.Source
	Dynamic bool
}

// Target returns the component the statement writes to. The first
// dynamic statement on an instance gives it a private copy of its
// definition, so overrides do not leak into other instances of the type.
func (st Statement) Target() *rdl.Component {
	if st.Inst == nil {
		return st.Comp
	}
	return st.Inst.specialize()
}

// Design is a loaded document: definitions, the instance tree and the
// assignment statements in document order.
type Design struct {
	File       string
	Components map[string]*rdl.Component
	Order      []string
	Root       *Instance
	Statements []Statement

	registry *properties.Registry
	eval     *expr.Evaluator
}

// Instance is a node of the elaborated tree. It implements rdl.Node.
type Instance struct {
	name     string
	def      *rdl.Component
	base     *rdl.Component
	parent   *Instance
	children []*Instance
	width    int
	external bool
	src      diag.Source
	design   *Design
	private  bool
}

var _ rdl.Node = (*Instance)(nil)

// Build turns a document into a Design. Property values are decoded but
// not assigned; the caller replays Statements through the registry.
func Build(doc *Document, reg *properties.Registry, ev *expr.Evaluator) (*Design, error) {
	d := &Design{
		File:       doc.File,
		Components: make(map[string]*rdl.Component),
		registry:   reg,
		eval:       ev,
	}

	for _, cd := range doc.Components {
		if cd.Name == "" {
			return nil, fmt.Errorf("line %d: component without a name", cd.Line)
		}
		if _, dup := d.Components[cd.Name]; dup {
			return nil, fmt.Errorf("line %d: component %q defined twice", cd.Line, cd.Name)
		}
		kind, err := rdl.ParseComponentKind(cd.Kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", cd.Line, err)
		}
		comp := rdl.NewComponent(kind, cd.Name, diag.Source{File: doc.File, Line: cd.Line, Path: cd.Name})
		d.Components[cd.Name] = comp
		d.Order = append(d.Order, cd.Name)

		for _, a := range cd.Properties {
			v, err := decodeValue(a.Value, doc.Enums)
			if err != nil {
				return nil, err
			}
			d.Statements = append(d.Statements, Statement{
				Comp:   comp,
				Name:   a.Name,
				Value:  v,
				Source: diag.Source{File: doc.File, Line: a.Line, Path: cd.Name},
			})
		}
	}

	root, err := d.buildInstance(doc, &doc.Root, nil)
	if err != nil {
		return nil, err
	}
	d.Root = root
	return d, nil
}

func (d *Design) buildInstance(doc *Document, id *InstanceDoc, parent *Instance) (*Instance, error) {
	if id.Name == "" {
		return nil, fmt.Errorf("line %d: instance without a name", id.Line)
	}
	def, ok := d.Components[id.Type]
	if !ok {
		return nil, fmt.Errorf("line %d: instance %q has unknown type %q", id.Line, id.Name, id.Type)
	}
	if parent != nil {
		if err := checkNesting(parent.def.Kind, def.Kind); err != nil {
			return nil, fmt.Errorf("line %d: %w", id.Line, err)
		}
	}

	in := &Instance{
		name:     id.Name,
		def:      def,
		base:     def,
		parent:   parent,
		width:    id.Width,
		external: id.External,
		design:   d,
	}
	if in.width == 0 && (def.Kind == rdl.Field || def.Kind == rdl.Signal) {
		in.width = 1
	}
	in.src = diag.Source{File: doc.File, Line: id.Line, Path: in.Path()}

	for _, a := range id.Properties {
		v, err := decodeValue(a.Value, doc.Enums)
		if err != nil {
			return nil, err
		}
		d.Statements = append(d.Statements, Statement{
			Inst:    in,
			Name:    a.Name,
			Value:   v,
			Source:  diag.Source{File: doc.File, Line: a.Line, Path: in.Path()},
			Dynamic: true,
		})
	}

	for i := range id.Children {
		child, err := d.buildInstance(doc, &id.Children[i], in)
		if err != nil {
			return nil, err
		}
		in.children = append(in.children, child)
	}
	return in, nil
}

// Assign replays every statement through the registry in order. A fatal
// diagnostic abandons the remaining statements of the same definition or
// instance; an engine fault aborts the replay and is returned.
func (d *Design) Assign(env properties.Env, suggest bool) error {
	abandoned := make(map[any]bool)
	for _, st := range d.Statements {
		owner := st.owner()
		if abandoned[owner] {
			continue
		}
		r, ok := d.registry.Lookup(st.Name)
		if !ok {
			msg := fmt.Sprintf("unknown property '%s'", st.Name)
			if suggest {
				if hints := d.registry.Suggest(st.Name); len(hints) > 0 {
					msg += fmt.Sprintf("; did you mean '%s'?", strings.Join(hints, "', '"))
				}
			}
			env.Sink.Error(diag.CodeUnknownProperty, msg, st.Source)
			continue
		}

		var err error
		if st.Dynamic {
			err = r.AssignDynamic(env, st.Target(), st.Value, st.Source)
		} else {
			err = r.Assign(env, st.Target(), st.Value, st.Source)
		}
		switch {
		case err == nil:
		case errors.Is(err, properties.ErrFault):
			return fmt.Errorf("%s: %w", st.Source, err)
		case diag.IsFatal(err):
			abandoned[owner] = true
		}
	}
	return nil
}

func (st Statement) owner() any {
	if st.Inst != nil {
		return st.Inst
	}
	return st.Comp
}

func checkNesting(parent, child rdl.ComponentKind) error {
	ok := false
	switch parent {
	case rdl.Addrmap:
		ok = child != rdl.Field
	case rdl.Regfile:
		ok = child == rdl.Reg || child == rdl.Regfile || child == rdl.Signal
	case rdl.Reg:
		ok = child == rdl.Field || child == rdl.Signal
	case rdl.Mem:
		ok = child == rdl.Reg
	}
	if !ok {
		return fmt.Errorf("a %s cannot be instantiated inside a %s", child, parent)
	}
	return nil
}

func (in *Instance) specialize() *rdl.Component {
	if in.private {
		return in.def
	}
	c := &rdl.Component{
		Kind:       in.def.Kind,
		TypeName:   in.def.TypeName,
		Source:     in.def.Source,
		Properties: make(map[string]rdl.Value, len(in.def.Properties)),
	}
	for k, v := range in.def.Properties {
		c.Properties[k] = v
	}
	in.def = c
	in.private = true
	return c
}

// Base returns the shared definition the instance was declared with,
// before any dynamic override.
func (in *Instance) Base() *rdl.Component { return in.base }

// Specialized reports whether dynamic overrides gave the instance its own
// copy of the definition.
func (in *Instance) Specialized() bool { return in.private }

// Walk visits every instance depth first, parents before children.
func (d *Design) Walk(fn func(*Instance) error) error {
	if d.Root == nil {
		return nil
	}
	return d.Root.walk(fn)
}

func (in *Instance) walk(fn func(*Instance) error) error {
	if err := fn(in); err != nil {
		return err
	}
	for _, c := range in.children {
		if err := c.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Instances returns every instance in walk order.
func (d *Design) Instances() []*Instance {
	var out []*Instance
	_ = d.Walk(func(in *Instance) error {
		out = append(out, in)
		return nil
	})
	return out
}

// Find returns the instance at an absolute dotted path.
func (d *Design) Find(path string) (*Instance, bool) {
	if d.Root == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	if parts[0] != d.Root.name {
		return nil, false
	}
	return d.Root.descend(parts[1:])
}

func (in *Instance) descend(parts []string) (*Instance, bool) {
	cur := in
	for _, p := range parts {
		next := cur.Child(p)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Child returns the direct child with the given name.
func (in *Instance) Child(name string) *Instance {
	for _, c := range in.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Children returns the direct children.
func (in *Instance) Children() []*Instance { return in.children }

func (in *Instance) Def() *rdl.Component { return in.def }
func (in *Instance) Name() string        { return in.name }
func (in *Instance) Width() int          { return in.width }
func (in *Instance) External() bool      { return in.external }
func (in *Instance) Source() diag.Source { return in.src }

func (in *Instance) Parent() rdl.Node {
	if in.parent == nil {
		return nil
	}
	return in.parent
}

func (in *Instance) Path() string {
	if in.parent == nil {
		return in.name
	}
	return in.parent.Path() + "." + in.name
}

// Resolve finds the instance a reference names. Absolute paths start with
// the root instance name; anything else is looked up in the enclosing
// scopes, innermost first.
func (in *Instance) Resolve(ref rdl.Ref) (rdl.Node, bool) {
	var candidates []*Instance
	if target, ok := in.design.Find(ref.Path); ok {
		candidates = append(candidates, target)
	}
	parts := strings.Split(ref.Path, ".")
	for scope := in.parent; scope != nil; scope = scope.parent {
		if target, ok := scope.descend(parts); ok {
			candidates = append(candidates, target)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	// A name of the wrong kind in an inner scope does not hide one of the
	// right kind further out. With no match the nearest is returned so
	// the caller can report the kind mismatch.
	for _, c := range candidates {
		if c.def.Kind == ref.Target {
			return c, true
		}
	}
	return candidates[0], true
}

// Property returns the explicit value of name, folded, or its default.
func (in *Instance) Property(name string) (rdl.Value, error) {
	if v, ok := in.def.Explicit(name); ok {
		return in.design.Fold(v)
	}
	r, ok := in.design.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	if !r.BindableTo.Has(in.def.Kind) {
		return nil, fmt.Errorf("property %q is not valid for %s components", name, in.def.Kind)
	}
	return r.ResolveDefault(in)
}

// Fold evaluates an assigned value down to a constant.
func (d *Design) Fold(v rdl.Value) (rdl.Value, error) {
	if e, ok := v.(rdl.Expr); ok {
		return d.eval.Fold(e)
	}
	return v, nil
}
