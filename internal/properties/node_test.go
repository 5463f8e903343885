package properties

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// testNode is a minimal instance tree for exercising rules without the
// design loader.
type testNode struct {
	name     string
	comp     *rdl.Component
	parent   *testNode
	children []*testNode
	width    int
	external bool
	reg      *Registry
	ev       *expr.Evaluator
}

func newTestNode(reg *Registry, kind rdl.ComponentKind, name string, width int) *testNode {
	return &testNode{
		name:  name,
		comp:  rdl.NewComponent(kind, name+"_t", diag.Source{Path: name}),
		width: width,
		reg:   reg,
		ev:    expr.New(),
	}
}

func (n *testNode) add(kind rdl.ComponentKind, name string, width int) *testNode {
	c := newTestNode(n.reg, kind, name, width)
	c.parent = n
	n.children = append(n.children, c)
	return c
}

func (n *testNode) Def() *rdl.Component { return n.comp }
func (n *testNode) Name() string        { return n.name }
func (n *testNode) Width() int          { return n.width }
func (n *testNode) External() bool      { return n.external }
func (n *testNode) Source() diag.Source { return diag.Source{Path: n.Path()} }

func (n *testNode) Parent() rdl.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *testNode) Path() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.Path() + "." + n.name
}

func (n *testNode) Resolve(ref rdl.Ref) (rdl.Node, bool) {
	for scope := n.parent; scope != nil; scope = scope.parent {
		cur := scope
		for _, part := range strings.Split(ref.Path, ".") {
			var next *testNode
			for _, c := range cur.children {
				if c.name == part {
					next = c
				}
			}
			if next == nil {
				cur = nil
				break
			}
			cur = next
		}
		if cur != nil {
			return cur, true
		}
	}
	return nil, false
}

func (n *testNode) Property(name string) (rdl.Value, error) {
	if v, ok := n.comp.Explicit(name); ok {
		if e, ok := v.(rdl.Expr); ok {
			return n.ev.Fold(e)
		}
		return v, nil
	}
	r, ok := n.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	return r.ResolveDefault(n)
}
