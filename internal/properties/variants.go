package properties

import (
	"fmt"
	"math/bits"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Default resolvers.

func instanceName(_ *Rule, n rdl.Node) (rdl.Value, error) {
	return rdl.String(n.Name()), nil
}

func declaredWidth(_ *Rule, n rdl.Node) (rdl.Value, error) {
	return rdl.Int(n.Width()), nil
}

// registerWidth uses the width the tree declared for the register, and
// the rule's static default otherwise.
func registerWidth(r *Rule, n rdl.Node) (rdl.Value, error) {
	if w := n.Width(); w > 0 {
		return rdl.Int(w), nil
	}
	return r.Default, nil
}

// sameAs defaults to another property of the same node.
func sameAs(name string) DefaultFunc {
	return func(_ *Rule, n rdl.Node) (rdl.Value, error) {
		return n.Property(name)
	}
}

// pairedDefault negates the opposite's explicit value. Only the explicit
// value is consulted, so two paired rules never recurse into each other.
func pairedDefault(r *Rule, n rdl.Node) (rdl.Value, error) {
	if _, ok := n.Def().Explicit(r.Opposite); !ok {
		return r.Default, nil
	}
	v, err := n.Property(r.Opposite)
	if err != nil {
		return nil, err
	}
	b, ok := truth(v)
	if !ok {
		return r.Default, nil
	}
	return rdl.Bool(!b), nil
}

// aliasDefault reads the canonical property when it was assigned
// directly, so both spellings report the same value.
func aliasDefault(r *Rule, n rdl.Node) (rdl.Value, error) {
	if _, ok := n.Def().Explicit(r.AliasOf); ok {
		return n.Property(r.AliasOf)
	}
	return r.Default, nil
}

func truth(v rdl.Value) (bool, bool) {
	switch v := v.(type) {
	case rdl.Bool:
		return bool(v), true
	case rdl.Int:
		return v != 0, true
	}
	return false, false
}

// Validators.

// all runs each validator in turn.
func all(fns ...ValidateFunc) ValidateFunc {
	return func(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
		for _, fn := range fns {
			fn(r, n, v, sink)
		}
	}
}

func externalOnly(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	if b, ok := truth(v); ok && b && !n.External() {
		sink.Error(diag.CodeExternalOnly,
			fmt.Sprintf("the '%s' property is only valid for external components", r.Name), n.Source())
	}
}

// resolveRef finds the component a reference names and checks that it is
// of the kind the reference was written for.
func resolveRef(r *Rule, n rdl.Node, ref rdl.Ref, sink diag.Sink) (rdl.Node, bool) {
	target, ok := n.Resolve(ref)
	if !ok {
		sink.Error(diag.CodeUnresolvedRef,
			fmt.Sprintf("property '%s' references '%s' which does not exist", r.Name, ref.Path), n.Source())
		return nil, false
	}
	if kind := target.Def().Kind; kind != ref.Target {
		sink.Error(diag.CodeReferenceKind,
			fmt.Sprintf("property '%s' references %s '%s' where a %s is expected",
				r.Name, kind, target.Path(), ref.Target), n.Source())
		return nil, false
	}
	return target, true
}

func resolvable(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	if ref, ok := v.(rdl.Ref); ok {
		resolveRef(r, n, ref, sink)
	}
}

// notSelf rejects a reference that resolves back to the node itself.
func notSelf(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	ref, ok := v.(rdl.Ref)
	if !ok {
		return
	}
	target, ok := resolveRef(r, n, ref, sink)
	if !ok {
		return
	}
	if target.Path() == n.Path() {
		sink.Error(diag.CodeSelfReference,
			fmt.Sprintf("field '%s' cannot reference itself in property '%s'", n.Name(), r.Name), n.Source())
	}
}

// sameWidthRef requires a referenced field to be as wide as this one.
// Unresolved or mistyped references are left to notSelf.
func sameWidthRef(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	ref, ok := v.(rdl.Ref)
	if !ok || ref.Target != rdl.Field {
		return
	}
	target, ok := n.Resolve(ref)
	if !ok || target.Def().Kind != rdl.Field || target.Path() == n.Path() {
		return
	}
	if target.Width() != n.Width() {
		sink.Error(diag.CodeWidthMismatch,
			fmt.Sprintf("property '%s' of field '%s' references field '%s' of width %d, expected width %d",
				r.Name, n.Name(), target.Path(), target.Width(), n.Width()), n.Source())
	}
}

// fitsWidth rejects integers that do not fit in the field: v >= 2^width.
func fitsWidth(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok {
		return
	}
	w := n.Width()
	if w <= 0 || w >= 64 {
		return
	}
	if uint64(i) >= uint64(1)<<uint(w) {
		sink.Error(diag.CodeExceedsWidth,
			fmt.Sprintf("%s value %d exceeds field width of %d bits", r.Name, uint64(i), w), n.Source())
	}
}

// notWiderThanField bounds counter increment/decrement widths.
func notWiderThanField(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok || n.Width() <= 0 {
		return
	}
	if i == 0 || uint64(i) > uint64(n.Width()) {
		sink.Error(diag.CodeInvalidWidth,
			fmt.Sprintf("%s of %d must be between 1 and the field width of %d", r.Name, uint64(i), n.Width()), n.Source())
	}
}

// matchesDeclared requires an explicit width to agree with the width the
// instance was declared with.
func matchesDeclared(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok || n.Width() <= 0 {
		return
	}
	if uint64(i) != uint64(n.Width()) {
		sink.Error(diag.CodeWidthMismatch,
			fmt.Sprintf("%s of %d does not match the declared width of %d", r.Name, uint64(i), n.Width()), n.Source())
	}
}

// busWidth accepts powers of two no smaller than 8.
func busWidth(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok {
		return
	}
	if i < 8 || bits.OnesCount64(uint64(i)) != 1 {
		sink.Error(diag.CodeInvalidWidth,
			fmt.Sprintf("%s must be a power of 2 and at least 8, got %d", r.Name, uint64(i)), n.Source())
	}
}

func atMostRegwidth(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok {
		return
	}
	rw, err := n.Property("regwidth")
	if err != nil {
		return
	}
	if regwidth, ok := rw.(rdl.Int); ok && i > regwidth {
		sink.Error(diag.CodeInvalidWidth,
			fmt.Sprintf("%s of %d exceeds regwidth of %d", r.Name, uint64(i), uint64(regwidth)), n.Source())
	}
}

func powerOfTwo(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	i, ok := v.(rdl.Int)
	if !ok {
		return
	}
	if bits.OnesCount64(uint64(i)) != 1 {
		sink.Error(diag.CodeInvalidValue,
			fmt.Sprintf("%s must be a power of 2, got %d", r.Name, uint64(i)), n.Source())
	}
}

func positive(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
	if i, ok := v.(rdl.Int); ok && i == 0 {
		sink.Error(diag.CodeInvalidValue,
			fmt.Sprintf("%s must be greater than 0", r.Name), n.Source())
	}
}

// fieldRef combines the checks shared by properties that point at
// another field of matching width.
var fieldRef = all(notSelf, sameWidthRef)

// fieldValue is for properties holding either a constant that must fit
// the field or a reference to another field.
var fieldValue = all(notSelf, fitsWidth)
