// Package properties is the SystemRDL property rule engine.
//
// Every property that may be attached to a component is described by a
// Rule: where it may appear, which value kinds it accepts, how its value
// is derived when nothing was assigned, and which checks apply once the
// instance tree exists. Rules are plain records; the handful that need
// custom behavior carry a default resolver or a validator function.
//
// The engine runs in two strictly ordered phases. During assignment,
// Rule.Assign writes into a component definition's property map. During
// validation, Rule.Validate reads resolved values through rdl.Node and
// records recoverable diagnostics. Nothing is written once validation
// starts.
package properties

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Env carries the per-session collaborators a rule needs.
type Env struct {
	Eval rdl.Evaluator
	Sink diag.Sink
}

// DefaultFunc derives a property's value from instance context.
type DefaultFunc func(r *Rule, n rdl.Node) (rdl.Value, error)

// ValidateFunc checks a resolved value against the instance tree and
// records any violations on the sink.
type ValidateFunc func(r *Rule, n rdl.Node, v rdl.Value, sink diag.Sink)

// Rule describes one property. Rules are immutable once a Registry has
// been built from them.
type Rule struct {
	Name       string
	BindableTo rdl.KindSet
	// ValidKinds is ordered; the first castable entry wins.
	ValidKinds []rdl.ValueKind
	// Default is the static fallback. Nil means there is none, or that
	// DefaultFunc must compute one.
	Default       rdl.Value
	DynamicAssign bool
	// MutexGroup tags mutually exclusive properties. Empty means none.
	MutexGroup string
	// Opposite names the other half of a paired boolean.
	Opposite string
	// AliasOf names the canonical property assignments are mirrored to.
	AliasOf string

	DefaultFunc  DefaultFunc
	ValidateFunc ValidateFunc

	// Doc is a one-line description shown by `rdl-lint props`.
	Doc string
	// UserDefined marks rules registered at runtime.
	UserDefined bool
}

// ErrFault marks an internal engine fault: a collaborator handed the
// engine something it cannot classify. It is never a user diagnostic.
var ErrFault = errors.New("property engine fault")

// Fault describes an internal engine fault.
type Fault struct {
	Property string
	Value    rdl.Value
	Err      error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("property %s: cannot classify value %v: %v", f.Property, f.Value, f.Err)
	}
	return fmt.Sprintf("property %s: cannot classify value of type %T", f.Property, f.Value)
}

func (f *Fault) Unwrap() []error {
	if f.Err != nil {
		return []error{ErrFault, f.Err}
	}
	return []error{ErrFault}
}

// IsAlias reports whether assignments to r are mirrored to another name.
func (r *Rule) IsAlias() bool {
	return r.AliasOf != "" && r.AliasOf != r.Name
}

// IsPaired reports whether r is one half of a paired boolean.
func (r *Rule) IsPaired() bool {
	return r.Opposite != ""
}

// Assign stores v under r's name in comp's property map.
//
// A binding violation is fatal: the diagnostic is recorded and returned,
// and the caller must abandon the current component. A value whose kind
// cannot be cast to any accepted kind is recorded as a recoverable error
// and also returned; nothing is stored. A value the engine cannot
// classify at all yields a *Fault.
func (r *Rule) Assign(env Env, comp *rdl.Component, v rdl.Value, src diag.Source) error {
	if !r.BindableTo.Has(comp.Kind) {
		return env.Sink.Fatal(diag.CodeInvalidBinding,
			fmt.Sprintf("property '%s' is not valid for '%s' components", r.Name, comp.Kind), src)
	}

	kind, err := r.classify(env, v)
	if err != nil {
		return err
	}
	if !r.Accepts(env.Eval, kind) {
		d := &diag.Diagnostic{
			Code:     diag.CodeIncompatible,
			Severity: diag.SeverityError,
			Message: fmt.Sprintf("incompatible assignment to property '%s': expected %s, got %s",
				r.Name, r.kindList(), kind),
			Source: src,
		}
		env.Sink.Error(d.Code, d.Message, src)
		return d
	}

	if comp.Properties == nil {
		comp.Properties = make(map[string]rdl.Value)
	}
	comp.Properties[r.Name] = v
	if r.IsPaired() {
		delete(comp.Properties, r.Opposite)
	}
	if r.IsAlias() {
		comp.Properties[r.AliasOf] = v
	}
	return nil
}

// AssignDynamic is Assign for an override made outside the component's
// own definition. Properties that do not allow it are rejected as fatal.
func (r *Rule) AssignDynamic(env Env, comp *rdl.Component, v rdl.Value, src diag.Source) error {
	if !r.DynamicAssign {
		return env.Sink.Fatal(diag.CodeDynamicAssign,
			fmt.Sprintf("property '%s' cannot be dynamically assigned", r.Name), src)
	}
	return r.Assign(env, comp, v, src)
}

// Accepts reports whether a value of the given kind may be assigned.
func (r *Rule) Accepts(ev rdl.Evaluator, kind rdl.ValueKind) bool {
	for _, valid := range r.ValidKinds {
		if ev.IsCastable(kind, valid) {
			return true
		}
	}
	return false
}

func (r *Rule) classify(env Env, v rdl.Value) (rdl.ValueKind, error) {
	switch v := v.(type) {
	case rdl.Bool:
		return rdl.KindBool, nil
	case rdl.EnumLit:
		return v.Kind, nil
	case rdl.Expr:
		kind, err := env.Eval.PredictKind(v)
		if err != nil {
			return rdl.KindInvalid, &Fault{Property: r.Name, Value: v, Err: err}
		}
		return kind, nil
	}
	return rdl.KindInvalid, &Fault{Property: r.Name, Value: v}
}

func (r *Rule) kindList() string {
	names := make([]string, len(r.ValidKinds))
	for i, k := range r.ValidKinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}

// ResolveDefault returns the value of r on n when nothing was assigned.
// A nil value with a nil error means the property has no value.
func (r *Rule) ResolveDefault(n rdl.Node) (rdl.Value, error) {
	if r.DefaultFunc != nil {
		return r.DefaultFunc(r, n)
	}
	return r.Default, nil
}

// Validate checks a resolved value. All findings are recoverable.
func (r *Rule) Validate(env Env, n rdl.Node, v rdl.Value) {
	if r.ValidateFunc == nil || v == nil {
		return
	}
	r.ValidateFunc(r, n, v, env.Sink)
}
