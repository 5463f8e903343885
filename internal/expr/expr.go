// Package expr is a minimal expression evaluator for pre-elaborated
// designs. Every expression it builds is already constant: a literal or a
// reference to another instance. It implements rdl.Evaluator so the
// property rule engine can predict kinds and check castability.
package expr

import (
	"fmt"

	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Literal wraps a folded value in an expression.
func Literal(v rdl.Value) rdl.Expr {
	return rdl.Expr{Src: v.String(), Body: v}
}

// Reference builds an expression referencing another instance.
func Reference(path string, target rdl.ComponentKind) rdl.Expr {
	return Literal(rdl.Ref{Path: path, Target: target})
}

// Evaluator predicts and folds constant expressions.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// PredictKind returns the kind the expression folds to.
func (ev *Evaluator) PredictKind(e rdl.Expr) (rdl.ValueKind, error) {
	v, err := ev.Fold(e)
	if err != nil {
		return rdl.KindInvalid, err
	}
	kind, ok := rdl.KindOf(v)
	if !ok {
		return rdl.KindInvalid, fmt.Errorf("expression %q has no kind", e.Src)
	}
	return kind, nil
}

// Fold evaluates the expression to a constant value.
func (ev *Evaluator) Fold(e rdl.Expr) (rdl.Value, error) {
	switch body := e.Body.(type) {
	case rdl.Expr:
		return ev.Fold(body)
	case rdl.Value:
		return body, nil
	case nil:
		return nil, fmt.Errorf("empty expression")
	}
	return nil, fmt.Errorf("unsupported expression body %T", e.Body)
}

// IsCastable follows SystemRDL's implicit casts: identical kinds, and the
// boolean/integer pair in either direction.
func (ev *Evaluator) IsCastable(from, to rdl.ValueKind) bool {
	if from == rdl.KindInvalid || to == rdl.KindInvalid {
		return false
	}
	if from == to {
		return true
	}
	numeric := func(k rdl.ValueKind) bool {
		return k == rdl.KindInt || k == rdl.KindBool
	}
	return numeric(from) && numeric(to)
}
