package checker

import (
	"context"
	"fmt"

	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
	"github.com/robert-at-pretension-io/rdl-lint/internal/policy"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// NewRegistry returns the built-in catalog extended with the user
// properties cfg declares.
func NewRegistry(ctx context.Context, cfg *config.Config) (*properties.Registry, error) {
	reg := properties.NewRegistry()
	if err := registerProperties(ctx, reg, cfg.Properties); err != nil {
		return nil, err
	}
	return reg, nil
}

// registerProperties turns the configured declarations into rules. It must
// run before any design is built.
func registerProperties(ctx context.Context, reg *properties.Registry, decls []config.PropertyDecl) error {
	for _, d := range decls {
		r, err := ruleFromDecl(ctx, d)
		if err != nil {
			return err
		}
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

func ruleFromDecl(ctx context.Context, d config.PropertyDecl) (*properties.Rule, error) {
	bindings, err := d.BindableTo()
	if err != nil {
		return nil, err
	}
	kind, err := d.ValueKind()
	if err != nil {
		return nil, err
	}
	def, err := d.DefaultValue()
	if err != nil {
		return nil, err
	}

	r := &properties.Rule{
		Name:          d.Name,
		BindableTo:    bindings,
		ValidKinds:    []rdl.ValueKind{kind},
		Default:       def,
		DynamicAssign: d.Dynamic,
		MutexGroup:    d.Mutex,
		Doc:           d.Doc,
	}
	if d.Policy != "" {
		eng, err := policy.Load(ctx, d.Policy)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", d.Name, err)
		}
		r.ValidateFunc = eng.Validator(ctx)
	}
	return r, nil
}
