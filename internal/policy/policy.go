// Package policy evaluates rego policies attached to user-defined
// properties. A policy module lives in package rdl.udp and defines a
// `violations` set; every member is a message string or an object with a
// "message" key. The module is evaluated once per resolved value with an
// Input describing the value and the instance carrying it.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Query is the rule every policy module must define.
const Query = "data.rdl.udp.violations"

// Engine is one prepared policy module.
type Engine struct {
	file  string
	query rego.PreparedEvalQuery
}

// Violation is one message produced by a policy.
type Violation struct {
	Property string `json:"property"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// Input is the data structure passed to OPA
type Input struct {
	Property  string `json:"property"`
	Value     any    `json:"value"`
	ValueKind string `json:"value_kind"`
	Explicit  bool   `json:"explicit"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Width     int    `json:"width"`
	External  bool   `json:"external"`
	Parent    string `json:"parent,omitempty"`
}

// Load reads and prepares a policy file.
func Load(ctx context.Context, path string) (*Engine, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Compile(ctx, path, string(content))
}

// Compile prepares a policy module from source.
func Compile(ctx context.Context, file, src string) (*Engine, error) {
	query, err := rego.New(
		rego.Module(file, src),
		rego.Query(Query),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing policy %s: %w", file, err)
	}
	return &Engine{file: file, query: query}, nil
}

// File returns the module name the engine was compiled from.
func (e *Engine) File() string { return e.file }

// Evaluate runs the policy against one input. Messages are sorted so
// results do not depend on set iteration order.
func (e *Engine) Evaluate(ctx context.Context, in Input) ([]Violation, error) {
	inputMap, err := structToMap(in)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", e.file, err)
	}

	var messages []string
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		items, ok := rs[0].Expressions[0].Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: violations must be a set, got %T", e.file, rs[0].Expressions[0].Value)
		}
		for _, item := range items {
			switch v := item.(type) {
			case string:
				messages = append(messages, v)
			case map[string]interface{}:
				if msg := getString(v, "message"); msg != "" {
					messages = append(messages, msg)
				}
			}
		}
	}
	sort.Strings(messages)

	out := make([]Violation, len(messages))
	for i, msg := range messages {
		out[i] = Violation{Property: in.Property, Path: in.Path, Message: msg}
	}
	return out, nil
}

// Validator adapts the engine to the rule engine's validation hook. Each
// violation, and any evaluation failure, is recorded as a user-policy
// diagnostic.
func (e *Engine) Validator(ctx context.Context) properties.ValidateFunc {
	return func(r *properties.Rule, n rdl.Node, v rdl.Value, sink diag.Sink) {
		violations, err := e.Evaluate(ctx, NewInput(r, n, v))
		if err != nil {
			sink.Error(diag.CodeUserPolicy, fmt.Sprintf("policy for '%s' failed: %v", r.Name, err), n.Source())
			return
		}
		for _, vio := range violations {
			sink.Error(diag.CodeUserPolicy, vio.Message, n.Source())
		}
	}
}

// NewInput describes a resolved value and its node.
func NewInput(r *properties.Rule, n rdl.Node, v rdl.Value) Input {
	def := n.Def()
	_, explicit := def.Explicit(r.Name)
	kind, _ := rdl.KindOf(v)
	in := Input{
		Property:  r.Name,
		Value:     Encode(v),
		ValueKind: kind.String(),
		Explicit:  explicit,
		Path:      n.Path(),
		Name:      n.Name(),
		Kind:      def.Kind.String(),
		Type:      def.TypeName,
		Width:     n.Width(),
		External:  n.External(),
	}
	if p := n.Parent(); p != nil {
		in.Parent = p.Path()
	}
	return in
}

// Encode converts a folded value to its JSON form for policy input.
func Encode(v rdl.Value) any {
	switch v := v.(type) {
	case rdl.Bool:
		return bool(v)
	case rdl.Int:
		return uint64(v)
	case rdl.String:
		return string(v)
	case rdl.Ref:
		return map[string]any{"ref": v.Path, "kind": v.Target.String()}
	case rdl.EnumLit:
		return v.String()
	case nil:
		return nil
	}
	return v.String()
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
