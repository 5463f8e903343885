package properties

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Registry maps property names to rules. Built-in rules are fixed when the
// registry is created; user-defined rules are consulted only for names
// that are not built in.
type Registry struct {
	builtin map[string]*Rule
	user    map[string]*Rule
}

// NewRegistry builds the built-in rule table. Every rule is constructed
// exactly once per registry.
func NewRegistry() *Registry {
	reg := &Registry{
		builtin: make(map[string]*Rule),
		user:    make(map[string]*Rule),
	}
	for _, r := range builtinRules() {
		if _, dup := reg.builtin[r.Name]; dup {
			panic(fmt.Sprintf("properties: duplicate built-in rule %q", r.Name))
		}
		reg.builtin[r.Name] = r
	}
	return reg
}

// Lookup returns the rule for name. Names are case-sensitive.
func (reg *Registry) Lookup(name string) (*Rule, bool) {
	if r, ok := reg.builtin[name]; ok {
		return r, true
	}
	r, ok := reg.user[name]
	return r, ok
}

// IsBuiltin reports whether name is a standard property.
func (reg *Registry) IsBuiltin(name string) bool {
	_, ok := reg.builtin[name]
	return ok
}

// Register adds a user-defined rule. It must be called before checking
// starts; rules are read-only afterwards.
func (reg *Registry) Register(r *Rule) error {
	if r == nil || r.Name == "" {
		return fmt.Errorf("user property has no name")
	}
	if _, ok := reg.builtin[r.Name]; ok {
		return fmt.Errorf("user property %q collides with a built-in property", r.Name)
	}
	if _, ok := reg.user[r.Name]; ok {
		return fmt.Errorf("user property %q is already registered", r.Name)
	}
	if r.BindableTo == 0 {
		return fmt.Errorf("user property %q binds to no component kind", r.Name)
	}
	if len(r.ValidKinds) == 0 {
		return fmt.Errorf("user property %q accepts no value kind", r.Name)
	}
	r.UserDefined = true
	reg.user[r.Name] = r
	return nil
}

// Rules returns every rule, built-in and user-defined, sorted by name.
func (reg *Registry) Rules() []*Rule {
	out := make([]*Rule, 0, len(reg.builtin)+len(reg.user))
	for _, r := range reg.builtin {
		out = append(out, r)
	}
	for _, r := range reg.user {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BindableTo returns the rules legal on the given component kind, sorted
// by name.
func (reg *Registry) BindableTo(kind rdl.ComponentKind) []*Rule {
	var out []*Rule
	for _, r := range reg.Rules() {
		if r.BindableTo.Has(kind) {
			out = append(out, r)
		}
	}
	return out
}

// Suggest returns up to three known property names close to name, for
// "did you mean" hints.
func (reg *Registry) Suggest(name string) []string {
	type candidate struct {
		name string
		dist int
	}
	limit := len(name) / 3
	if limit < 1 {
		limit = 1
	}
	lower := strings.ToLower(name)
	var cands []candidate
	for _, r := range reg.Rules() {
		d := levenshtein.Distance(lower, strings.ToLower(r.Name), nil)
		if d <= limit {
			cands = append(cands, candidate{name: r.Name, dist: d})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > 3 {
		cands = cands[:3]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

// CheckMutexGroups records a recoverable error for every mutex group with
// more than one explicit assignment on comp.
func (reg *Registry) CheckMutexGroups(comp *rdl.Component, sink diag.Sink) {
	for _, names := range reg.MutexConflicts(comp) {
		sink.Error(diag.CodeMutexGroup,
			fmt.Sprintf("properties %s are mutually exclusive", quoteJoin(names)), comp.Source)
	}
}

// CheckSpecialized is CheckMutexGroups for a definition specialized from
// base by dynamic overrides. Conflicts base already has are reported on
// base; the rest are recorded at src.
func (reg *Registry) CheckSpecialized(copied, base *rdl.Component, src diag.Source, sink diag.Sink) {
	known := make(map[string]bool)
	for _, names := range reg.MutexConflicts(base) {
		known[strings.Join(names, ",")] = true
	}
	for _, names := range reg.MutexConflicts(copied) {
		if known[strings.Join(names, ",")] {
			continue
		}
		sink.Error(diag.CodeMutexGroup,
			fmt.Sprintf("properties %s are mutually exclusive", quoteJoin(names)), src)
	}
}

// MutexConflicts returns, per violated mutex group in group order, the
// explicitly assigned members. Alias spellings count once.
func (reg *Registry) MutexConflicts(comp *rdl.Component) [][]string {
	groups := make(map[string][]string)
	for _, name := range comp.PropertyNames() {
		r, ok := reg.Lookup(name)
		if !ok || r.MutexGroup == "" || r.IsAlias() {
			continue
		}
		groups[r.MutexGroup] = append(groups[r.MutexGroup], name)
	}

	keys := make([]string, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	sort.Strings(keys)
	var out [][]string
	for _, g := range keys {
		if names := groups[g]; len(names) > 1 {
			out = append(out, names)
		}
	}
	return out
}

// MutexGroups returns the members of every non-empty mutex group.
func (reg *Registry) MutexGroups() map[string][]string {
	out := make(map[string][]string)
	for _, r := range reg.Rules() {
		if r.MutexGroup != "" {
			out[r.MutexGroup] = append(out[r.MutexGroup], r.Name)
		}
	}
	return out
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
