package facts

import (
	"sort"
	"strings"

	"github.com/robert-at-pretension-io/rdl-lint/internal/design"
	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Tables is the relational fact model of a checked design set.
// Each slice is a relation (table) with flat rows.
type Tables struct {
	Files       []FileRow       `json:"files"`
	Properties  []PropertyRow   `json:"properties"`
	Components  []ComponentRow  `json:"components"`
	Instances   []InstanceRow   `json:"instances"`
	Assignments []AssignmentRow `json:"assignments"`
	Values      []ValueRow      `json:"values"`
	Diagnostics []DiagnosticRow `json:"diagnostics"`
}

type FileRow struct {
	Path      string `json:"path"`
	Root      string `json:"root"`
	Instances int    `json:"instances"`
}

// PropertyRow describes one rule of the catalog.
type PropertyRow struct {
	Name        string `json:"name"`
	Bindings    string `json:"bindings"`
	Types       string `json:"types"`
	Default     string `json:"default"`
	Dynamic     bool   `json:"dynamic"`
	MutexGroup  string `json:"mutex_group"`
	Opposite    string `json:"opposite"`
	AliasOf     string `json:"alias_of"`
	UserDefined bool   `json:"user_defined"`
}

type ComponentRow struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
}

type InstanceRow struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	Width       int    `json:"width"`
	External    bool   `json:"external"`
	Specialized bool   `json:"specialized"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

type AssignmentRow struct {
	Target   string `json:"target"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Dynamic  bool   `json:"dynamic"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// ValueRow is the resolved value of a property on an instance, whether
// assigned or defaulted.
type ValueRow struct {
	Path     string `json:"path"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Kind     string `json:"kind"`
	Explicit bool   `json:"explicit"`
	File     string `json:"file"`
}

type DiagnosticRow struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Path     string `json:"path"`
}

// CatalogRows converts the registry into property rows, sorted by name.
func CatalogRows(reg *properties.Registry) []PropertyRow {
	rows := []PropertyRow{}
	for _, r := range reg.Rules() {
		types := make([]string, len(r.ValidKinds))
		for i, k := range r.ValidKinds {
			types[i] = k.String()
		}
		def := ""
		switch {
		case r.DefaultFunc != nil:
			def = "(contextual)"
		case r.Default != nil:
			def = r.Default.String()
		}
		alias := ""
		if r.IsAlias() {
			alias = r.AliasOf
		}
		rows = append(rows, PropertyRow{
			Name:        r.Name,
			Bindings:    r.BindableTo.String(),
			Types:       strings.Join(types, "|"),
			Default:     def,
			Dynamic:     r.DynamicAssign,
			MutexGroup:  r.MutexGroup,
			Opposite:    r.Opposite,
			AliasOf:     alias,
			UserDefined: r.UserDefined,
		})
	}
	return rows
}

// BuildTables converts checked designs into a normalized relational model.
// Designs must have been fully assigned; values are resolved here.
func BuildTables(reg *properties.Registry, designs []*design.Design, diags []diag.Diagnostic) Tables {
	tables := emptyTables()
	tables.Properties = CatalogRows(reg)

	for _, d := range designs {
		file := FileRow{Path: d.File}
		if d.Root != nil {
			file.Root = d.Root.Name()
		}

		for _, name := range d.Order {
			c := d.Components[name]
			tables.Components = append(tables.Components, ComponentRow{
				Name: c.TypeName,
				Kind: c.Kind.String(),
				File: c.Source.File,
				Line: c.Source.Line,
			})
		}

		for _, st := range d.Statements {
			target := st.Source.Path
			tables.Assignments = append(tables.Assignments, AssignmentRow{
				Target:   target,
				Property: st.Name,
				Value:    st.Value.String(),
				Dynamic:  st.Dynamic,
				File:     st.Source.File,
				Line:     st.Source.Line,
			})
		}

		for _, in := range d.Instances() {
			file.Instances++
			src := in.Source()
			tables.Instances = append(tables.Instances, InstanceRow{
				Path:        in.Path(),
				Type:        in.Base().TypeName,
				Kind:        in.Def().Kind.String(),
				Width:       in.Width(),
				External:    in.External(),
				Specialized: in.Specialized(),
				File:        src.File,
				Line:        src.Line,
			})
			tables.Values = append(tables.Values, valueRows(reg, in, d.File)...)
		}

		tables.Files = append(tables.Files, file)
	}

	for _, dg := range diags {
		tables.Diagnostics = append(tables.Diagnostics, DiagnosticRow{
			Code:     dg.Code,
			Severity: string(dg.Severity),
			Message:  dg.Message,
			File:     dg.Source.File,
			Line:     dg.Source.Line,
			Path:     dg.Source.Path,
		})
	}
	sort.SliceStable(tables.Diagnostics, func(i, j int) bool {
		a, b := tables.Diagnostics[i], tables.Diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})

	return tables
}

func valueRows(reg *properties.Registry, in *design.Instance, file string) []ValueRow {
	var rows []ValueRow
	for _, r := range reg.BindableTo(in.Def().Kind) {
		v, err := in.Property(r.Name)
		if err != nil || v == nil {
			continue
		}
		kind, _ := rdl.KindOf(v)
		_, explicit := in.Def().Explicit(r.Name)
		rows = append(rows, ValueRow{
			Path:     in.Path(),
			Property: r.Name,
			Value:    v.String(),
			Kind:     kind.String(),
			Explicit: explicit,
			File:     file,
		})
	}
	return rows
}
