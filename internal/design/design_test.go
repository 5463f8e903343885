package design

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

func load(t *testing.T, path string) (*Design, *properties.Registry) {
	t.Helper()
	doc, err := ReadFile(path)
	require.NoError(t, err)
	reg := properties.NewRegistry()
	d, err := Build(doc, reg, expr.New())
	require.NoError(t, err)
	return d, reg
}

func replay(t *testing.T, d *Design) *diag.Collector {
	t.Helper()
	sink := diag.NewCollector(nil, nil)
	require.NoError(t, d.Assign(properties.Env{Eval: expr.New(), Sink: sink}, true))
	return sink
}

func TestReadFile(t *testing.T) {
	doc, err := ReadFile("testdata/uart.yaml")
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "testdata/uart.yaml", doc.File)
	assert.Equal(t, []string{"none", "even", "odd"}, doc.Enums["parity_e"])
	require.Len(t, doc.Components, 5)
	assert.Equal(t, "mode_f", doc.Components[0].Name)
	assert.Equal(t, 5, doc.Components[0].Line)

	props := doc.Components[0].Properties
	require.Len(t, props, 4)
	assert.Equal(t, "sw", props[0].Name)
	assert.Equal(t, "encode", props[3].Name)
	assert.Equal(t, 8, props[0].Line)

	assert.Equal(t, "uart", doc.Root.Name)
	require.Len(t, doc.Root.Children, 3)
	assert.True(t, doc.Root.Children[2].External)
	assert.NotNil(t, doc.Raw)

	_, err = ReadFile("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	d, _ := load(t, "testdata/uart.yaml")

	assert.Equal(t, []string{"mode_f", "status_f", "irq_s", "ctrl_reg", "uart_map"}, d.Order)
	require.Len(t, d.Statements, 10)

	var dynamic []Statement
	for i, st := range d.Statements {
		if st.Dynamic {
			dynamic = append(dynamic, st)
			continue
		}
		assert.Empty(t, dynamic, "statement %d: local statements come first", i)
	}
	require.Len(t, dynamic, 1)
	assert.Equal(t, "accesswidth", dynamic[0].Name)
	assert.Equal(t, "uart.ctrl_shadow", dynamic[0].Source.Path)

	var paths []string
	for _, in := range d.Instances() {
		paths = append(paths, in.Path())
	}
	assert.Equal(t, []string{"uart", "uart.irq", "uart.ctrl", "uart.ctrl.mode", "uart.ctrl.status", "uart.ctrl_shadow"}, paths)
}

func TestDecodedValues(t *testing.T) {
	d, _ := load(t, "testdata/uart.yaml")
	byName := make(map[string]rdl.Value)
	for _, st := range d.Statements {
		if st.Comp != nil && st.Comp.TypeName == "mode_f" {
			byName[st.Name] = st.Value
		}
	}

	assert.Equal(t, rdl.Access("rw"), byName["sw"])
	assert.Equal(t, rdl.EnumLit{Kind: rdl.KindUserEnum, Type: "parity_e", Member: "even"}, byName["encode"])

	reset, ok := byName["reset"].(rdl.Expr)
	require.True(t, ok)
	v, err := d.Fold(reset)
	require.NoError(t, err)
	assert.Equal(t, rdl.Int(3), v)
}

func TestFindAndResolve(t *testing.T) {
	d, _ := load(t, "testdata/uart.yaml")

	status, ok := d.Find("uart.ctrl.status")
	require.True(t, ok)
	assert.Equal(t, 2, status.Width())
	assert.Equal(t, "uart.ctrl", status.Parent().Path())

	_, ok = d.Find("ctrl.status")
	assert.False(t, ok)

	mode, ok := status.Resolve(rdl.Ref{Path: "mode", Target: rdl.Field})
	require.True(t, ok)
	assert.Equal(t, "uart.ctrl.mode", mode.Path())

	irq, ok := status.Resolve(rdl.Ref{Path: "irq", Target: rdl.Signal})
	require.True(t, ok, "outer scopes are searched")
	assert.Equal(t, "uart.irq", irq.Path())

	abs, ok := status.Resolve(rdl.Ref{Path: "uart.ctrl.mode", Target: rdl.Field})
	require.True(t, ok)
	assert.Equal(t, mode.Path(), abs.Path())

	_, ok = status.Resolve(rdl.Ref{Path: "nope", Target: rdl.Field})
	assert.False(t, ok)
}

func TestResolvePrefersTargetKind(t *testing.T) {
	doc, err := Parse([]byte(`
components:
  - {name: f_t, kind: field}
  - {name: r_t, kind: reg}
  - {name: s_t, kind: signal}
  - {name: rf_t, kind: regfile}
  - {name: top_t, kind: addrmap}
root:
  name: top
  type: top_t
  children:
    - {name: en, type: s_t, width: 1}
    - name: blk
      type: rf_t
      children:
        - {name: en, type: r_t, width: 32}
        - name: ctrl
          type: r_t
          width: 32
          children:
            - {name: f, type: f_t, width: 1}
`))
	require.NoError(t, err)
	d, err := Build(doc, properties.NewRegistry(), expr.New())
	require.NoError(t, err)
	f, ok := d.Find("top.blk.ctrl.f")
	require.True(t, ok)

	sig, ok := f.Resolve(rdl.Ref{Path: "en", Target: rdl.Signal})
	require.True(t, ok)
	assert.Equal(t, "top.en", sig.Path(), "the inner reg does not hide the outer signal")

	nearest, ok := f.Resolve(rdl.Ref{Path: "en", Target: rdl.Field})
	require.True(t, ok)
	assert.Equal(t, "top.blk.en", nearest.Path())
	assert.Equal(t, rdl.Reg, nearest.Def().Kind)
}

func TestTwoValueFormsMessage(t *testing.T) {
	doc, err := Parse([]byte(`
components:
  - name: f
    kind: field
    properties:
      onwrite: {onwrite: woclr, access: rw, enum: "x::y"}
  - {name: top, kind: addrmap}
root: {name: top, type: top}
`))
	require.NoError(t, err)
	_, err = Build(doc, properties.NewRegistry(), expr.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value sets both "enum" and "access"`)
}

func TestPropertiesAfterReplay(t *testing.T) {
	d, _ := load(t, "testdata/uart.yaml")
	sink := replay(t, d)
	assert.Empty(t, sink.Diagnostics())

	ctrl, _ := d.Find("uart.ctrl")
	shadow, _ := d.Find("uart.ctrl_shadow")

	v, err := ctrl.Property("accesswidth")
	require.NoError(t, err)
	assert.Equal(t, rdl.Int(32), v)

	v, err = shadow.Property("accesswidth")
	require.NoError(t, err)
	assert.Equal(t, rdl.Int(8), v)
	v, err = shadow.Property("desc")
	require.NoError(t, err)
	assert.Equal(t, rdl.String("UART control"), v, "specialized copy keeps local assignments")

	assert.True(t, shadow.Specialized())
	assert.False(t, ctrl.Specialized())
	assert.Same(t, ctrl.Def(), shadow.Base())
	_, leaked := ctrl.Def().Explicit("accesswidth")
	assert.False(t, leaked)

	irq, _ := d.Find("uart.irq")
	v, err = irq.Property("sync")
	require.NoError(t, err)
	assert.Equal(t, rdl.Bool(false), v)

	v, err = d.Root.Property("lsb0")
	require.NoError(t, err)
	assert.Equal(t, rdl.Bool(false), v)

	_, err = d.Root.Property("reset")
	assert.Error(t, err, "reset does not bind to addrmap")
	_, err = d.Root.Property("no_such_property")
	assert.Error(t, err)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", `
components:
  - {name: top, kind: addrmap}
root: {name: top, type: nope}
`},
		{"bad nesting", `
components:
  - {name: top, kind: addrmap}
  - {name: f, kind: field}
root:
  name: top
  type: top
  children:
    - {name: f0, type: f}
`},
		{"duplicate component", `
components:
  - {name: top, kind: addrmap}
  - {name: top, kind: reg}
root: {name: top, type: top}
`},
		{"unknown kind", `
components:
  - {name: top, kind: block}
root: {name: top, type: top}
`},
		{"unknown enum member", `
enums:
  e: [a, b]
components:
  - name: top
    kind: addrmap
    properties:
      x: {enum: "e::c"}
root: {name: top, type: top}
`},
		{"bad builtin enum", `
components:
  - name: f
    kind: field
    properties:
      sw: {access: rwx}
  - {name: top, kind: addrmap}
root: {name: top, type: top}
`},
		{"two value forms", `
components:
  - name: f
    kind: field
    properties:
      sw: {access: rw, onread: rclr}
  - {name: top, kind: addrmap}
root: {name: top, type: top}
`},
		{"unsupported value", `
components:
  - name: top
    kind: addrmap
    properties:
      desc: [a, b]
root: {name: top, type: top}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = Build(doc, properties.NewRegistry(), expr.New())
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsNonMappingProperties(t *testing.T) {
	_, err := Parse([]byte(`
components:
  - name: top
    kind: addrmap
    properties: [a, b]
root: {name: top, type: top}
`))
	assert.Error(t, err)
}

func TestAssignSkipsAfterFatal(t *testing.T) {
	doc, err := Parse([]byte(`
components:
  - name: f
    kind: field
    properties:
      regwidth: 32
      reset: 1
  - name: r
    kind: reg
    properties:
      resett: 1
      accesswidth: "wide"
      shared: true
  - name: top
    kind: addrmap
root:
  name: top
  type: top
  children:
    - name: r0
      type: r
      children:
        - name: f0
          type: f
          properties:
            hw: {access: r}
            sw: {access: r}
`))
	require.NoError(t, err)
	d, err := Build(doc, properties.NewRegistry(), expr.New())
	require.NoError(t, err)

	sink := replay(t, d)
	var got []string
	for _, dg := range sink.Diagnostics() {
		got = append(got, dg.Code)
	}
	assert.Equal(t, []string{
		diag.CodeInvalidBinding,
		diag.CodeUnknownProperty,
		diag.CodeIncompatible,
		diag.CodeDynamicAssign,
	}, got)
	assert.Contains(t, sink.Diagnostics()[1].Message, "did you mean 'reset'")

	f := d.Components["f"]
	_, ok := f.Explicit("reset")
	assert.False(t, ok, "statements after a fatal one are skipped")
	_, ok = d.Components["r"].Explicit("shared")
	assert.True(t, ok, "recoverable errors do not stop the component")

	f0, _ := d.Find("top.r0.f0")
	_, ok = f0.Def().Explicit("sw")
	assert.False(t, ok)
}

func TestAssignAbortsOnFault(t *testing.T) {
	d, _ := load(t, "testdata/uart.yaml")
	d.Statements = append(d.Statements, Statement{
		Comp:  d.Components["ctrl_reg"],
		Name:  "desc",
		Value: rdl.Int(1),
	})
	err := d.Assign(properties.Env{Eval: expr.New(), Sink: diag.NewCollector(nil, nil)}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, properties.ErrFault))
}
