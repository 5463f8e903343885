package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rdl-lint/internal/design"
	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

const doc = `
components:
  - name: r
    kind: reg
  - name: top
    kind: addrmap
root:
  name: top
  type: top
  children:
    - {name: narrow, type: r, width: 16}
    - {name: ext, type: r, width: 32, external: true}
`

func setup(t *testing.T) (*design.Design, *properties.Rule) {
	t.Helper()
	reg := properties.NewRegistry()
	secure := &properties.Rule{
		Name:       "secure",
		BindableTo: rdl.Kinds(rdl.Reg),
		ValidKinds: []rdl.ValueKind{rdl.KindBool},
		Default:    rdl.Bool(false),
	}
	require.NoError(t, reg.Register(secure))

	parsed, err := design.Parse([]byte(doc))
	require.NoError(t, err)
	d, err := design.Build(parsed, reg, expr.New())
	require.NoError(t, err)
	return d, secure
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	eng, err := Load(ctx, "testdata/secure.rego")
	require.NoError(t, err)
	assert.Equal(t, "testdata/secure.rego", eng.File())

	d, secure := setup(t)
	narrow, _ := d.Find("top.narrow")
	ext, _ := d.Find("top.ext")

	vs, err := eng.Evaluate(ctx, NewInput(secure, narrow, rdl.Bool(true)))
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "'secure' may only be set on external components, 'top.narrow' is internal", vs[0].Message)
	assert.Equal(t, "'secure' requires a register of at least 32 bits, got 16", vs[1].Message)
	assert.Equal(t, "top.narrow", vs[0].Path)

	vs, err = eng.Evaluate(ctx, NewInput(secure, ext, rdl.Bool(true)))
	require.NoError(t, err)
	assert.Empty(t, vs)

	vs, err = eng.Evaluate(ctx, NewInput(secure, narrow, rdl.Bool(false)))
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestValidatorRecordsDiagnostics(t *testing.T) {
	ctx := context.Background()
	eng, err := Load(ctx, "testdata/secure.rego")
	require.NoError(t, err)

	d, secure := setup(t)
	secure.ValidateFunc = eng.Validator(ctx)
	narrow, _ := d.Find("top.narrow")

	sink := diag.NewCollector(map[string]string{diag.CodeUserPolicy: "warning"}, nil)
	secure.Validate(properties.Env{Eval: expr.New(), Sink: sink}, narrow, rdl.Bool(true))

	ds := sink.Diagnostics()
	require.Len(t, ds, 2)
	for _, dg := range ds {
		assert.Equal(t, diag.CodeUserPolicy, dg.Code)
		assert.Equal(t, diag.SeverityWarning, dg.Severity)
		assert.Equal(t, "top.narrow", dg.Source.Path)
	}
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Compile(ctx, "bad.rego", "package rdl.udp\n\nviolations contains x if {")
	assert.Error(t, err)

	_, err = Load(ctx, "testdata/missing.rego")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, true, Encode(rdl.Bool(true)))
	assert.Equal(t, uint64(7), Encode(rdl.Int(7)))
	assert.Equal(t, "x", Encode(rdl.String("x")))
	assert.Equal(t, "rw", Encode(rdl.Access("rw")))
	assert.Equal(t, "mode_e::fast", Encode(rdl.EnumLit{Kind: rdl.KindUserEnum, Type: "mode_e", Member: "fast"}))
	assert.Equal(t, map[string]any{"ref": "a.b", "kind": "field"}, Encode(rdl.Ref{Path: "a.b", Target: rdl.Field}))
	assert.Nil(t, Encode(nil))
}
