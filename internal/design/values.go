package design

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

var enumKeys = []struct {
	key  string
	kind rdl.ValueKind
}{
	{"access", rdl.KindAccessType},
	{"precedence", rdl.KindPrecedenceType},
	{"onread", rdl.KindOnReadType},
	{"onwrite", rdl.KindOnWriteType},
	{"addressing", rdl.KindAddressingType},
}

// valueKeys lists every key that selects the form of a mapping value.
func valueKeys() []string {
	keys := []string{"ref", "enum"}
	for _, e := range enumKeys {
		keys = append(keys, e.key)
	}
	return keys
}

// decodeValue turns a YAML value into an assignment candidate.
//
//	true / false            boolean literal
//	42, 0x2a                integer expression
//	"text"                  string expression
//	{ref: path, kind: k}    reference expression (kind defaults to field)
//	{access: rw}            built-in enum literal, also precedence,
//	                        onread, onwrite and addressing
//	{enum: type::member}    user enum literal
func decodeValue(n *yaml.Node, enums map[string][]string) (rdl.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)
	case yaml.MappingNode:
		return decodeMapping(n, enums)
	}
	return nil, fmt.Errorf("line %d: unsupported property value", n.Line)
}

func decodeScalar(n *yaml.Node) (rdl.Value, error) {
	switch n.Tag {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return rdl.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseUint(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
		}
		return expr.Literal(rdl.Int(i)), nil
	case "!!str":
		return expr.Literal(rdl.String(n.Value)), nil
	}
	return nil, fmt.Errorf("line %d: unsupported scalar %q", n.Line, n.Value)
}

func decodeMapping(n *yaml.Node, enums map[string][]string) (rdl.Value, error) {
	fields := make(map[string]string)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = n.Content[i+1].Value
	}

	var forms []string
	for _, key := range valueKeys() {
		if _, ok := fields[key]; ok {
			forms = append(forms, key)
		}
	}
	if len(forms) > 1 {
		return nil, fmt.Errorf("line %d: value sets both %q and %q", n.Line, forms[0], forms[1])
	}

	if path, ok := fields["ref"]; ok {
		target := rdl.Field
		if k, ok := fields["kind"]; ok {
			parsed, err := rdl.ParseComponentKind(k)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			target = parsed
		}
		return expr.Reference(path, target), nil
	}

	if lit, ok := fields["enum"]; ok {
		typ, member, found := strings.Cut(lit, "::")
		if !found {
			return nil, fmt.Errorf("line %d: enum literal %q must be written type::member", n.Line, lit)
		}
		members, ok := enums[typ]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown enum %q", n.Line, typ)
		}
		for _, m := range members {
			if m == member {
				return rdl.EnumLit{Kind: rdl.KindUserEnum, Type: typ, Member: member}, nil
			}
		}
		return nil, fmt.Errorf("line %d: %q is not a member of enum %q", n.Line, member, typ)
	}

	for _, e := range enumKeys {
		if member, ok := fields[e.key]; ok {
			lit, err := rdl.BuiltinEnum(e.kind, member)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return lit, nil
		}
	}
	return nil, fmt.Errorf("line %d: unsupported property value", n.Line)
}
