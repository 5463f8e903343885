package rdl

import (
	"fmt"
	"strconv"
)

// Value is a property value. The set of implementations is closed:
// Bool, Int, String, Ref, EnumLit and Expr.
type Value interface {
	fmt.Stringer
	isValue()
}

// Bool is a boolean literal.
type Bool bool

// Int is an unsigned integer literal (SystemRDL longint unsigned).
type Int uint64

// String is a text literal.
type String string

// Ref references another component instance by its path, relative to the
// node the property is queried on, or absolute when it starts with the
// root instance name.
type Ref struct {
	Path   string
	Target ComponentKind
}

// EnumLit is a member of one of the built-in enumerated types or of a
// user-defined enum. Kind is the category (KindAccessType,
// KindPrecedenceType, ..., KindUserEnum); Type names the user enum.
type EnumLit struct {
	Kind   ValueKind
	Type   string
	Member string
}

// Expr is an unresolved expression. Body is owned by the expression
// evaluator; this package only carries it around.
type Expr struct {
	Src  string
	Body any
}

func (Bool) isValue()    {}
func (Int) isValue()     {}
func (String) isValue()  {}
func (Ref) isValue()     {}
func (EnumLit) isValue() {}
func (Expr) isValue()    {}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (i Int) String() string { return strconv.FormatUint(uint64(i), 10) }

func (s String) String() string { return strconv.Quote(string(s)) }

func (r Ref) String() string { return r.Path }

func (e EnumLit) String() string {
	if e.Kind == KindUserEnum && e.Type != "" {
		return e.Type + "::" + e.Member
	}
	return e.Member
}

func (e Expr) String() string {
	if e.Src != "" {
		return e.Src
	}
	return fmt.Sprintf("%v", e.Body)
}

// KindOf returns the kind of a folded value. Expressions have no kind of
// their own until the evaluator predicts one.
func KindOf(v Value) (ValueKind, bool) {
	switch v := v.(type) {
	case Bool:
		return KindBool, true
	case Int:
		return KindInt, true
	case String:
		return KindString, true
	case Ref:
		return RefKind(v.Target), true
	case EnumLit:
		return v.Kind, true
	}
	return KindInvalid, false
}

// Equal compares two folded values.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if _, ok := a.(Expr); ok {
		return false
	}
	return a == b
}

var builtinEnumMembers = map[ValueKind][]string{
	KindAccessType:     {"rw", "wr", "r", "w", "rw1", "w1", "na"},
	KindPrecedenceType: {"hw", "sw"},
	KindOnReadType:     {"rclr", "rset", "ruser"},
	KindOnWriteType:    {"woset", "woclr", "wot", "wzs", "wzc", "wzt", "wclr", "wset", "wuser"},
	KindAddressingType: {"compact", "regalign", "fullalign"},
}

// BuiltinEnum returns the literal for a member of a built-in enumerated
// type, or an error if the member does not exist.
func BuiltinEnum(kind ValueKind, member string) (EnumLit, error) {
	members, ok := builtinEnumMembers[kind]
	if !ok {
		return EnumLit{}, fmt.Errorf("%s is not a built-in enumerated type", kind)
	}
	for _, m := range members {
		if m == member {
			return EnumLit{Kind: kind, Member: member}, nil
		}
	}
	return EnumLit{}, fmt.Errorf("%q is not a member of %s", member, kind)
}

// MustEnum is BuiltinEnum for literals known at compile time.
func MustEnum(kind ValueKind, member string) EnumLit {
	e, err := BuiltinEnum(kind, member)
	if err != nil {
		panic(err)
	}
	return e
}

// Access, Precedence, Addressing, OnRead and OnWrite are shorthands for
// the built-in enumerations.
func Access(member string) EnumLit     { return MustEnum(KindAccessType, member) }
func Precedence(member string) EnumLit { return MustEnum(KindPrecedenceType, member) }
func Addressing(member string) EnumLit { return MustEnum(KindAddressingType, member) }
func OnRead(member string) EnumLit     { return MustEnum(KindOnReadType, member) }
func OnWrite(member string) EnumLit    { return MustEnum(KindOnWriteType, member) }
