package rdl

import (
	"fmt"
	"strings"
)

// ComponentKind identifies the kind of register-model entity a property
// can be attached to.
type ComponentKind int

const (
	Signal ComponentKind = iota
	Field
	Reg
	Regfile
	Mem
	Addrmap
)

var componentKindNames = [...]string{
	Signal:  "signal",
	Field:   "field",
	Reg:     "reg",
	Regfile: "regfile",
	Mem:     "mem",
	Addrmap: "addrmap",
}

func (k ComponentKind) String() string {
	if k < 0 || int(k) >= len(componentKindNames) {
		return fmt.Sprintf("ComponentKind(%d)", int(k))
	}
	return componentKindNames[k]
}

// ParseComponentKind maps a SystemRDL component keyword to its kind.
func ParseComponentKind(s string) (ComponentKind, error) {
	for i, name := range componentKindNames {
		if strings.EqualFold(s, name) {
			return ComponentKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown component kind %q", s)
}

// AllComponentKinds lists every kind in declaration order.
func AllComponentKinds() []ComponentKind {
	return []ComponentKind{Signal, Field, Reg, Regfile, Mem, Addrmap}
}

// KindSet is a small bit set of component kinds.
type KindSet uint8

// Kinds builds a KindSet from the given kinds.
func Kinds(kinds ...ComponentKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

// AnyKind binds to every component kind.
var AnyKind = Kinds(Signal, Field, Reg, Regfile, Mem, Addrmap)

func (s KindSet) Has(k ComponentKind) bool {
	return s&(1<<uint(k)) != 0
}

// Slice returns the member kinds in declaration order.
func (s KindSet) Slice() []ComponentKind {
	var out []ComponentKind
	for _, k := range AllComponentKinds() {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	kinds := s.Slice()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

// ValueKind is the shape of a property value. Castability between kinds
// is decided by the expression evaluator, not here.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindBool
	KindInt
	KindString
	KindAccessType
	KindPrecedenceType
	KindOnReadType
	KindOnWriteType
	KindAddressingType
	KindUserEnum

	// Component reference kinds. A reference value IS another entity.
	KindSignalRef
	KindFieldRef
	KindRegRef
	KindRegfileRef
	KindMemRef
	KindAddrmapRef
)

var valueKindNames = [...]string{
	KindInvalid:        "invalid",
	KindBool:           "boolean",
	KindInt:            "longint unsigned",
	KindString:         "string",
	KindAccessType:     "accesstype",
	KindPrecedenceType: "precedencetype",
	KindOnReadType:     "onreadtype",
	KindOnWriteType:    "onwritetype",
	KindAddressingType: "addressingtype",
	KindUserEnum:       "enum",
	KindSignalRef:      "signal",
	KindFieldRef:       "field",
	KindRegRef:         "reg",
	KindRegfileRef:     "regfile",
	KindMemRef:         "mem",
	KindAddrmapRef:     "addrmap",
}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(valueKindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return valueKindNames[k]
}

// ParseValueKind accepts the names String returns plus a few common
// spellings used in configuration files.
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer", "longint", "longint unsigned", "bit":
		return KindInt, nil
	case "string":
		return KindString, nil
	case "accesstype":
		return KindAccessType, nil
	case "precedencetype":
		return KindPrecedenceType, nil
	case "onreadtype":
		return KindOnReadType, nil
	case "onwritetype":
		return KindOnWriteType, nil
	case "addressingtype":
		return KindAddressingType, nil
	case "enum":
		return KindUserEnum, nil
	case "signal":
		return KindSignalRef, nil
	case "field":
		return KindFieldRef, nil
	case "reg":
		return KindRegRef, nil
	case "regfile":
		return KindRegfileRef, nil
	case "mem":
		return KindMemRef, nil
	case "addrmap":
		return KindAddrmapRef, nil
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", s)
}

// IsRef reports whether k is one of the component reference kinds.
func (k ValueKind) IsRef() bool {
	return k >= KindSignalRef && k <= KindAddrmapRef
}

// RefKind returns the reference value kind for a component kind.
func RefKind(c ComponentKind) ValueKind {
	return KindSignalRef + ValueKind(c)
}

// RefTarget returns the component kind a reference kind points at.
func (k ValueKind) RefTarget() (ComponentKind, bool) {
	if !k.IsRef() {
		return 0, false
	}
	return ComponentKind(k - KindSignalRef), true
}
