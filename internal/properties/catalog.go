package properties

import "github.com/robert-at-pretension-io/rdl-lint/internal/rdl"

var (
	boolKind   = []rdl.ValueKind{rdl.KindBool}
	intKind    = []rdl.ValueKind{rdl.KindInt}
	stringKind = []rdl.ValueKind{rdl.KindString}

	fieldRefKind   = []rdl.ValueKind{rdl.KindFieldRef}
	signalRefKind  = []rdl.ValueKind{rdl.KindSignalRef}
	intOrFieldRef  = []rdl.ValueKind{rdl.KindInt, rdl.KindFieldRef}
	intOrSignalRef = []rdl.ValueKind{rdl.KindInt, rdl.KindSignalRef}
	counterLimit   = []rdl.ValueKind{rdl.KindBool, rdl.KindInt, rdl.KindSignalRef}

	signalOnly = rdl.Kinds(rdl.Signal)
	fieldOnly  = rdl.Kinds(rdl.Field)
	regOnly    = rdl.Kinds(rdl.Reg)
	memOnly    = rdl.Kinds(rdl.Mem)
	mapOnly    = rdl.Kinds(rdl.Addrmap)
	blocks     = rdl.Kinds(rdl.Regfile, rdl.Addrmap)
	hdlScoped  = rdl.Kinds(rdl.Reg, rdl.Regfile, rdl.Addrmap)
	testable   = rdl.Kinds(rdl.Field, rdl.Reg, rdl.Regfile, rdl.Addrmap)
)

// builtinRules returns a fresh copy of every standard SystemRDL property.
func builtinRules() []*Rule {
	var rules []*Rule
	rules = append(rules, generalRules()...)
	rules = append(rules, signalRules()...)
	rules = append(rules, fieldRules()...)
	rules = append(rules, counterRules()...)
	rules = append(rules, interruptRules()...)
	rules = append(rules, registerRules()...)
	rules = append(rules, blockRules()...)
	rules = append(rules, memRules()...)
	return rules
}

func generalRules() []*Rule {
	return []*Rule{
		{Name: "name", BindableTo: rdl.AnyKind, ValidKinds: stringKind, Default: rdl.String(""), DynamicAssign: true,
			DefaultFunc: instanceName, Doc: "human-readable name; defaults to the instance name"},
		{Name: "desc", BindableTo: rdl.AnyKind, ValidKinds: stringKind, DynamicAssign: true,
			Doc: "free-form description"},
		{Name: "ispresent", BindableTo: rdl.AnyKind, ValidKinds: boolKind, Default: rdl.Bool(true), DynamicAssign: true,
			Doc: "whether the component is present in the design"},
		{Name: "dontcompare", BindableTo: testable, ValidKinds: []rdl.ValueKind{rdl.KindBool, rdl.KindInt},
			Default: rdl.Bool(false), DynamicAssign: true, MutexGroup: "O",
			Doc: "exclude from read-back comparison"},
		{Name: "donttest", BindableTo: testable, ValidKinds: []rdl.ValueKind{rdl.KindBool, rdl.KindInt},
			Default: rdl.Bool(false), DynamicAssign: true, MutexGroup: "O",
			Doc: "exclude from structural testing"},
		{Name: "errextbus", BindableTo: rdl.Kinds(rdl.Reg, rdl.Regfile, rdl.Addrmap), ValidKinds: boolKind,
			Default: rdl.Bool(false), ValidateFunc: externalOnly,
			Doc: "external bus has an error response input"},
		{Name: "hdl_path", BindableTo: hdlScoped, ValidKinds: stringKind, DynamicAssign: true,
			Doc: "back-door HDL path"},
		{Name: "hdl_path_gate", BindableTo: hdlScoped, ValidKinds: stringKind, DynamicAssign: true,
			Doc: "back-door HDL path for gate-level netlists"},
	}
}

func signalRules() []*Rule {
	return []*Rule{
		{Name: "signalwidth", BindableTo: signalOnly, ValidKinds: intKind,
			DefaultFunc: declaredWidth, ValidateFunc: matchesDeclared,
			Doc: "signal width; defaults to the instantiated width"},
		{Name: "sync", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(true), DynamicAssign: true,
			MutexGroup: "N", Opposite: "async", DefaultFunc: pairedDefault,
			Doc: "signal is synchronous to the component clock"},
		{Name: "async", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "N", Opposite: "sync", DefaultFunc: pairedDefault,
			Doc: "signal is asynchronous"},
		{Name: "cpuif_reset", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "signal resets the CPU interface"},
		{Name: "field_reset", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "signal is the default field reset"},
		{Name: "activelow", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "A", Doc: "signal is active low"},
		{Name: "activehigh", BindableTo: signalOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "A", Doc: "signal is active high"},
	}
}

func fieldRules() []*Rule {
	return []*Rule{
		{Name: "fieldwidth", BindableTo: fieldOnly, ValidKinds: intKind,
			DefaultFunc: declaredWidth, ValidateFunc: matchesDeclared,
			Doc: "field width; defaults to the instantiated width"},
		{Name: "reset", BindableTo: fieldOnly, ValidKinds: intOrFieldRef, DynamicAssign: true,
			ValidateFunc: all(notSelf, fitsWidth, sameWidthRef),
			Doc: "reset value, a constant or another field"},
		{Name: "resetsignal", BindableTo: fieldOnly, ValidKinds: signalRefKind, DynamicAssign: true,
			ValidateFunc: resolvable, Doc: "signal that resets the field"},

		{Name: "sw", BindableTo: rdl.Kinds(rdl.Field, rdl.Mem), ValidKinds: []rdl.ValueKind{rdl.KindAccessType},
			Default: rdl.Access("rw"), DynamicAssign: true, Doc: "software access"},
		{Name: "hw", BindableTo: fieldOnly, ValidKinds: []rdl.ValueKind{rdl.KindAccessType},
			Default: rdl.Access("rw"), Doc: "hardware access"},
		{Name: "precedence", BindableTo: fieldOnly, ValidKinds: []rdl.ValueKind{rdl.KindPrecedenceType},
			Default: rdl.Precedence("sw"), DynamicAssign: true, Doc: "which side wins a simultaneous write"},
		{Name: "encode", BindableTo: fieldOnly, ValidKinds: []rdl.ValueKind{rdl.KindUserEnum}, DynamicAssign: true,
			Doc: "user enumeration describing the field encoding"},
		{Name: "paritycheck", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			Doc: "field is covered by a parity check"},

		// Read side effects.
		{Name: "rclr", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "P", Doc: "clear on read"},
		{Name: "rset", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "P", Doc: "set on read"},
		{Name: "onread", BindableTo: fieldOnly, ValidKinds: []rdl.ValueKind{rdl.KindOnReadType}, DynamicAssign: true,
			MutexGroup: "P", Doc: "read side effect"},

		// Write side effects.
		{Name: "woset", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "B", Doc: "write one to set"},
		{Name: "woclr", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "B", Doc: "write one to clear"},
		{Name: "onwrite", BindableTo: fieldOnly, ValidKinds: []rdl.ValueKind{rdl.KindOnWriteType}, DynamicAssign: true,
			MutexGroup: "B", Doc: "write side effect"},

		{Name: "swwe", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "R", Doc: "software write enable, active high"},
		{Name: "swwel", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "R", Doc: "software write enable, active low"},
		{Name: "swmod", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "assert a strobe when software modifies the field"},
		{Name: "swacc", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "assert a strobe when software accesses the field"},
		{Name: "singlepulse", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "field clears itself one cycle after being written"},

		{Name: "we", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "C", Doc: "hardware write enable, active high"},
		{Name: "wel", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "C", Doc: "hardware write enable, active low"},
		{Name: "anded", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "output the AND reduction of the field"},
		{Name: "ored", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "output the OR reduction of the field"},
		{Name: "xored", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "output the XOR reduction of the field"},
		{Name: "hwclr", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "hardware clear"},
		{Name: "hwset", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "hardware set"},
		{Name: "hwenable", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "D", ValidateFunc: fieldRef, Doc: "bitwise hardware update enable"},
		{Name: "hwmask", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "D", ValidateFunc: fieldRef, Doc: "bitwise hardware update mask"},
		{Name: "next", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			ValidateFunc: fieldRef, Doc: "next-state value of the field"},
	}
}

func counterRules() []*Rule {
	return []*Rule{
		{Name: "counter", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "E", Doc: "field is a counter"},
		{Name: "incr", BindableTo: fieldOnly, ValidKinds: signalRefKind,
			DynamicAssign: true, ValidateFunc: notSelf, Doc: "increment trigger"},
		{Name: "decr", BindableTo: fieldOnly, ValidKinds: signalRefKind,
			DynamicAssign: true, ValidateFunc: notSelf, Doc: "decrement trigger"},
		{Name: "incrvalue", BindableTo: fieldOnly, ValidKinds: intOrSignalRef, DynamicAssign: true,
			MutexGroup: "F", ValidateFunc: fieldValue, Doc: "increment amount"},
		{Name: "decrvalue", BindableTo: fieldOnly, ValidKinds: intOrSignalRef, DynamicAssign: true,
			MutexGroup: "G", ValidateFunc: fieldValue, Doc: "decrement amount"},
		{Name: "incrwidth", BindableTo: fieldOnly, ValidKinds: intKind, DynamicAssign: true,
			MutexGroup: "F", ValidateFunc: notWiderThanField, Doc: "width of the external increment value"},
		{Name: "decrwidth", BindableTo: fieldOnly, ValidKinds: intKind, DynamicAssign: true,
			MutexGroup: "G", ValidateFunc: notWiderThanField, Doc: "width of the external decrement value"},

		{Name: "incrsaturate", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, MutexGroup: "incrsaturate alias", AliasOf: "incrsaturate", ValidateFunc: fieldValue,
			Doc: "counter saturates when incrementing"},
		{Name: "saturate", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, MutexGroup: "incrsaturate alias", AliasOf: "incrsaturate", DefaultFunc: aliasDefault, ValidateFunc: fieldValue,
			Doc: "alias of incrsaturate"},
		{Name: "incrthreshold", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, MutexGroup: "incrthreshold alias", AliasOf: "incrthreshold", ValidateFunc: fieldValue,
			Doc: "counter threshold when incrementing"},
		{Name: "threshold", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, MutexGroup: "incrthreshold alias", AliasOf: "incrthreshold", DefaultFunc: aliasDefault, ValidateFunc: fieldValue,
			Doc: "alias of incrthreshold"},
		{Name: "decrsaturate", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, ValidateFunc: fieldValue, Doc: "counter saturates when decrementing"},
		{Name: "decrthreshold", BindableTo: fieldOnly, ValidKinds: counterLimit, Default: rdl.Bool(false),
			DynamicAssign: true, ValidateFunc: fieldValue, Doc: "counter threshold when decrementing"},

		{Name: "overflow", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "assert a strobe on counter overflow"},
		{Name: "underflow", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			Doc: "assert a strobe on counter underflow"},
	}
}

func interruptRules() []*Rule {
	return []*Rule{
		{Name: "intr", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "E", Doc: "field is an interrupt"},
		{Name: "enable", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "J", ValidateFunc: fieldRef, Doc: "interrupt enable"},
		{Name: "mask", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "J", ValidateFunc: fieldRef, Doc: "interrupt mask"},
		{Name: "haltenable", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "K", ValidateFunc: fieldRef, Doc: "halt enable"},
		{Name: "haltmask", BindableTo: fieldOnly, ValidKinds: fieldRefKind, DynamicAssign: true,
			MutexGroup: "K", ValidateFunc: fieldRef, Doc: "halt mask"},
		{Name: "sticky", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "I", Doc: "multi-bit sticky interrupt"},
		{Name: "stickybit", BindableTo: fieldOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "I", Doc: "per-bit sticky interrupt"},
	}
}

func registerRules() []*Rule {
	return []*Rule{
		{Name: "regwidth", BindableTo: regOnly, ValidKinds: intKind, Default: rdl.Int(32),
			DefaultFunc: registerWidth, ValidateFunc: busWidth, Doc: "register width in bits"},
		{Name: "accesswidth", BindableTo: regOnly, ValidKinds: intKind, DynamicAssign: true,
			DefaultFunc: sameAs("regwidth"), ValidateFunc: all(busWidth, atMostRegwidth),
			Doc: "bus access width; defaults to regwidth"},
		{Name: "shared", BindableTo: regOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			Doc: "register is shared between address maps"},
	}
}

func blockRules() []*Rule {
	return []*Rule{
		{Name: "alignment", BindableTo: blocks, ValidKinds: intKind, ValidateFunc: all(positive, powerOfTwo),
			Doc: "address alignment of child instances"},
		{Name: "sharedextbus", BindableTo: blocks, ValidKinds: boolKind, Default: rdl.Bool(false),
			Doc: "external children share one bus"},
		{Name: "bigendian", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "L", Doc: "big-endian bus"},
		{Name: "littleendian", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false), DynamicAssign: true,
			MutexGroup: "L", Doc: "little-endian bus"},
		{Name: "addressing", BindableTo: mapOnly, ValidKinds: []rdl.ValueKind{rdl.KindAddressingType},
			Default: rdl.Addressing("regalign"), Doc: "address allocation mode"},
		{Name: "rsvdset", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			MutexGroup: "Q", Doc: "reserved bits read as one"},
		{Name: "rsvdsetX", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			MutexGroup: "Q", Doc: "reserved bits read as unknown"},
		{Name: "msb0", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			MutexGroup: "M", Opposite: "lsb0", DefaultFunc: pairedDefault, Doc: "bit 0 is the most significant bit"},
		{Name: "lsb0", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(true),
			MutexGroup: "M", Opposite: "msb0", DefaultFunc: pairedDefault, Doc: "bit 0 is the least significant bit"},
		{Name: "bridge", BindableTo: mapOnly, ValidKinds: boolKind, Default: rdl.Bool(false),
			Doc: "address map bridges several parent address maps"},
	}
}

func memRules() []*Rule {
	return []*Rule{
		{Name: "mementries", BindableTo: memOnly, ValidKinds: intKind, Default: rdl.Int(1), ValidateFunc: positive,
			Doc: "number of memory entries"},
		{Name: "memwidth", BindableTo: memOnly, ValidKinds: intKind, Default: rdl.Int(32), ValidateFunc: positive,
			Doc: "width of each memory entry"},
	}
}
