package main

import "errors"

// errDuplicateDefinition is returned by declareGlobal when name already
// has a live, non-shadowable binding; callers attach line/name context.
var errDuplicateDefinition = errors.New("duplicate definition")

// symClass classifies a symbol table entry (spec.md §3 "Symbol table
// entry").
type symClass int

const (
	symUnresolved symClass = iota // no current binding (never referenced, or shadow restored)
	symGlobal
	symLocal
	symFunction
	symSystemCall
	symEnumerator
)

func (c symClass) String() string {
	switch c {
	case symGlobal:
		return "global"
	case symLocal:
		return "local"
	case symFunction:
		return "function"
	case symSystemCall:
		return "syscall"
	case symEnumerator:
		return "enumerator"
	default:
		return "unresolved"
	}
}

// symbol is one entry in the flat symbol table (spec.md §4.2). value's
// meaning depends on class: data-segment offset for Global, BP-relative
// frame offset for Local, text-segment entry offset for Function, opcode
// for SystemCall, constant for Enumerator.
type symbol struct {
	name  string
	class symClass
	typ   typeCode
	value int32

	// shadow holds the (class, type, value) triple this entry had before
	// being re-bound as a function parameter or local, so that
	// unshadowFunctionLocals can restore it. shadowed is false outside of
	// a function body currently being parsed.
	shadowed    bool
	shadowClass symClass
	shadowType  typeCode
	shadowValue int32
}

// symtab is the compiler's flat, linear-scan symbol table (spec.md §4.2).
// Lookup is linear by name; shadowing is save/restore rather than scoped
// nesting, mirroring the reference C4 design and REDESIGN FLAGS' note that
// the public contract (flat table, shadow-and-restore) is unchanged even
// though an implementation could instead use a scope stack.
type symtab struct {
	entries []*symbol
}

// lookup returns the entry for name, or nil if there is none with a
// current binding. A symUnresolved entry (a name that was shadowed and
// then restored, or never bound) is treated as not found.
func (st *symtab) lookup(name string) *symbol {
	sym := st.find(name)
	if sym == nil || sym.class == symUnresolved {
		return nil
	}
	return sym
}

// find returns the raw entry for name regardless of class, or nil.
func (st *symtab) find(name string) *symbol {
	for _, sym := range st.entries {
		if sym.name == name {
			return sym
		}
	}
	return nil
}

// declareGlobal installs a non-shadowable binding (global, function,
// enumerator, or system call). It is an error to redeclare a name that
// already has a live binding of this kind (spec.md §7 ParseError,
// "duplicate definition of a non-shadowable name").
func (st *symtab) declareGlobal(name string, class symClass, typ typeCode, value int32) (*symbol, error) {
	if sym := st.find(name); sym != nil {
		if sym.class != symUnresolved {
			return nil, errDuplicateDefinition
		}
		sym.class, sym.typ, sym.value = class, typ, value
		return sym, nil
	}
	sym := &symbol{name: name, class: class, typ: typ, value: value}
	st.entries = append(st.entries, sym)
	return sym, nil
}

// declareLocal binds name as a function parameter or local, shadowing
// any existing binding (global, or an outer declaration of the same
// name) until unshadowFunctionLocals restores it.
func (st *symtab) declareLocal(name string, typ typeCode, value int32) *symbol {
	sym := st.find(name)
	if sym == nil {
		sym = &symbol{name: name}
		st.entries = append(st.entries, sym)
	}
	sym.shadowClass, sym.shadowType, sym.shadowValue = sym.class, sym.typ, sym.value
	sym.shadowed = true
	sym.class, sym.typ, sym.value = symLocal, typ, value
	return sym
}

// unshadowFunctionLocals restores every shadowed entry's prior binding,
// clearing the shadow. Called once, at the end of parsing a function
// body (spec.md §4.2, §4.3 "On function exit, the parser restores
// shadowed globals").
func (st *symtab) unshadowFunctionLocals() {
	for _, sym := range st.entries {
		if sym.shadowed {
			sym.class, sym.typ, sym.value = sym.shadowClass, sym.shadowType, sym.shadowValue
			sym.shadowed = false
			sym.shadowClass, sym.shadowType, sym.shadowValue = 0, 0, 0
		}
	}
}

// declareEnum walks an `enum { a, b = 3, c }` member list, installing
// each identifier as a symEnumerator with a running integer value that
// starts at 0 or at an explicit `= literal` (spec.md §4.2).
func (st *symtab) declareEnum(names []string, values []int32) error {
	for i, name := range names {
		if _, err := st.declareGlobal(name, symEnumerator, typeInt, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// systemPrimitives are pre-installed before parsing begins (spec.md
// §4.2), each bound to the opcode implementing it in the VM.
var systemPrimitives = []struct {
	name string
	op   opcode
}{
	{"printf", opPrintf},
	{"malloc", opMalloc},
	{"memset", opMemset},
	{"memcmp", opMemcmp},
	{"open", opOpen},
	{"read", opRead},
	{"close", opClose},
	{"exit", opExit},
}

func (st *symtab) declareSystemPrimitives() {
	for _, p := range systemPrimitives {
		sym := &symbol{name: p.name, class: symSystemCall, typ: typeInt, value: int32(p.op)}
		st.entries = append(st.entries, sym)
	}
}
