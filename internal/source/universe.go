package source

// Predeclared Go identifiers. Resolution that reaches the universe scope
// stops here; anything still missing is genuinely undefined.
var universeNames = []string{
	// types
	"any", "bool", "byte", "comparable", "complex64", "complex128", "error",
	"float32", "float64", "int", "int8", "int16", "int32", "int64", "rune",
	"string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	// constants
	"true", "false", "iota", "nil",
	// functions
	"append", "cap", "clear", "close", "complex", "copy", "delete", "imag",
	"len", "make", "max", "min", "new", "panic", "print", "println", "real",
	"recover",
}

func newUniverse() *Scope {
	s := newScope(nil, nil)
	for _, name := range universeNames {
		s.Insert(&Binding{Name: name, Kind: BindBuiltin})
	}
	return s
}
