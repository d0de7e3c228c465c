package source

import (
	"go/ast"
	"go/token"
)

// BindKind classifies what a name is bound to.
type BindKind uint8

const (
	BindVar BindKind = iota
	BindConst
	BindType
	BindFunc
	BindParam
	BindImport
	BindLabel
	BindBuiltin
)

func (k BindKind) String() string {
	switch k {
	case BindVar:
		return "var"
	case BindConst:
		return "const"
	case BindType:
		return "type"
	case BindFunc:
		return "func"
	case BindParam:
		return "param"
	case BindImport:
		return "import"
	case BindLabel:
		return "label"
	case BindBuiltin:
		return "builtin"
	}
	return "unknown"
}

// Binding records one declared name. Reads and Writes are filled by the
// resolver; a local variable with zero reads is the raw material for
// unused-variable style checks.
type Binding struct {
	Name  string
	Kind  BindKind
	Ident *ast.Ident // declaring identifier; nil for builtins
	Scope *Scope

	// DeclEnd is where the name becomes visible inside block scopes
	// (Go names declared in a block are visible only after the end of
	// their declaration). NoPos means visible throughout the scope, as
	// for package-level names and parameters.
	DeclEnd token.Pos

	Reads  int
	Writes int
}

// Pos returns the declaration position, or token.NoPos for builtins.
func (b *Binding) Pos() token.Pos {
	if b.Ident == nil {
		return token.NoPos
	}
	return b.Ident.Pos()
}

// Scope is one lexical block. Parent links form the chain walked during
// resolution; they are traversal-only and never own their targets.
type Scope struct {
	Owner    ast.Node // node that introduced the scope; nil for universe
	Parent   *Scope
	Children []*Scope

	names map[string]*Binding
	order []*Binding
}

func newScope(owner ast.Node, parent *Scope) *Scope {
	s := &Scope{Owner: owner, Parent: parent, names: make(map[string]*Binding)}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Insert declares a name in this scope. Redeclaration replaces the lookup
// entry but keeps the earlier binding in declaration order: broken input is
// tolerated, never fatal.
func (s *Scope) Insert(b *Binding) {
	b.Scope = s
	s.names[b.Name] = b
	s.order = append(s.order, b)
}

// Bindings returns the scope's bindings in declaration order.
func (s *Scope) Bindings() []*Binding {
	return s.order
}

// LookupAt resolves name as seen from pos, walking outward through the
// chain. A block-level binding is skipped when pos precedes its DeclEnd,
// which is how `var x = x` picks up the outer x.
func (s *Scope) LookupAt(name string, pos token.Pos) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.names[name]; ok {
			if b.DeclEnd == token.NoPos || !pos.IsValid() || pos >= b.DeclEnd {
				return b
			}
		}
	}
	return nil
}

// Lookup resolves name ignoring position rules.
func (s *Scope) Lookup(name string) *Binding {
	return s.LookupAt(name, token.NoPos)
}

// ScopeTable is the semantic annotation of one unit: the scope tree plus an
// index from scope-owning nodes to their scopes.
type ScopeTable struct {
	Universe *Scope
	Package  *Scope
	File     *Scope

	byNode map[ast.Node]*Scope
}

// At returns the scope introduced by node, or nil when node opens no scope.
func (t *ScopeTable) At(node ast.Node) *Scope {
	return t.byNode[node]
}

// Walk visits every scope from the file scope down, parents before children.
func (t *ScopeTable) Walk(fn func(*Scope)) {
	var visit func(*Scope)
	visit = func(s *Scope) {
		fn(s)
		for _, child := range s.Children {
			visit(child)
		}
	}
	if t.File != nil {
		visit(t.File)
	}
}

func (t *ScopeTable) record(node ast.Node, s *Scope) {
	t.byNode[node] = s
}
