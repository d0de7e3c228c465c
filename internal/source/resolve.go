package source

import (
	"go/ast"
	"go/token"
	"strings"
)

// annotate runs the semantic pass over a freshly parsed unit: it builds the
// scope tree, binds every name reference it can, and marks the rest as
// unresolved or unknown. It never fails; dynamic constructs and damaged
// trees degrade to "unknown", not errors.
func annotate(u *Unit) {
	table := &ScopeTable{byNode: make(map[ast.Node]*Scope)}
	table.Universe = newUniverse()
	table.Package = newScope(nil, table.Universe)
	table.File = newScope(u.File, table.Package)
	table.record(u.File, table.File)

	u.Scopes = table
	u.Uses = make(map[*ast.Ident]*Binding)
	u.Unresolved = make(map[*ast.Ident]bool)
	u.Unknown = make(map[*ast.Ident]bool)

	r := &resolver{unit: u, table: table}
	r.hoist()
	r.resolveDecls()
}

type labelFrame struct {
	labels  map[string]*Binding
	pending []*ast.Ident
}

type resolver struct {
	unit  *Unit
	table *ScopeTable

	// A dot import makes any free identifier potentially imported, so
	// unresolved names degrade to unknown instead of undefined.
	hasDotImport bool

	frames []*labelFrame
}

// hoist binds imports into the file scope and every top-level name into the
// package scope before any expression is resolved, making package-level
// references order-independent.
func (r *resolver) hoist() {
	for _, imp := range r.unit.File.Imports {
		r.bindImport(imp)
	}

	for _, decl := range r.unit.File.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil || d.Name == nil {
				continue // methods never bind package-level names
			}
			if d.Name.Name == "init" || d.Name.Name == "_" {
				continue
			}
			r.table.Package.Insert(&Binding{
				Name:  d.Name.Name,
				Kind:  BindFunc,
				Ident: d.Name,
			})
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					kind := BindVar
					if d.Tok == token.CONST {
						kind = BindConst
					}
					for _, name := range s.Names {
						r.declare(r.table.Package, name, kind, token.NoPos)
					}
				case *ast.TypeSpec:
					r.declare(r.table.Package, s.Name, BindType, token.NoPos)
				}
			}
		}
	}
}

func (r *resolver) bindImport(imp *ast.ImportSpec) {
	if imp.Name != nil {
		switch imp.Name.Name {
		case "_":
			return
		case ".":
			r.hasDotImport = true
			return
		}
		r.table.File.Insert(&Binding{Name: imp.Name.Name, Kind: BindImport, Ident: imp.Name})
		return
	}
	name := importedName(imp.Path.Value)
	if name == "" {
		return
	}
	r.table.File.Insert(&Binding{Name: name, Kind: BindImport})
}

// importedName guesses the package identifier from an import path. Without
// module resolution this is a heuristic; mismatches only soften undefined
// detection, never harden it.
func importedName(quoted string) string {
	path := strings.Trim(quoted, `"`)
	if path == "" {
		return ""
	}
	base := path[strings.LastIndexByte(path, '/')+1:]
	// Major version suffixes: msgpack/v5 -> msgpack, yaml.v3 -> yaml.
	if slash := strings.LastIndexByte(path, '/'); slash > 0 && len(base) > 1 && base[0] == 'v' &&
		strings.IndexFunc(base[1:], func(c rune) bool { return c < '0' || c > '9' }) < 0 {
		trimmed := path[:slash]
		base = trimmed[strings.LastIndexByte(trimmed, '/')+1:]
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func (r *resolver) resolveDecls() {
	for _, decl := range r.unit.File.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			r.resolveFunc(d, d.Type, d.Body, d.Recv, r.table.File)
		case *ast.GenDecl:
			r.resolveGenDecl(d, r.table.File, false)
		}
	}
}

// resolveGenDecl handles var/const/type/import declarations. When local is
// true the names are declared into scope with Go's block visibility rules;
// at package level the hoist pass already declared them.
func (r *resolver) resolveGenDecl(d *ast.GenDecl, scope *Scope, local bool) {
	switch d.Tok {
	case token.VAR, token.CONST:
		kind := BindVar
		if d.Tok == token.CONST {
			kind = BindConst
		}
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			r.resolveExpr(vs.Type, scope)
			for _, value := range vs.Values {
				r.resolveExpr(value, scope)
			}
			if local {
				for _, name := range vs.Names {
					r.declare(scope, name, kind, vs.End())
				}
			}
		}
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if local {
				// Visible from the identifier on, so local recursive
				// types resolve.
				r.declare(scope, ts.Name, BindType, ts.Name.End())
			}
			inner := scope
			if ts.TypeParams != nil {
				inner = newScope(ts, scope)
				r.table.record(ts, inner)
				r.bindTypeParams(ts.TypeParams, inner)
			}
			r.resolveExpr(ts.Type, inner)
		}
	}
}

// resolveFunc resolves a function declaration or literal: type parameters,
// receiver, signature, then the body in a single function scope (parameters
// live in the body block, per Go scoping).
func (r *resolver) resolveFunc(owner ast.Node, ftype *ast.FuncType, body *ast.BlockStmt, recv *ast.FieldList, outer *Scope) {
	fnScope := newScope(owner, outer)
	r.table.record(owner, fnScope)

	if ftype.TypeParams != nil {
		r.bindTypeParams(ftype.TypeParams, fnScope)
	}
	if recv != nil {
		for _, field := range recv.List {
			r.resolveExpr(field.Type, fnScope)
			for _, name := range field.Names {
				r.declare(fnScope, name, BindParam, token.NoPos)
			}
		}
	}
	r.bindFieldList(ftype.Params, fnScope)
	r.bindFieldList(ftype.Results, fnScope)

	if body == nil {
		return
	}
	r.frames = append(r.frames, &labelFrame{labels: make(map[string]*Binding)})
	for _, stmt := range body.List {
		r.resolveStmt(stmt, fnScope)
	}
	r.popLabelFrame()
}

func (r *resolver) bindTypeParams(params *ast.FieldList, scope *Scope) {
	// Names first: constraints may reference sibling type parameters.
	for _, field := range params.List {
		for _, name := range field.Names {
			r.declare(scope, name, BindType, token.NoPos)
		}
	}
	for _, field := range params.List {
		r.resolveExpr(field.Type, scope)
	}
}

func (r *resolver) bindFieldList(fields *ast.FieldList, scope *Scope) {
	if fields == nil {
		return
	}
	for _, field := range fields.List {
		r.resolveExpr(field.Type, scope)
	}
	for _, field := range fields.List {
		for _, name := range field.Names {
			r.declare(scope, name, BindParam, token.NoPos)
		}
	}
}

func (r *resolver) popLabelFrame() {
	frame := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	for _, ref := range frame.pending {
		if b, ok := frame.labels[ref.Name]; ok {
			r.unit.Uses[ref] = b
			b.Reads++
			continue
		}
		r.unit.Unresolved[ref] = true
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt, scope *Scope) {
	switch s := stmt.(type) {
	case nil:
		return
	case *ast.DeclStmt:
		if d, ok := s.Decl.(*ast.GenDecl); ok {
			r.resolveGenDecl(d, scope, true)
		}
	case *ast.ExprStmt:
		r.resolveExpr(s.X, scope)
	case *ast.SendStmt:
		r.resolveExpr(s.Chan, scope)
		r.resolveExpr(s.Value, scope)
	case *ast.IncDecStmt:
		r.resolveMutation(s.X, scope)
	case *ast.AssignStmt:
		r.resolveAssign(s, scope)
	case *ast.GoStmt:
		r.resolveExpr(s.Call, scope)
	case *ast.DeferStmt:
		r.resolveExpr(s.Call, scope)
	case *ast.ReturnStmt:
		for _, result := range s.Results {
			r.resolveExpr(result, scope)
		}
	case *ast.BranchStmt:
		if s.Label == nil {
			return
		}
		if len(r.frames) == 0 {
			r.unit.Unresolved[s.Label] = true
			return
		}
		frame := r.frames[len(r.frames)-1]
		frame.pending = append(frame.pending, s.Label)
	case *ast.LabeledStmt:
		if len(r.frames) > 0 && s.Label.Name != "_" {
			b := &Binding{Name: s.Label.Name, Kind: BindLabel, Ident: s.Label}
			r.frames[len(r.frames)-1].labels[s.Label.Name] = b
		}
		r.resolveStmt(s.Stmt, scope)
	case *ast.BlockStmt:
		block := newScope(s, scope)
		r.table.record(s, block)
		for _, inner := range s.List {
			r.resolveStmt(inner, block)
		}
	case *ast.IfStmt:
		ifScope := newScope(s, scope)
		r.table.record(s, ifScope)
		r.resolveStmt(s.Init, ifScope)
		r.resolveExpr(s.Cond, ifScope)
		r.resolveStmt(s.Body, ifScope)
		r.resolveStmt(s.Else, ifScope)
	case *ast.ForStmt:
		forScope := newScope(s, scope)
		r.table.record(s, forScope)
		r.resolveStmt(s.Init, forScope)
		r.resolveExpr(s.Cond, forScope)
		r.resolveStmt(s.Post, forScope)
		r.resolveStmt(s.Body, forScope)
	case *ast.RangeStmt:
		rangeScope := newScope(s, scope)
		r.table.record(s, rangeScope)
		r.resolveExpr(s.X, rangeScope)
		if s.Tok == token.DEFINE {
			r.defineRangeVar(s.Key, rangeScope)
			r.defineRangeVar(s.Value, rangeScope)
		} else {
			if s.Key != nil {
				r.resolveMutation(s.Key, rangeScope)
			}
			if s.Value != nil {
				r.resolveMutation(s.Value, rangeScope)
			}
		}
		r.resolveStmt(s.Body, rangeScope)
	case *ast.SwitchStmt:
		swScope := newScope(s, scope)
		r.table.record(s, swScope)
		r.resolveStmt(s.Init, swScope)
		r.resolveExpr(s.Tag, swScope)
		for _, clause := range s.Body.List {
			r.resolveCaseClause(clause, swScope)
		}
	case *ast.TypeSwitchStmt:
		swScope := newScope(s, scope)
		r.table.record(s, swScope)
		r.resolveStmt(s.Init, swScope)
		switch assign := s.Assign.(type) {
		case *ast.AssignStmt:
			for _, rhs := range assign.Rhs {
				r.resolveExpr(rhs, swScope)
			}
			// One binding shared by all clauses; precise per-clause
			// typing needs type information we deliberately run without.
			for _, lhs := range assign.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					r.declare(swScope, id, BindVar, token.NoPos)
				}
			}
		case *ast.ExprStmt:
			r.resolveExpr(assign.X, swScope)
		}
		for _, clause := range s.Body.List {
			r.resolveCaseClause(clause, swScope)
		}
	case *ast.SelectStmt:
		for _, clause := range s.Body.List {
			comm, ok := clause.(*ast.CommClause)
			if !ok {
				continue
			}
			commScope := newScope(comm, scope)
			r.table.record(comm, commScope)
			r.resolveStmt(comm.Comm, commScope)
			for _, inner := range comm.Body {
				r.resolveStmt(inner, commScope)
			}
		}
	}
}

func (r *resolver) resolveCaseClause(stmt ast.Stmt, parent *Scope) {
	clause, ok := stmt.(*ast.CaseClause)
	if !ok {
		return
	}
	caseScope := newScope(clause, parent)
	r.table.record(clause, caseScope)
	for _, expr := range clause.List {
		r.resolveExpr(expr, caseScope)
	}
	for _, inner := range clause.Body {
		r.resolveStmt(inner, caseScope)
	}
}

func (r *resolver) defineRangeVar(expr ast.Expr, scope *Scope) {
	if expr == nil {
		return
	}
	if id, ok := expr.(*ast.Ident); ok {
		r.declare(scope, id, BindVar, token.NoPos)
		return
	}
	r.resolveExpr(expr, scope)
}

func (r *resolver) resolveAssign(s *ast.AssignStmt, scope *Scope) {
	for _, rhs := range s.Rhs {
		r.resolveExpr(rhs, scope)
	}

	switch s.Tok {
	case token.DEFINE:
		for _, lhs := range s.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok {
				r.resolveExpr(lhs, scope)
				continue
			}
			if id.Name == "_" {
				continue
			}
			// := may redeclare a name from the same block; that is a
			// write, not a new binding.
			if existing, ok := scope.names[id.Name]; ok {
				r.unit.Uses[id] = existing
				existing.Writes++
				continue
			}
			r.declare(scope, id, BindVar, s.End())
		}
	case token.ASSIGN:
		for _, lhs := range s.Lhs {
			if id, ok := lhs.(*ast.Ident); ok {
				r.resolveWrite(id, scope)
				continue
			}
			r.resolveExpr(lhs, scope)
		}
	default:
		// Compound assignment reads and writes the target.
		for _, lhs := range s.Lhs {
			r.resolveMutation(lhs, scope)
		}
	}
}

// resolveMutation handles x++ and x += style targets: the name is both read
// and written.
func (r *resolver) resolveMutation(expr ast.Expr, scope *Scope) {
	if id, ok := expr.(*ast.Ident); ok {
		if id.Name == "_" {
			return
		}
		if b := scope.LookupAt(id.Name, id.Pos()); b != nil {
			r.unit.Uses[id] = b
			b.Reads++
			b.Writes++
			return
		}
		r.markFree(id)
		return
	}
	r.resolveExpr(expr, scope)
}

func (r *resolver) resolveWrite(id *ast.Ident, scope *Scope) {
	if id.Name == "_" {
		return
	}
	if b := scope.LookupAt(id.Name, id.Pos()); b != nil {
		r.unit.Uses[id] = b
		b.Writes++
		return
	}
	r.markFree(id)
}

func (r *resolver) resolveIdent(id *ast.Ident, scope *Scope) {
	if id.Name == "_" {
		return
	}
	if b := scope.LookupAt(id.Name, id.Pos()); b != nil {
		r.unit.Uses[id] = b
		b.Reads++
		return
	}
	r.markFree(id)
}

// markFree records an identifier with no binding. Under a dot import any
// free name may come from the imported package, so it is unknown rather
// than undefined.
func (r *resolver) markFree(id *ast.Ident) {
	if r.hasDotImport {
		r.unit.Unknown[id] = true
		return
	}
	r.unit.Unresolved[id] = true
}

func (r *resolver) resolveExpr(expr ast.Expr, scope *Scope) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.Ident:
		r.resolveIdent(e, scope)
	case *ast.BasicLit, *ast.BadExpr:
		return
	case *ast.ParenExpr:
		r.resolveExpr(e.X, scope)
	case *ast.SelectorExpr:
		r.resolveExpr(e.X, scope)
		// Member names are unknowable without full type information.
		r.unit.Unknown[e.Sel] = true
	case *ast.StarExpr:
		r.resolveExpr(e.X, scope)
	case *ast.UnaryExpr:
		r.resolveExpr(e.X, scope)
	case *ast.BinaryExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Y, scope)
	case *ast.CallExpr:
		r.resolveExpr(e.Fun, scope)
		for _, arg := range e.Args {
			r.resolveExpr(arg, scope)
		}
	case *ast.IndexExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Index, scope)
	case *ast.IndexListExpr:
		r.resolveExpr(e.X, scope)
		for _, index := range e.Indices {
			r.resolveExpr(index, scope)
		}
	case *ast.SliceExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Low, scope)
		r.resolveExpr(e.High, scope)
		r.resolveExpr(e.Max, scope)
	case *ast.TypeAssertExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Type, scope) // nil inside type switches
	case *ast.CompositeLit:
		r.resolveCompositeLit(e, scope)
	case *ast.KeyValueExpr:
		r.resolveExpr(e.Key, scope)
		r.resolveExpr(e.Value, scope)
	case *ast.FuncLit:
		r.resolveFunc(e, e.Type, e.Body, nil, scope)
	case *ast.Ellipsis:
		r.resolveExpr(e.Elt, scope)
	case *ast.ChanType:
		r.resolveExpr(e.Value, scope)
	case *ast.MapType:
		r.resolveExpr(e.Key, scope)
		r.resolveExpr(e.Value, scope)
	case *ast.ArrayType:
		if _, variadic := e.Len.(*ast.Ellipsis); !variadic {
			r.resolveExpr(e.Len, scope)
		}
		r.resolveExpr(e.Elt, scope)
	case *ast.StructType:
		for _, field := range e.Fields.List {
			// Field names are members, not scope bindings.
			r.resolveExpr(field.Type, scope)
		}
	case *ast.InterfaceType:
		for _, method := range e.Methods.List {
			r.resolveExpr(method.Type, scope)
		}
	case *ast.FuncType:
		r.resolveFieldTypes(e.Params, scope)
		r.resolveFieldTypes(e.Results, scope)
	}
}

func (r *resolver) resolveFieldTypes(fields *ast.FieldList, scope *Scope) {
	if fields == nil {
		return
	}
	for _, field := range fields.List {
		r.resolveExpr(field.Type, scope)
	}
}

// resolveCompositeLit distinguishes keyed literals. Struct field keys are
// member names, but without type information a named-type literal could be
// either a struct or a map; identifier keys there degrade to unknown.
func (r *resolver) resolveCompositeLit(lit *ast.CompositeLit, scope *Scope) {
	r.resolveExpr(lit.Type, scope)
	keysAreValues := false
	switch lit.Type.(type) {
	case *ast.MapType, *ast.ArrayType:
		keysAreValues = true
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			r.resolveExpr(elt, scope)
			continue
		}
		if id, isIdent := kv.Key.(*ast.Ident); isIdent && !keysAreValues {
			r.unit.Unknown[id] = true
		} else {
			r.resolveExpr(kv.Key, scope)
		}
		r.resolveExpr(kv.Value, scope)
	}
}

func (r *resolver) declare(scope *Scope, id *ast.Ident, kind BindKind, declEnd token.Pos) {
	if id == nil || id.Name == "_" {
		return
	}
	scope.Insert(&Binding{
		Name:    id.Name,
		Kind:    kind,
		Ident:   id,
		DeclEnd: declEnd,
	})
}
