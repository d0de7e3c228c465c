package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// UndefinedName reports identifiers that no visible declaration binds.
// Resolution is deliberately forgiving: selector members, dot imports, and
// struct literal keys never reach this rule, so a report here means the
// name is missing from every enclosing scope.
type UndefinedName struct{}

func NewUndefinedName() rule.Unit { return &UndefinedName{} }

func (*UndefinedName) Meta() rule.Meta {
	return rule.Meta{
		ID:       "undefined-name",
		Doc:      "use of a name that no visible declaration binds",
		Severity: tt.SeverityError,
		Version:  1,
	}
}

func (*UndefinedName) Kinds() []ast.Node {
	return []ast.Node{(*ast.Ident)(nil)}
}

func (*UndefinedName) Check(ctx *rule.Context, node ast.Node) {
	// Resolution facts are unreliable in a damaged tree; the syntax
	// errors already tell the story.
	if ctx.Unit().Damaged() {
		return
	}
	id := node.(*ast.Ident)
	if !ctx.IsUndefined(id) {
		return
	}
	ctx.Reportf(id, "undefined: %s", id.Name)
}
