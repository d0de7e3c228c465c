package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// UnusedVariable reports local variables that are never read. A variable
// that is only ever assigned counts as unused; parameters and package-level
// names are out of scope (other files may use them).
type UnusedVariable struct{}

func NewUnusedVariable() rule.Unit { return &UnusedVariable{} }

func (*UnusedVariable) Meta() rule.Meta {
	return rule.Meta{
		ID:       "unused-variable",
		Doc:      "local variable declared or assigned but never read",
		Severity: tt.SeverityWarning,
		Version:  1,
	}
}

// Kinds is empty: the verdict needs the whole file, so the rule runs
// entirely in Finish.
func (*UnusedVariable) Kinds() []ast.Node { return nil }

func (*UnusedVariable) Check(_ *rule.Context, _ ast.Node) {}

func (*UnusedVariable) Finish(ctx *rule.Context) {
	unit := ctx.Unit()
	if unit.Damaged() {
		return
	}
	fileScope := unit.Scopes.File
	unit.Scopes.Walk(func(s *source.Scope) {
		if s == fileScope {
			return
		}
		for _, b := range s.Bindings() {
			if b.Kind != source.BindVar || b.Ident == nil || b.Reads > 0 {
				continue
			}
			ctx.Reportf(b.Ident, "unused variable: %s", b.Name)
		}
	})
}
