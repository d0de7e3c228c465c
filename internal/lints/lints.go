// Package lints holds the builtin rules. Each rule lives in its own file
// and registers through Default; nothing here is wired up implicitly.
package lints

import (
	"go/ast"
	"go/token"

	"github.com/gnoverse/glint/internal/rule"
)

// Default returns a fresh instance of every builtin rule in dispatch
// registration order.
func Default() []rule.Unit {
	return []rule.Unit{
		NewUndefinedName(),
		NewUnusedVariable(),
		NewComparisonWithItself(),
		NewComparisonOfConstants(),
		NewBoolComparison(),
		NewUnnecessaryElse(),
		NewEmptyIf(),
		NewCyclomaticComplexity(),
	}
}

// DefaultRegistry returns a registry preloaded with the builtin rules.
func DefaultRegistry() *rule.Registry {
	reg := rule.NewRegistry()
	reg.MustRegister(Default()...)
	return reg
}

func isComparisonOp(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ:
		return true
	}
	return false
}

// hasCall reports whether the expression contains any call; rules that
// reason about repeated evaluation must skip those.
func hasCall(expr ast.Expr) bool {
	found := false
	ast.Inspect(expr, func(n ast.Node) bool {
		if found {
			return false
		}
		if _, ok := n.(*ast.CallExpr); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

func unparen(expr ast.Expr) ast.Expr {
	for {
		p, ok := expr.(*ast.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.X
	}
}
