package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// ComparisonOfConstants reports comparisons between two literals, which
// always evaluate to the same value and usually point at a typo or a
// leftover from debugging.
type ComparisonOfConstants struct{}

func NewComparisonOfConstants() rule.Unit { return &ComparisonOfConstants{} }

func (*ComparisonOfConstants) Meta() rule.Meta {
	return rule.Meta{
		ID:       "comparison-of-constants",
		Doc:      "comparison between two constant literals",
		Severity: tt.SeverityNote,
		Version:  1,
	}
}

func (*ComparisonOfConstants) Kinds() []ast.Node {
	return []ast.Node{(*ast.BinaryExpr)(nil)}
}

func (*ComparisonOfConstants) Check(ctx *rule.Context, node ast.Node) {
	expr := node.(*ast.BinaryExpr)
	if !isComparisonOp(expr.Op) {
		return
	}
	if _, ok := unparen(expr.X).(*ast.BasicLit); !ok {
		return
	}
	if _, ok := unparen(expr.Y).(*ast.BasicLit); !ok {
		return
	}
	ctx.Reportf(expr, "comparison between constants: %s always has the same result", ctx.Unit().Text(expr))
}
