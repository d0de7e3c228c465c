package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// ComparisonWithItself reports comparisons whose operands are textually
// identical, like x == x. Operands containing calls are skipped: two calls
// can legitimately disagree.
type ComparisonWithItself struct{}

func NewComparisonWithItself() rule.Unit { return &ComparisonWithItself{} }

func (*ComparisonWithItself) Meta() rule.Meta {
	return rule.Meta{
		ID:       "comparison-with-itself",
		Doc:      "both sides of a comparison are the same expression",
		Severity: tt.SeverityWarning,
		Version:  1,
	}
}

func (*ComparisonWithItself) Kinds() []ast.Node {
	return []ast.Node{(*ast.BinaryExpr)(nil)}
}

func (*ComparisonWithItself) Check(ctx *rule.Context, node ast.Node) {
	expr := node.(*ast.BinaryExpr)
	if !isComparisonOp(expr.Op) {
		return
	}
	if hasCall(expr.X) || hasCall(expr.Y) {
		return
	}
	left := ctx.Unit().Text(expr.X)
	if left == "" || left != ctx.Unit().Text(expr.Y) {
		return
	}
	ctx.Reportf(expr, "redundant comparison: %s", ctx.Unit().Text(expr))
}
