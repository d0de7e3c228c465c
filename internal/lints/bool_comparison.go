package lints

import (
	"go/ast"
	"go/token"

	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// BoolComparison reports equality comparisons against the bool literals:
// x == true says no more than x, and x == false is a spelled-out negation.
// Shadowed true/false identifiers are left alone.
type BoolComparison struct{}

func NewBoolComparison() rule.Unit { return &BoolComparison{} }

func (*BoolComparison) Meta() rule.Meta {
	return rule.Meta{
		ID:       "bool-comparison",
		Doc:      "comparison against the constants true or false",
		Severity: tt.SeverityNote,
		Version:  1,
	}
}

func (*BoolComparison) Kinds() []ast.Node {
	return []ast.Node{(*ast.BinaryExpr)(nil)}
}

func (r *BoolComparison) Check(ctx *rule.Context, node ast.Node) {
	expr := node.(*ast.BinaryExpr)
	if expr.Op != token.EQL && expr.Op != token.NEQ {
		return
	}

	lit, other := r.boolOperand(ctx, expr.X), expr.Y
	if lit == nil {
		lit, other = r.boolOperand(ctx, expr.Y), expr.X
	}
	if lit == nil {
		return
	}

	issue := ctx.Unit().SpanIssue("", tt.SeverityOff, expr, "redundant comparison with "+lit.Name)
	if r.boolOperand(ctx, other) == nil {
		issue.Suggestion = r.simplified(ctx, expr, lit, other)
	}
	ctx.ReportIssue(issue)
}

// boolOperand returns the operand as the builtin true or false identifier,
// or nil when it is anything else.
func (*BoolComparison) boolOperand(ctx *rule.Context, expr ast.Expr) *ast.Ident {
	id, ok := unparen(expr).(*ast.Ident)
	if !ok || (id.Name != "true" && id.Name != "false") {
		return nil
	}
	if b := ctx.BindingOf(id); b == nil || b.Kind != source.BindBuiltin {
		return nil
	}
	return id
}

// simplified renders the comparison without the literal: x == true becomes
// x, x == false becomes !x.
func (*BoolComparison) simplified(ctx *rule.Context, expr *ast.BinaryExpr, lit *ast.Ident, other ast.Expr) string {
	text := ctx.Unit().Text(other)
	if text == "" {
		return ""
	}
	negate := (expr.Op == token.EQL) == (lit.Name == "false")
	if !negate {
		return text
	}
	// Parenthesized operands already carry their parens in the text.
	if _, compound := other.(*ast.BinaryExpr); compound {
		return "!(" + text + ")"
	}
	return "!" + text
}
