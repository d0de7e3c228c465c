package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// EmptyIf reports if statements with an empty body and empty else blocks.
// The condition may still have side effects, so the statement is flagged
// rather than declared removable.
type EmptyIf struct{}

func NewEmptyIf() rule.Unit { return &EmptyIf{} }

func (*EmptyIf) Meta() rule.Meta {
	return rule.Meta{
		ID:       "empty-if",
		Doc:      "if statement with an empty branch",
		Severity: tt.SeverityWarning,
		Version:  1,
	}
}

func (*EmptyIf) Kinds() []ast.Node {
	return []ast.Node{(*ast.IfStmt)(nil)}
}

func (*EmptyIf) Check(ctx *rule.Context, node ast.Node) {
	ifStmt := node.(*ast.IfStmt)
	if len(ifStmt.Body.List) == 0 {
		ctx.Report(ifStmt, "empty if body")
	}
	if block, ok := ifStmt.Else.(*ast.BlockStmt); ok && len(block.List) == 0 {
		ctx.Report(block, "empty else block")
	}
}
