package lints

import (
	"go/ast"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// UnnecessaryElse reports else blocks following an if body that ends in a
// return. The else can be removed and its body flattened, which reads
// better and drops an indent level.
type UnnecessaryElse struct{}

func NewUnnecessaryElse() rule.Unit { return &UnnecessaryElse{} }

func (*UnnecessaryElse) Meta() rule.Meta {
	return rule.Meta{
		ID:       "unnecessary-else",
		Doc:      "else block after an if body that ends in return",
		Severity: tt.SeverityNote,
		Version:  1,
	}
}

func (*UnnecessaryElse) Kinds() []ast.Node {
	return []ast.Node{(*ast.IfStmt)(nil)}
}

func (*UnnecessaryElse) Check(ctx *rule.Context, node ast.Node) {
	ifStmt := node.(*ast.IfStmt)
	if ifStmt.Else == nil || len(ifStmt.Body.List) == 0 {
		return
	}
	last := ifStmt.Body.List[len(ifStmt.Body.List)-1]
	if _, isReturn := last.(*ast.ReturnStmt); !isReturn {
		return
	}
	ctx.Report(ifStmt.Else, "unnecessary else block")
}
