package lints

import (
	"fmt"
	"go/ast"

	"github.com/fzipp/gocyclo"

	"github.com/gnoverse/glint/internal/rule"
	tt "github.com/gnoverse/glint/pkg/types"
)

// defaultComplexityThreshold matches the limit gocyclo itself recommends.
const defaultComplexityThreshold = 10

// CyclomaticComplexity reports functions whose decision-point count exceeds
// the threshold. Off by default; teams opt in through the enable list.
type CyclomaticComplexity struct {
	threshold int
}

func NewCyclomaticComplexity() rule.Unit {
	return &CyclomaticComplexity{threshold: defaultComplexityThreshold}
}

func (*CyclomaticComplexity) Meta() rule.Meta {
	return rule.Meta{
		ID:       "cyclomatic-complexity",
		Doc:      "function with cyclomatic complexity above the threshold",
		Severity: tt.SeverityOff,
		Version:  1,
	}
}

// Kinds is empty: gocyclo measures whole functions, so the rule runs in
// Finish over the file.
func (*CyclomaticComplexity) Kinds() []ast.Node { return nil }

func (*CyclomaticComplexity) Check(_ *rule.Context, _ ast.Node) {}

func (c *CyclomaticComplexity) Finish(ctx *rule.Context) {
	unit := ctx.Unit()
	for _, stat := range gocyclo.AnalyzeASTFile(unit.File, unit.Fset, nil) {
		if stat.Complexity <= c.threshold {
			continue
		}
		// gocyclo reports only the start of the function.
		ctx.ReportIssue(tt.Issue{
			Message: fmt.Sprintf("function %s has a cyclomatic complexity of %d (threshold %d)",
				stat.FuncName, stat.Complexity, c.threshold),
			Suggestion: "split the function or simplify its branching",
			Start:      stat.Pos,
			End:        stat.Pos,
		})
	}
}
