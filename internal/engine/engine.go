// Package engine executes a rule selection over source units: a single
// inspector pass dispatching rules by node kind, panic containment per
// rule, and the finalize pipeline that applies suppression, dedups, and
// orders the result.
package engine

import (
	"go/ast"
	"reflect"

	"github.com/gnoverse/glint/internal/nolint"
	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// Engine applies one frozen selection to units. It is immutable after New
// and shared by every worker of a run.
type Engine struct {
	sel   *rule.Selection
	table map[reflect.Type][]rule.Unit
	kinds []ast.Node
}

// New builds the dispatch table: each rule is bucketed under the concrete
// node types it subscribes to, keeping selection order within a bucket.
func New(sel *rule.Selection) *Engine {
	e := &Engine{
		sel:   sel,
		table: make(map[reflect.Type][]rule.Unit),
	}
	for _, u := range sel.Units() {
		for _, proto := range u.Kinds() {
			typ := reflect.TypeOf(proto)
			if _, seen := e.table[typ]; !seen {
				e.kinds = append(e.kinds, proto)
			}
			e.table[typ] = append(e.table[typ], u)
		}
	}
	return e
}

// Selection returns the selection this engine runs.
func (e *Engine) Selection() *rule.Selection { return e.sel }

// Lint runs the full pipeline over one unit and returns its finalized
// issues. Safe for concurrent use with distinct units.
func (e *Engine) Lint(unit *source.Unit) []tt.Issue {
	raw := append([]tt.Issue(nil), unit.ParseIssues...)
	if !unit.Broken() {
		raw = append(raw, e.dispatch(unit)...)
	}
	return finalize(unit, raw)
}

// finalize turns raw emissions into the per-file verdict: nolint spans
// drop what they cover, duplicates collapse, and the rest sorts into
// position order. Reserved rules survive suppression so broken parses and
// crashed rules always stay visible.
func finalize(unit *source.Unit, raw []tt.Issue) []tt.Issue {
	sup := nolint.Parse(unit)
	kept := make([]tt.Issue, 0, len(raw))
	for _, issue := range raw {
		if !reservedRule(issue.Rule) && sup.Suppressed(issue) {
			continue
		}
		kept = append(kept, issue)
	}
	kept = tt.DedupIssues(kept)
	tt.SortIssues(kept)
	return kept
}

func reservedRule(id string) bool {
	return id == source.SyntaxRule || id == rule.CrashRule
}
