package engine

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// fileRun is the mutable state of one file's pass: the shared traversal
// cursor, per-rule contexts, the set of rules retired by a crash, and the
// raw emissions.
type fileRun struct {
	unit     *source.Unit
	trav     *rule.Traversal
	contexts map[string]*rule.Context
	disabled map[string]bool
	issues   []tt.Issue
}

func (e *Engine) dispatch(unit *source.Unit) []tt.Issue {
	run := &fileRun{
		unit:     unit,
		trav:     &rule.Traversal{},
		contexts: make(map[string]*rule.Context, len(e.sel.Units())),
		disabled: make(map[string]bool),
	}
	emit := func(issue tt.Issue) { run.issues = append(run.issues, issue) }
	for _, u := range e.sel.Units() {
		meta := u.Meta()
		run.contexts[meta.ID] = rule.NewContext(unit, meta, e.sel.SeverityFor(meta.ID), run.trav, emit)
	}

	if len(e.kinds) > 0 {
		insp := inspector.New([]*ast.File{unit.File})
		insp.WithStack(e.kinds, func(n ast.Node, push bool, stack []ast.Node) bool {
			if !push {
				return true
			}
			run.trav.Stack = stack
			for _, u := range e.table[reflect.TypeOf(n)] {
				run.check(u, n)
			}
			return true
		})
	}

	run.trav.Stack = nil
	for _, u := range e.sel.Units() {
		if f, ok := u.(rule.Finisher); ok {
			run.finish(u.Meta().ID, f)
		}
	}
	return run.issues
}

// check invokes one rule on one node. A panicking rule is retired for the
// remainder of the file; the crash surfaces as a rule-crash issue that
// neither configuration nor nolint can silence.
func (run *fileRun) check(u rule.Unit, node ast.Node) {
	id := u.Meta().ID
	if run.disabled[id] {
		return
	}
	defer run.contain(id, node)
	u.Check(run.contexts[id], node)
}

func (run *fileRun) finish(id string, f rule.Finisher) {
	if run.disabled[id] {
		return
	}
	defer run.contain(id, nil)
	f.Finish(run.contexts[id])
}

// contain is the shared deferred recovery for check and finish.
func (run *fileRun) contain(id string, node ast.Node) {
	r := recover()
	if r == nil {
		return
	}
	run.disabled[id] = true

	issue := tt.Issue{
		Rule:     rule.CrashRule,
		Severity: tt.SeverityError,
		Filename: run.unit.Path,
		Message:  fmt.Sprintf("rule %s panicked: %v", id, r),
		Note:     "the rule is disabled for the rest of this file",
		Start:    token.Position{Filename: run.unit.Path, Line: 1, Column: 1},
		End:      token.Position{Filename: run.unit.Path, Line: 1, Column: 1},
	}
	if node != nil {
		issue.Start = run.unit.Position(node.Pos())
		issue.End = run.unit.Position(node.End())
	}
	run.issues = append(run.issues, issue)
}
