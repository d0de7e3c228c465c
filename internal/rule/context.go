package rule

import (
	"fmt"
	"go/ast"

	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// Traversal is the dispatcher-owned cursor over one unit's tree. All rule
// contexts of a file share one traversal; only the dispatcher mutates it.
type Traversal struct {
	// Stack is the ancestor chain of the node being visited, outermost
	// first, the current node last. Rules must not retain it.
	Stack []ast.Node
}

// Context is the view one rule gets of the file under analysis. It carries
// the resolved source model, the shared traversal cursor, and the reporting
// sink tagged with the rule's identity and effective severity.
type Context struct {
	unit     *source.Unit
	meta     Meta
	severity tt.Severity
	trav     *Traversal
	emit     func(tt.Issue)
	memo     map[string]any
}

// NewContext builds the context a dispatcher hands to one rule for one
// file. Emit receives every issue the rule reports.
func NewContext(unit *source.Unit, meta Meta, severity tt.Severity, trav *Traversal, emit func(tt.Issue)) *Context {
	return &Context{
		unit:     unit,
		meta:     meta,
		severity: severity,
		trav:     trav,
		emit:     emit,
	}
}

// Unit returns the file under analysis.
func (c *Context) Unit() *source.Unit { return c.unit }

// Meta returns the metadata of the rule this context belongs to.
func (c *Context) Meta() Meta { return c.meta }

// Severity is the effective severity for this rule in this run, with
// configuration overrides already applied.
func (c *Context) Severity() tt.Severity { return c.severity }

// Parent returns the immediate ancestor of the node being visited, or nil
// at the top of the file.
func (c *Context) Parent() ast.Node {
	if len(c.trav.Stack) < 2 {
		return nil
	}
	return c.trav.Stack[len(c.trav.Stack)-2]
}

// Ancestors returns the ancestor chain, outermost first, current node
// last. The slice is reused between visits and must not be retained.
func (c *Context) Ancestors() []ast.Node { return c.trav.Stack }

// Scope returns the innermost scope at the current node, derived from the
// ancestor chain. Outside a traversal it is the file scope.
func (c *Context) Scope() *source.Scope {
	for i := len(c.trav.Stack) - 1; i >= 0; i-- {
		if sc := c.unit.Scopes.At(c.trav.Stack[i]); sc != nil {
			return sc
		}
	}
	return c.unit.Scopes.File
}

// BindingOf returns the binding an identifier resolved to, or nil.
func (c *Context) BindingOf(id *ast.Ident) *source.Binding {
	return c.unit.Uses[id]
}

// IsUndefined reports whether an identifier resolved to nothing at all.
// Identifiers the resolver marked unknown (selector members, dot imports)
// are not undefined.
func (c *Context) IsUndefined(id *ast.Ident) bool {
	return c.unit.Unresolved[id]
}

// IsUnknown reports whether resolution gave up on the identifier.
func (c *Context) IsUnknown(id *ast.Ident) bool {
	return c.unit.Unknown[id]
}

// Memo is per-rule, per-file scratch space, allocated on first use and
// discarded with the file.
func (c *Context) Memo() map[string]any {
	if c.memo == nil {
		c.memo = make(map[string]any)
	}
	return c.memo
}

// Report emits an issue spanning node with this rule's ID and severity.
func (c *Context) Report(node ast.Node, message string) {
	c.emit(c.unit.SpanIssue(c.meta.ID, c.severity, node, message))
}

// Reportf is Report with a format string.
func (c *Context) Reportf(node ast.Node, format string, args ...any) {
	c.Report(node, fmt.Sprintf(format, args...))
}

// ReportIssue emits a fully built issue for rules that need a custom span,
// suggestion, or note. Rule and severity are overwritten so a rule can
// never impersonate another.
func (c *Context) ReportIssue(issue tt.Issue) {
	issue.Rule = c.meta.ID
	issue.Severity = c.severity
	if issue.Filename == "" {
		issue.Filename = c.unit.Path
	}
	c.emit(issue)
}
