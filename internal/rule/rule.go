// Package rule defines the contract between the analysis engine and
// individual lint rules: rule metadata, the per-file context rules report
// through, and the registry that turns configuration into an ordered,
// fingerprinted selection.
package rule

import (
	"go/ast"

	tt "github.com/gnoverse/glint/pkg/types"
)

// CrashRule is the reserved rule ID used when a rule panics. It cannot be
// registered, disabled, or suppressed by configuration, so a crashing rule
// is always visible in the report.
const CrashRule = "rule-crash"

// Meta describes a rule's identity and defaults. IDs are lowercase words
// joined by hyphens and stay stable across releases; Version is bumped
// whenever the rule's behavior changes so cached results from older
// versions are discarded.
type Meta struct {
	ID       string
	Doc      string
	Severity tt.Severity
	Version  int

	// Priority orders rules that subscribe to the same node kind. Lower
	// runs first; ties fall back to registration order.
	Priority int
}

// Unit is one executable lint rule. Implementations must be stateless
// across files: the same Unit value is invoked for many files, possibly
// concurrently, and all per-file state belongs in the Context memo.
type Unit interface {
	Meta() Meta

	// Kinds returns prototype nodes for the kinds this rule wants, in the
	// inspector style: []ast.Node{(*ast.BinaryExpr)(nil)}. An empty slice
	// means the rule only uses the Finish hook.
	Kinds() []ast.Node

	// Check is invoked once per matching node during the single pass over
	// a file. Check must not retain node or ctx.
	Check(ctx *Context, node ast.Node)
}

// Finisher is implemented by rules that need a hook after the pass over a
// file completes, for whole-file verdicts such as unused bindings.
type Finisher interface {
	Finish(ctx *Context)
}
