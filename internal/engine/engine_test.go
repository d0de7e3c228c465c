package engine

import (
	"fmt"
	"go/ast"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	"github.com/gnoverse/glint/pkg/types"
)

// stubRule reports on every node of its kinds via the supplied check.
type stubRule struct {
	meta  rule.Meta
	kinds []ast.Node
	check func(ctx *rule.Context, node ast.Node)
}

func (s *stubRule) Meta() rule.Meta   { return s.meta }
func (s *stubRule) Kinds() []ast.Node { return s.kinds }

func (s *stubRule) Check(ctx *rule.Context, node ast.Node) {
	if s.check != nil {
		s.check(ctx, node)
	}
}

// finisherRule adds a Finish hook to a stubRule.
type finisherRule struct {
	stubRule
	onFinish func(ctx *rule.Context)
}

func (f *finisherRule) Finish(ctx *rule.Context) {
	if f.onFinish != nil {
		f.onFinish(ctx)
	}
}

func binaryCounter(id string) *stubRule {
	return &stubRule{
		meta:  rule.Meta{ID: id, Severity: types.SeverityWarning, Version: 1},
		kinds: []ast.Node{(*ast.BinaryExpr)(nil)},
		check: func(ctx *rule.Context, node ast.Node) {
			ctx.Report(node, "binary expression")
		},
	}
}

func selectionOf(t *testing.T, units ...rule.Unit) *rule.Selection {
	t.Helper()
	reg := rule.NewRegistry()
	reg.MustRegister(units...)
	sel, err := reg.Select(nil, nil, nil)
	require.NoError(t, err)
	return sel
}

func lintSource(t *testing.T, sel *rule.Selection, src string) []types.Issue {
	t.Helper()
	unit := source.Build("test.go", []byte(src))
	require.NotNil(t, unit.File)
	return New(sel).Lint(unit)
}

const twoComparisons = `package main

func f(a, b int) bool {
	x := a == 1
	y := b == 2
	return x && y
}
`

func TestDispatchByKind(t *testing.T) {
	t.Parallel()

	var idents, binaries int
	sel := selectionOf(t,
		&stubRule{
			meta:  rule.Meta{ID: "count-idents", Severity: types.SeverityNote, Version: 1},
			kinds: []ast.Node{(*ast.Ident)(nil)},
			check: func(_ *rule.Context, node ast.Node) {
				_ = node.(*ast.Ident) // dispatcher must never hand us anything else
				idents++
			},
		},
		&stubRule{
			meta:  rule.Meta{ID: "count-binaries", Severity: types.SeverityNote, Version: 1},
			kinds: []ast.Node{(*ast.BinaryExpr)(nil)},
			check: func(_ *rule.Context, node ast.Node) {
				_ = node.(*ast.BinaryExpr)
				binaries++
			},
		},
	)

	issues := lintSource(t, sel, twoComparisons)

	assert.Empty(t, issues)
	assert.Equal(t, 3, binaries, "a == 1, b == 2, x && y")
	assert.Positive(t, idents)
}

func TestTraversalStack(t *testing.T) {
	t.Parallel()

	var sawFileRoot, sawParent bool
	sel := selectionOf(t, &stubRule{
		meta:  rule.Meta{ID: "stack-probe", Severity: types.SeverityNote, Version: 1},
		kinds: []ast.Node{(*ast.BinaryExpr)(nil)},
		check: func(ctx *rule.Context, node ast.Node) {
			stack := ctx.Ancestors()
			if _, ok := stack[0].(*ast.File); ok {
				sawFileRoot = true
			}
			if ctx.Parent() != nil {
				sawParent = true
			}
			assert.Same(t, node, stack[len(stack)-1])
		},
	})

	lintSource(t, sel, twoComparisons)

	assert.True(t, sawFileRoot)
	assert.True(t, sawParent)
}

func TestCrashContainment(t *testing.T) {
	t.Parallel()

	crashing := &stubRule{
		meta:  rule.Meta{ID: "crashy", Severity: types.SeverityWarning, Version: 1},
		kinds: []ast.Node{(*ast.BinaryExpr)(nil)},
		check: func(_ *rule.Context, _ ast.Node) {
			panic("boom")
		},
	}
	sel := selectionOf(t, crashing, binaryCounter("steady"))
	eng := New(sel)

	lint := func() []types.Issue {
		unit := source.Build("test.go", []byte(twoComparisons))
		require.NotNil(t, unit.File)
		return eng.Lint(unit)
	}

	issues := lint()

	var crashes, steady, crashyReports int
	for _, issue := range issues {
		switch issue.Rule {
		case rule.CrashRule:
			crashes++
			assert.Equal(t, types.SeverityError, issue.Severity)
			assert.Contains(t, issue.Message, `rule crashy panicked: boom`)
		case "steady":
			steady++
		case "crashy":
			crashyReports++
		}
	}
	assert.Equal(t, 1, crashes, "one crash issue per rule per file")
	assert.Equal(t, 3, steady, "other rules keep running after a crash")
	assert.Zero(t, crashyReports)

	// Containment is per file: a fresh unit runs the rule again.
	again := lint()
	crashes = 0
	for _, issue := range again {
		if issue.Rule == rule.CrashRule {
			crashes++
		}
	}
	assert.Equal(t, 1, crashes)
}

func TestFinishHook(t *testing.T) {
	t.Parallel()

	finisher := &finisherRule{
		stubRule: stubRule{
			meta: rule.Meta{ID: "finish-probe", Severity: types.SeverityNote, Version: 1},
		},
		onFinish: func(ctx *rule.Context) {
			ctx.Report(ctx.Unit().File, "file visited")
		},
	}
	sel := selectionOf(t, finisher)

	issues := lintSource(t, sel, twoComparisons)

	require.Len(t, issues, 1)
	assert.Equal(t, "finish-probe", issues[0].Rule)
	assert.Equal(t, "file visited", issues[0].Message)
}

func TestCrashInFinish(t *testing.T) {
	t.Parallel()

	finisher := &finisherRule{
		stubRule: stubRule{
			meta: rule.Meta{ID: "finish-crash", Severity: types.SeverityNote, Version: 1},
		},
		onFinish: func(_ *rule.Context) { panic("late boom") },
	}
	sel := selectionOf(t, finisher)

	issues := lintSource(t, sel, twoComparisons)

	require.Len(t, issues, 1)
	assert.Equal(t, rule.CrashRule, issues[0].Rule)
	assert.Equal(t, 1, issues[0].Start.Line, "finish crashes anchor to the top of the file")
}

func TestSuppression(t *testing.T) {
	t.Parallel()

	src := `package main

func f(a, b int) bool {
	x := a == 1 //nolint:noisy
	y := b == 2
	return x && y //nolint
}
`
	sel := selectionOf(t, binaryCounter("noisy"))

	issues := lintSource(t, sel, src)

	require.Len(t, issues, 1)
	assert.Equal(t, 5, issues[0].Start.Line, "only the unsuppressed comparison remains")
}

func TestSuppressionCannotSilenceReservedRules(t *testing.T) {
	t.Parallel()

	src := `//nolint
package main

func broken() {
	x := 1
`
	sel := selectionOf(t, binaryCounter("noisy"))

	issues := lintSource(t, sel, src)

	require.NotEmpty(t, issues)
	for _, issue := range issues {
		assert.Equal(t, source.SyntaxRule, issue.Rule)
	}
}

func TestFinalizeDedupAndOrder(t *testing.T) {
	t.Parallel()

	doubler := &stubRule{
		meta:  rule.Meta{ID: "doubler", Severity: types.SeverityWarning, Version: 1},
		kinds: []ast.Node{(*ast.BinaryExpr)(nil)},
		check: func(ctx *rule.Context, node ast.Node) {
			ctx.Report(node, "seen")
			ctx.Report(node, "seen") // identical, must collapse
		},
	}
	sel := selectionOf(t, doubler)

	issues := lintSource(t, sel, twoComparisons)

	require.Len(t, issues, 3)
	for i := 1; i < len(issues); i++ {
		prev, cur := issues[i-1], issues[i]
		ordered := prev.Start.Line < cur.Start.Line ||
			(prev.Start.Line == cur.Start.Line && prev.Start.Column <= cur.Start.Column)
		assert.True(t, ordered, "issues must come out in position order")
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	sel := selectionOf(t, binaryCounter("noisy"), binaryCounter("also-noisy"))
	eng := New(sel)

	first := eng.Lint(source.Build("test.go", []byte(twoComparisons)))
	second := eng.Lint(source.Build("test.go", []byte(twoComparisons)))

	assert.Equal(t, first, second)
}

func TestSeverityOverrideApplied(t *testing.T) {
	t.Parallel()

	reg := rule.NewRegistry()
	reg.MustRegister(binaryCounter("tunable"))
	sel, err := reg.Select(nil, nil, map[string]types.Severity{
		"tunable": types.SeverityError,
	})
	require.NoError(t, err)

	issues := lintSource(t, sel, twoComparisons)

	require.NotEmpty(t, issues)
	for _, issue := range issues {
		assert.Equal(t, types.SeverityError, issue.Severity)
	}
}

func BenchmarkLint(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("package main\n\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "func f%d(a, b int) bool {\n\tx := a == %d\n\ty := b != %d\n\treturn x && y\n}\n\n", i, i, i)
	}
	unit := source.Build("bench.go", []byte(sb.String()))
	if unit.File == nil {
		b.Fatal("benchmark source failed to parse")
	}

	reg := rule.NewRegistry()
	reg.MustRegister(binaryCounter("noisy"))
	sel, err := reg.Select(nil, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	eng := New(sel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.Lint(unit)
	}
}
