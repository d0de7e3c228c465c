package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/glint/lint"
)

const cleanSource = `package sample

func ok() int {
	v := 2
	return v
}
`

const warnSource = `package sample

func leak() {
	tmp := 1
	_ = 0
}
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExitCodes(t *testing.T) {
	cleanDir := t.TempDir()
	writeSource(t, cleanDir, "clean.go", cleanSource)
	warnDir := t.TempDir()
	writeSource(t, warnDir, "warn.go", warnSource)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"clean run", []string{"--no-cache", cleanDir}, 0},
		{"warning fails by default", []string{"--no-cache", warnDir}, 1},
		{"fail-on error tolerates warnings", []string{"--no-cache", "--fail-on", "error", warnDir}, 0},
		{"unknown rule", []string{"--no-cache", "--disable", "no-such-rule", cleanDir}, 2},
		{"bad fail-on", []string{"--no-cache", "--fail-on", "fatal", cleanDir}, 2},
		{"missing path", []string{"--no-cache", filepath.Join(cleanDir, "missing")}, 2},
		{"missing explicit config", []string{"--no-cache", "--config", filepath.Join(cleanDir, "nope.yaml"), cleanDir}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, run(tc.args))
		})
	}
}

func TestTextOutputShowsSnippet(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "warn.go", warnSource)

	out, err := execute(t, "--no-cache", dir)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "warning: unused-variable")
	assert.Contains(t, out, "tmp := 1")
	assert.Contains(t, out, "1 warning found in 1 file")
}

func TestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "warn.go", warnSource)

	out, err := execute(t, "--no-cache", "--json", dir)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, `"rule": "unused-variable"`)
	assert.Contains(t, out, `"severity": "warning"`)
	assert.Contains(t, out, `"warnings": 1`)
}

func TestConfigFileDrivesRun(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "warn.go", warnSource)
	cfgPath := filepath.Join(dir, "glint.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("disable:\n  - unused-variable\n"), 0o644))

	out, err := execute(t, "--no-cache", "--config", cfgPath, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no issues found")
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "unused-variable")
	assert.Contains(t, out, "unnecessary-else")
	assert.Contains(t, out, "warning")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "glint dev\n", out)
}

func TestCacheCommands(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	srcDir := t.TempDir()
	writeSource(t, srcDir, "clean.go", cleanSource)

	out, err := execute(t, "cache", "dir", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, cacheDir+"\n", out)

	require.Equal(t, 0, run([]string{"--cache-dir", cacheDir, srcDir}))

	out, err = execute(t, "cache", "stats", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 1")

	out, err = execute(t, "cache", "clear", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "cache cleared")

	out, err = execute(t, "cache", "stats", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 0")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "0 B", humanBytes(0))
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KiB", humanBytes(1024))
	assert.Equal(t, "1.5 MiB", humanBytes(3*1024*1024/2))
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".glint.yaml")

	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration file created")

	cfg, err := lint.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.FailOn)

	_, err = execute(t, "init", path)
	require.Error(t, err)
	assert.True(t, lint.IsConfigError(err))
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--force", path)
	require.NoError(t, err)
}

func TestReportWrittenToFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "warn.go", warnSource)
	outPath := filepath.Join(t.TempDir(), "report.json")

	stdout, err := execute(t, "--no-cache", "--json", "--out", outPath, dir)
	require.ErrorIs(t, err, errFindings)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rule": "unused-variable"`)
}

func TestWatchRejectsOutFile(t *testing.T) {
	_, err := execute(t, "--watch", "--out", "report.txt", t.TempDir())
	require.Error(t, err)
	assert.True(t, lint.IsConfigError(err))
}
