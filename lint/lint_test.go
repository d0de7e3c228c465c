package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/glint/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRunner(t *testing.T, cfg Config, opts ...Option) *Runner {
	t.Helper()
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	}
	runner, err := NewRunner(cfg, opts...)
	require.NoError(t, err)
	return runner
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, ".glint.yaml", `
enable:
  - empty-if
disable:
  - unnecessary-else
severity:
  bool-comparison: warning
fail-on: error
jobs: 4
exclude:
  - "*_gen.go"
no-cache: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty-if"}, cfg.Enable)
	assert.Equal(t, []string{"unnecessary-else"}, cfg.Disable)
	assert.Equal(t, types.SeverityWarning, cfg.Severity["bool-comparison"])
	assert.Equal(t, "error", cfg.FailOn)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, []string{"*_gen.go"}, cfg.Exclude)
	assert.True(t, cfg.NoCache)
}

func TestLoadConfigMissingFileIsDefault(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), ".glint.yaml", "enabled-rules: [foo]\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoadConfigEmptyFile(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), ".glint.yaml", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestNewRunnerValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "unknown rule in disable",
			cfg:     Config{Disable: []string{"no-such-rule"}, NoCache: true},
			wantErr: "unknown rule",
		},
		{
			name:    "unknown rule in severity override",
			cfg:     Config{Severity: map[string]types.Severity{"bogus": types.SeverityError}, NoCache: true},
			wantErr: "unknown rule",
		},
		{
			name:    "rule both enabled and disabled",
			cfg:     Config{Enable: []string{"empty-if"}, Disable: []string{"empty-if"}, NoCache: true},
			wantErr: "both enabled and disabled",
		},
		{
			name:    "bad fail-on",
			cfg:     Config{FailOn: "fatal", NoCache: true},
			wantErr: "fail-on",
		},
		{
			name:    "fail-on off",
			cfg:     Config{FailOn: "off", NoCache: true},
			wantErr: "fail-on",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRunner(tc.cfg)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t, Config{NoCache: true})

	assert.Equal(t, types.SeverityWarning, runner.FailOn())
	assert.Greater(t, runner.jobs, 0)
	assert.Nil(t, runner.Cache())
	assert.True(t, runner.Selection().Enabled("unused-variable"))
}

func TestRunSource(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t, Config{NoCache: true})

	issues := runner.RunSource("", []byte(`package main

func f() int {
	return undefinedThing
}
`))
	require.Len(t, issues, 1)
	assert.Equal(t, "undefined-name", issues[0].Rule)
	assert.Equal(t, "source.go", issues[0].Start.Filename)
}

func TestExpandDiscovery(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	keepGo := writeFile(t, dir, "a.go", "package a\n")
	keepGno := writeFile(t, dir, "realm/b.gno", "package b\n")
	nested := writeFile(t, dir, "sub/deep/c.go", "package c\n")
	writeFile(t, dir, "README.md", "readme\n")
	writeFile(t, dir, "gen/d_gen.go", "package d\n")

	runner := newTestRunner(t, Config{NoCache: true, Exclude: []string{"*_gen.go"}})

	files, err := runner.expand([]string{dir, keepGo})
	require.NoError(t, err)
	assert.Equal(t, []string{keepGo, keepGno, nested}, files)
}

func TestExpandExcludesDirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	keep := writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "testdata/skip.go", "package skip\n")

	runner := newTestRunner(t, Config{NoCache: true, Exclude: []string{"testdata"}})

	files, err := runner.expand([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestExpandMissingPath(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t, Config{NoCache: true})

	_, err := runner.expand([]string{filepath.Join(t.TempDir(), "nope.go")})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestExpandSkipsOtherExtensions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	txt := writeFile(t, dir, "notes.txt", "hi\n")

	runner := newTestRunner(t, Config{NoCache: true})

	files, err := runner.expand([]string{txt})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, hasDesiredExtension("test.go"))
	assert.True(t, hasDesiredExtension("test.gno"))
	assert.False(t, hasDesiredExtension("test.txt"))
	assert.False(t, hasDesiredExtension("test"))
}
