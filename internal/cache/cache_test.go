package cache

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gnoverse/glint/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return store
}

func sampleIssues() []types.Issue {
	return []types.Issue{
		{
			Rule:     "unused-variable",
			Severity: types.SeverityWarning,
			Filename: "a.go",
			Message:  "unused variable: x",
			Start:    token.Position{Filename: "a.go", Line: 4, Column: 2, Offset: 30},
			End:      token.Position{Filename: "a.go", Line: 4, Column: 3, Offset: 31},
		},
		{
			Rule:       "bool-comparison",
			Severity:   types.SeverityNote,
			Filename:   "a.go",
			Message:    "redundant comparison with true",
			Suggestion: "x",
			Start:      token.Position{Filename: "a.go", Line: 7, Column: 9},
			End:        token.Position{Filename: "a.go", Line: 7, Column: 18},
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	want := sampleIssues()

	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", want))

	got, ok := store.Get("a.go", "hash-1", "fp-1")
	require.True(t, ok)
	assert.Equal(t, want, got)

	stats := store.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Writes)
}

func TestGetMisses(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", sampleIssues()))

	tests := []struct {
		name        string
		path        string
		hash        string
		fingerprint string
	}{
		{"absent file", "other.go", "hash-1", "fp-1"},
		{"content changed", "a.go", "hash-2", "fp-1"},
		{"rules changed", "a.go", "hash-1", "fp-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := store.Get(tt.path, tt.hash, tt.fingerprint)
			assert.False(t, ok)
		})
	}

	assert.EqualValues(t, 3, store.Stats().Misses)
}

func TestEmptyResultIsCached(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Put("clean.go", "hash-1", "fp-1", nil))

	got, ok := store.Get("clean.go", "hash-1", "fp-1")
	require.True(t, ok, "a clean verdict is still a verdict")
	assert.Empty(t, got)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", sampleIssues()))

	name, _ := store.key("a.go")
	require.NoError(t, os.WriteFile(store.entryPath(name), []byte("not msgpack"), 0o644))

	_, ok := store.Get("a.go", "hash-1", "fp-1")
	assert.False(t, ok)

	// The next Put heals the entry.
	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", sampleIssues()))
	_, ok = store.Get("a.go", "hash-1", "fp-1")
	assert.True(t, ok)
}

func TestSchemaMismatchIsAMiss(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entry := Entry{
		Schema:      schemaVersion + 1,
		Path:        "a.go",
		Hash:        "hash-1",
		Fingerprint: "fp-1",
	}
	raw, err := msgpack.Marshal(&entry)
	require.NoError(t, err)

	name, _ := store.key("a.go")
	require.NoError(t, os.WriteFile(store.entryPath(name), raw, 0o644))

	_, ok := store.Get("a.go", "hash-1", "fp-1")
	assert.False(t, ok)
}

func TestEntriesAreIndependentPerPath(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Put("a.go", "hash-a", "fp", sampleIssues()))
	require.NoError(t, store.Put("b.go", "hash-b", "fp", nil))

	gotA, okA := store.Get("a.go", "hash-a", "fp")
	require.True(t, okA)
	assert.Len(t, gotA, 2)

	gotB, okB := store.Get("b.go", "hash-b", "fp")
	require.True(t, okB)
	assert.Empty(t, gotB)
}

func TestClear(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", sampleIssues()))

	require.NoError(t, store.Clear())

	_, ok := store.Get("a.go", "hash-1", "fp-1")
	assert.False(t, ok)

	// The store stays usable after a clear.
	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", nil))
	_, ok = store.Get("a.go", "hash-1", "fp-1")
	assert.True(t, ok)
}

func TestSize(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entries, bytes, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, entries)
	assert.Equal(t, int64(0), bytes)

	require.NoError(t, store.Put("a.go", "hash-1", "fp-1", sampleIssues()))
	require.NoError(t, store.Put("b.go", "hash-2", "fp-1", nil))

	entries, bytes, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, entries)
	assert.Greater(t, bytes, int64(0))
}

func TestOpenDefaultDirHonorsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "glint"), dir)

	store, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.DirExists(t, filepath.Join(dir, entriesDir))
}
