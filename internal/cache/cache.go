// Package cache persists per-file lint verdicts on disk. An entry is valid
// only while the file's content hash and the run's rule-set fingerprint
// both match, so results are correct regardless of timestamps, mtime
// games, or configuration edits between runs.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// Bumped whenever Entry's wire shape changes; older entries then read as
// misses and get rewritten.
const schemaVersion uint16 = 1

const entriesDir = "entries"

// Entry is the serialized verdict for one file under one rule selection.
type Entry struct {
	Schema      uint16
	Path        string
	Hash        string
	Fingerprint string
	Issues      []tt.Issue
	CreatedAt   time.Time
}

// Stats counts cache traffic for one store lifetime.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

// Store is a disk-backed result cache, safe for concurrent use. Reads rely
// on atomic renames and take no locks; writes to the same identity are
// serialized through striped locks.
type Store struct {
	dir   string
	locks [64]sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
}

// DefaultDir returns the standard cache location, honoring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve cache dir: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "glint"), nil
}

// Open prepares a store rooted at dir, creating it as needed. An empty dir
// selects DefaultDir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, entriesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// key derives the entry file name and the write-lock stripe for a file
// identity.
func (s *Store) key(path string) (string, *sync.Mutex) {
	name := source.HashBytes([]byte(path))
	n, _ := strconv.ParseUint(name, 16, 64)
	return name, &s.locks[n%uint64(len(s.locks))]
}

func (s *Store) entryPath(name string) string {
	return filepath.Join(s.dir, entriesDir, name+".mp")
}

// Get returns the cached issues for path when the stored entry matches the
// given content hash and selection fingerprint. Any read or decode problem
// is a miss: a corrupt entry heals itself on the next Put.
func (s *Store) Get(path, hash, fingerprint string) ([]tt.Issue, bool) {
	name, _ := s.key(path)
	f, err := os.Open(s.entryPath(name))
	if err != nil {
		s.misses.Add(1)
		return nil, false
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		s.misses.Add(1)
		return nil, false
	}
	if entry.Schema != schemaVersion ||
		entry.Path != path ||
		entry.Hash != hash ||
		entry.Fingerprint != fingerprint {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return entry.Issues, true
}

// Put stores the issues for path. The entry is written to a temp file and
// renamed into place, so readers only ever see complete entries.
func (s *Store) Put(path, hash, fingerprint string, issues []tt.Issue) error {
	name, lock := s.key(path)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.dir, entriesDir)
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	tmp := f.Name()

	entry := Entry{
		Schema:      schemaVersion,
		Path:        path,
		Hash:        hash,
		Fingerprint: fingerprint,
		Issues:      issues,
		CreatedAt:   time.Now(),
	}
	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache write: %w", err)
	}
	if err := os.Rename(tmp, s.entryPath(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache write: %w", err)
	}
	s.writes.Add(1)
	return nil
}

// Clear drops every entry. The entries directory is renamed aside first so
// concurrent readers fall back to misses instead of partial reads.
func (s *Store) Clear() error {
	dir := filepath.Join(s.dir, entriesDir)
	old := dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cache clear: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Writes: s.writes.Load(),
	}
}

// Size reports how many entries are on disk and how many bytes they hold.
func (s *Store) Size() (entries int, bytes int64, err error) {
	dirents, err := os.ReadDir(filepath.Join(s.dir, entriesDir))
	if err != nil {
		return 0, 0, fmt.Errorf("cache size: %w", err)
	}
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}
