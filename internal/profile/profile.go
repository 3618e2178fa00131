// Package profile stores cache-profile snapshots: per-site counters and the
// rule lists a run ended with. Snapshots are msgpack files keyed by run ID.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"dynsite/internal/convert"
	"dynsite/internal/observ"
)

// Current schema version - increment when Snapshot format changes
const schemaVersion uint16 = 1

// ErrNotFound is returned by Load for unknown run IDs.
var ErrNotFound = errors.New("profile not found")

// Snapshot is the persisted state of one run.
type Snapshot struct {
	Schema  uint16        `msgpack:"schema"`
	RunID   uuid.UUID     `msgpack:"run_id"`
	Command string        `msgpack:"command"`
	Created time.Time     `msgpack:"created"`
	Sites   []SiteProfile `msgpack:"sites"`
	Binders []BinderEntry `msgpack:"binders"`
	Timings observ.Report `msgpack:"timings"`
}

// SiteProfile describes one call site at the end of a run.
type SiteProfile struct {
	Name     string           `msgpack:"name"`
	Config   string           `msgpack:"config"`
	Capacity int              `msgpack:"capacity"`
	Stats    observ.SiteStats `msgpack:"stats"`
	Rules    []string         `msgpack:"rules"`
}

// BinderEntry describes one interned binder and its rule cache.
type BinderEntry struct {
	Config string            `msgpack:"config"`
	Cache  observ.CacheStats `msgpack:"cache"`
	Rules  []string          `msgpack:"rules"`
}

// Totals sums the counters of all sites.
func (s *Snapshot) Totals() observ.SiteStats {
	var total observ.SiteStats
	for _, site := range s.Sites {
		total = total.Add(site.Stats)
	}
	return total
}

// Capture records the current state of sites and of every binder the pool
// still interns.
func Capture(command string, pool *convert.Pool, sites []*convert.Site, timings observ.Report) *Snapshot {
	in := pool.Types()
	snap := &Snapshot{
		Schema:  schemaVersion,
		RunID:   uuid.New(),
		Command: command,
		Created: time.Now().UTC(),
		Timings: timings,
	}
	for _, s := range sites {
		sp := SiteProfile{
			Name:     s.Name(),
			Capacity: s.Capacity(),
			Stats:    s.Stats(),
		}
		if b, ok := s.Binder().(*convert.Binder); ok {
			sp.Config = convert.DescribeConfig(in, b.Config())
		}
		for _, r := range s.Rules() {
			sp.Rules = append(sp.Rules, r.Desc)
		}
		snap.Sites = append(snap.Sites, sp)
	}
	for _, b := range pool.Binders() {
		be := BinderEntry{
			Config: convert.DescribeConfig(in, b.Config()),
			Cache:  b.RuleCache().Stats(),
		}
		for _, r := range b.RuleCache().Rules() {
			be.Rules = append(be.Rules, r.Desc)
		}
		snap.Binders = append(snap.Binders, be)
	}
	return snap
}

// Store keeps snapshots in a directory. Thread-safe for concurrent access.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// Open returns the store at the standard cache location for app.
func Open(app string) (*Store, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app, "profiles"))
}

// OpenDir returns a store rooted at dir, creating it if needed.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) pathFor(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".mp")
}

// Save writes snap atomically.
func (s *Store) Save(snap *Snapshot) (err error) {
	if snap == nil {
		return errors.New("profile: nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return fmt.Errorf("profile: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	// readers never see a half-written snapshot
	return os.Rename(f.Name(), s.pathFor(snap.RunID))
}

// Load reads the snapshot with the given run ID. A prefix of the ID is
// accepted when it is unambiguous.
func (s *Store) Load(id string) (*Snapshot, error) {
	runID, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("profile %s: decode: %w", runID, err)
	}
	if snap.Schema != schemaVersion {
		return nil, fmt.Errorf("profile %s: schema %d, want %d", runID, snap.Schema, schemaVersion)
	}
	return &snap, nil
}

func (s *Store) resolve(id string) (uuid.UUID, error) {
	if runID, err := uuid.Parse(id); err == nil {
		return runID, nil
	}
	ids, err := s.List()
	if err != nil {
		return uuid.Nil, err
	}
	var found []uuid.UUID
	for _, candidate := range ids {
		if strings.HasPrefix(candidate.String(), id) {
			found = append(found, candidate)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	return uuid.Nil, fmt.Errorf("profile: %q matches %d runs", id, len(found))
}

// List returns the stored run IDs, oldest file first.
func (s *Store) List() ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	type stamped struct {
		id  uuid.UUID
		mod time.Time
	}
	var runs []stamped
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".mp")
		if !ok || e.IsDir() {
			continue
		}
		id, err := uuid.Parse(name)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		runs = append(runs, stamped{id: id, mod: info.ModTime()})
	}
	slices.SortStableFunc(runs, func(a, b stamped) int { return a.mod.Compare(b.mod) })
	out := make([]uuid.UUID, len(runs))
	for i, r := range runs {
		out[i] = r.id
	}
	return out, nil
}

// Latest loads the most recently written snapshot.
func (s *Store) Latest() (*Snapshot, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return s.Load(ids[len(ids)-1].String())
}

// DropAll removes every stored snapshot.
func (s *Store) DropAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// move the directory aside first so a concurrent Save starts a fresh one
	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
