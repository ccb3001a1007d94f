// Package snapshot is the local fallback profile store: the whole profile
// collection kept as one JSON document under a namespaced key.
package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/pkg/metrics"
)

// FileStore implements profile.Gateway over a JSON file. Every Save
// rewrites the file atomically; the last writer wins.
type FileStore struct {
	path  string
	key   string
	rules func() profile.Rules

	mu sync.Mutex
}

var _ profile.Gateway = (*FileStore)(nil)

// Option configures a FileStore.
type Option func(*FileStore)

// WithKey overrides the namespaced key the collection is stored under.
func WithKey(key string) Option {
	return func(s *FileStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithRules sets the rules used to decode stored profiles.
func WithRules(rules func() profile.Rules) Option {
	return func(s *FileStore) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// New returns a FileStore backed by path. The file need not exist.
func New(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:  path,
		key:   profile.DefaultCollectionKey,
		rules: profile.DefaultRules,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the collection. A missing or malformed file yields an empty
// collection; only I/O failures are errors.
func (s *FileStore) Load(_ context.Context) ([]model.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.WorkerProfile{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read snapshot %s", s.path)
	}
	return profile.DecodeCollection(raw, s.key, s.rules()), nil
}

// Save replaces the stored collection.
func (s *FileStore) Save(_ context.Context, profiles []model.WorkerProfile) error {
	raw, err := profile.EncodeCollection(profiles, s.key)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, raw); err != nil {
		return err
	}
	metrics.RecordSnapshotWrite()
	return nil
}

// Reset clears the stored collection.
func (s *FileStore) Reset(ctx context.Context) error {
	return s.Save(ctx, nil)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create snapshot directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp snapshot")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace snapshot %s", path)
	}
	return nil
}
