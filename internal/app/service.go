// Package service implements the operations behind the HTTP API on top
// of the relational store and the pure rating core.
package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/crewrate/internal/adapters/repository"
	"github.com/okian/crewrate/pkg/logger"
)

// Service implements the API dependencies for the rating tracker.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	settings atomic.Pointer[Settings]

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSettings sets the initial live settings. Invalid settings are ignored.
func WithSettings(st Settings) Option {
	return func(s *Service) {
		if st.Validate() == nil {
			st = st.normalized()
			s.settings.Store(&st)
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{store: store}
	def := DefaultSettings()
	s.settings.Store(&def)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start loads persisted settings. Settings saved through UpdateSettings
// take precedence over the ones passed to New.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.loadPersistedSettings(ctx); err != nil {
		return err
	}
	s.started = true

	st := s.Settings()
	s.logger.Info(ctx, "rating service started",
		logger.Any("categories", st.Categories),
		logger.Float64("scoreMin", st.ScoreMin),
		logger.Float64("scoreMax", st.ScoreMax),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
