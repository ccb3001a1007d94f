package repository

import "time"

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithMaxOpenConns caps open connections. Ignored for sqlite, which always
// runs on a single connection.
func WithMaxOpenConns(n int) Option {
	return func(s *GormStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithSQLLogging logs every statement through the service logger.
func WithSQLLogging(enabled bool) Option {
	return func(s *GormStore) {
		s.logSQL = enabled
	}
}

// WithSlowThreshold sets the duration above which statements are logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *GormStore) {
		if d > 0 {
			s.slowThreshold = d
		}
	}
}

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *GormStore) {
		if now != nil {
			s.now = now
		}
	}
}
