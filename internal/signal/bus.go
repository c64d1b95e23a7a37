// Package signal implements the cross-domain success/error flags. Domains
// raise the flags on fulfillment or rejection; one acknowledgment clears them
// everywhere at once. The reset is an explicit event delivered to every
// registered domain handler, so "who listens to this" is visible in one place.
package signal

import (
	"log/slog"
	"sync"

	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
)

// Resetter is implemented by every domain store. The bus calls it while
// holding its own lock, so a reset is observed by all domains as one event
// with no interleaved raises.
type Resetter interface {
	// ResetSuccess clears the domain's local success mirror.
	ResetSuccess()
	// ResetError clears the domain's local error mirror.
	ResetError()
}

// Bus holds the two process-wide flags and the registry of domain handlers.
type Bus struct {
	mu       sync.Mutex
	success  bool
	err      error
	handlers []Resetter

	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Bus.
type Option func(*Bus)

func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// New returns an empty bus with both flags down.
func New(opts ...Option) *Bus {
	b := &Bus{log: logger.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register subscribes a domain's reset handler. Registration order is the
// delivery order of resets; it has no observable effect beyond logging.
func (b *Bus) Register(r Resetter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, r)
}

// RaiseSuccess sets the global success flag. It stays up until ResetSuccess.
func (b *Bus) RaiseSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.success = true
}

// RaiseError sets the global error flag with the raising domain's error. It
// stays up until ResetError; later successes in other domains do not clear it.
func (b *Bus) RaiseError(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Success reports the global success flag.
func (b *Bus) Success() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.success
}

// Err returns the raised error, nil when the flag is down.
func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// ResetSuccess clears the global success flag and every domain's success
// mirror in one critical section. A partial reset is impossible: no raise can
// interleave while the handlers run.
func (b *Bus) ResetSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.success = false
	for _, h := range b.handlers {
		h.ResetSuccess()
	}
	b.metrics.IncrementReset("success")
	b.log.Debug("signal reset", "kind", "success", "domains", len(b.handlers))
}

// ResetError clears the global error flag and every domain's error mirror in
// one critical section.
func (b *Bus) ResetError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = nil
	for _, h := range b.handlers {
		h.ResetError()
	}
	b.metrics.IncrementReset("error")
	b.log.Debug("signal reset", "kind", "error", "domains", len(b.handlers))
}
