// Package categories owns the categories partition of client state. It is the
// smallest domain: one fetch, one cache, and the shared signal contract.
package categories

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/lifecycle"
	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/signal"
	"inkwell/pkg/platform/sentinel"
)

const domainName = "categories"

// Operation names the categories operations.
type Operation string

const OpFetchAll Operation = "fetchCategories"

// API is the slice of the wire client the categories store consumes.
type API interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Store is the categories domain store.
type Store struct {
	api     API
	bus     *signal.Bus
	mirror  *signal.Mirror
	log     *slog.Logger
	metrics *metrics.Metrics

	fetchAll *lifecycle.Lifecycle[[]domain.Category]

	mu   sync.Mutex
	list []domain.Category
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New builds the store and registers its reset handler on the bus.
func New(client API, bus *signal.Bus, opts ...Option) *Store {
	s := &Store{
		api:      client,
		bus:      bus,
		mirror:   signal.NewMirror(),
		log:      logger.Discard(),
		fetchAll: lifecycle.New[[]domain.Category](),
	}
	for _, opt := range opts {
		opt(s)
	}
	bus.Register(s)
	return s
}

// FetchAll loads every category. The cache is replaced wholesale on
// fulfillment and cleared on rejection.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Category, error) {
	ticket := s.fetchAll.Start()
	start := time.Now()

	list, err := s.api.Categories(ctx)
	if err != nil {
		if ferr := s.fetchAll.Fail(ticket, err); ferr != nil {
			return nil, s.discard(OpFetchAll, ferr)
		}
		s.mu.Lock()
		s.list = nil
		s.mu.Unlock()
		s.mirror.SetError(err)
		s.bus.RaiseError(err)
		s.metrics.ObserveOperation(domainName, string(OpFetchAll), "rejected", time.Since(start))
		s.log.Debug("operation rejected", "domain", domainName, "operation", OpFetchAll, "error", err)
		return nil, err
	}

	if serr := s.fetchAll.Succeed(ticket, list); serr != nil {
		return nil, s.discard(OpFetchAll, serr)
	}
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	// Reads do not raise the success signal.
	s.metrics.ObserveOperation(domainName, string(OpFetchAll), "fulfilled", time.Since(start))
	return list, nil
}

func (s *Store) discard(op Operation, cause error) error {
	s.metrics.IncrementStale(domainName, string(op))
	s.log.Debug("late completion ignored", "domain", domainName, "operation", op, "cause", cause)
	return sentinel.ErrSuperseded
}

// All returns the cached category list.
func (s *Store) All() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

// Status reports the fetch lifecycle state.
func (s *Store) Status(op Operation) lifecycle.Status {
	if op != OpFetchAll {
		return lifecycle.StatusIdle
	}
	return s.fetchAll.Status()
}

// OperationErr returns the fetch rejection error.
func (s *Store) OperationErr(op Operation) error {
	if op != OpFetchAll {
		return nil
	}
	return s.fetchAll.Err()
}

// Success reports the domain's success mirror. Categories never raise it but
// the accessor keeps the store contract uniform.
func (s *Store) Success() bool {
	return s.mirror.Success()
}

// Failure returns the domain's error mirror.
func (s *Store) Failure() error {
	return s.mirror.Err()
}

// ResetSuccess clears the success mirror. Called by the bus.
func (s *Store) ResetSuccess() {
	s.mirror.ResetSuccess()
}

// ResetError clears the error mirror and the fetch error. Called by the bus.
func (s *Store) ResetError() {
	s.mirror.ResetError()
	s.fetchAll.ClearError()
}

var _ signal.Resetter = (*Store)(nil)
