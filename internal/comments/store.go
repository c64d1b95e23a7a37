// Package comments owns the comments partition of client state. Comment
// creation is the only remote operation; the created comment lands inside the
// post it belongs to, so the posts store refreshes the post afterwards.
package comments

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/lifecycle"
	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/signal"
	"inkwell/pkg/platform/sentinel"
)

const domainName = "comments"

// Operation names the comments operations.
type Operation string

const OpCreate Operation = "createComment"

// API is the slice of the wire client the comments store consumes.
type API interface {
	CreateComment(ctx context.Context, in api.CommentInput) (domain.Comment, error)
}

// Store is the comments domain store.
type Store struct {
	api     API
	bus     *signal.Bus
	mirror  *signal.Mirror
	log     *slog.Logger
	metrics *metrics.Metrics

	create *lifecycle.Lifecycle[domain.Comment]

	mu   sync.Mutex
	last *domain.Comment
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
		api:    client,
		bus:    bus,
		mirror: signal.NewMirror(),
		log:    logger.Discard(),
		create: lifecycle.New[domain.Comment](),
	}
	for _, opt := range opts {
		opt(s)
	}
	bus.Register(s)
	return s
}

// Create posts a comment. Protected. Raises success on fulfillment.
func (s *Store) Create(ctx context.Context, in api.CommentInput) (domain.Comment, error) {
	ticket := s.create.Start()
	start := time.Now()

	comment, err := s.api.CreateComment(ctx, in)
	if err != nil {
		if ferr := s.create.Fail(ticket, err); ferr != nil {
			return domain.Comment{}, s.discard(OpCreate, ferr)
		}
		s.mirror.SetError(err)
		s.bus.RaiseError(err)
		s.metrics.ObserveOperation(domainName, string(OpCreate), "rejected", time.Since(start))
		s.log.Debug("operation rejected", "domain", domainName, "operation", OpCreate, "error", err)
		return domain.Comment{}, err
	}

	if serr := s.create.Succeed(ticket, comment); serr != nil {
		return domain.Comment{}, s.discard(OpCreate, serr)
	}
	s.mu.Lock()
	s.last = &comment
	s.mu.Unlock()
	s.mirror.SetSuccess()
	s.bus.RaiseSuccess()
	s.metrics.ObserveOperation(domainName, string(OpCreate), "fulfilled", time.Since(start))
	return comment, nil
}

func (s *Store) discard(op Operation, cause error) error {
	s.metrics.IncrementStale(domainName, string(op))
	s.log.Debug("late completion ignored", "domain", domainName, "operation", op, "cause", cause)
	return sentinel.ErrSuperseded
}

// Last returns the most recently created comment.
func (s *Store) Last() (domain.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Comment{}, false
	}
	return *s.last, true
}

// Status reports the create lifecycle state.
func (s *Store) Status(op Operation) lifecycle.Status {
	if op != OpCreate {
		return lifecycle.StatusIdle
	}
	return s.create.Status()
}

// OperationErr returns the create rejection error.
func (s *Store) OperationErr(op Operation) error {
	if op != OpCreate {
		return nil
	}
	return s.create.Err()
}

// Success reports the domain's success mirror.
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

// ResetError clears the error mirror and the create error. Called by the bus.
func (s *Store) ResetError() {
	s.mirror.ResetError()
	s.create.ClearError()
}

var _ signal.Resetter = (*Store)(nil)
