// Package posts owns the posts partition of client state: the public and
// private listings, the single-post cache, and one request lifecycle per
// remote operation. The store never patches reaction counts locally; the
// server's returned post replaces the cache so counts stay authoritative.
package posts

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

const domainName = "posts"

// Operation names the posts operations for status lookups and metrics.
type Operation string

const (
	OpFetchPublic  Operation = "fetchPublicPosts"
	OpFetchPrivate Operation = "fetchPrivatePosts"
	OpFetchSingle  Operation = "fetchSinglePost"
	OpAdd          Operation = "addPost"
	OpUpdate       Operation = "updatePost"
	OpDelete       Operation = "deletePost"
	OpLike         Operation = "like"
	OpDislike      Operation = "dislike"
	OpClap         Operation = "clap"
	OpRecordView   Operation = "recordView"
)

// API is the slice of the wire client the posts store consumes.
type API interface {
	PublicPosts(ctx context.Context) ([]domain.Post, error)
	PrivatePosts(ctx context.Context, q api.ListQuery) (domain.PostPage, error)
	Post(ctx context.Context, postID string) (domain.Post, error)
	CreatePost(ctx context.Context, in api.PostInput) (domain.Post, error)
	UpdatePost(ctx context.Context, postID string, in api.PostInput) (domain.Post, error)
	DeletePost(ctx context.Context, postID string) (string, error)
	LikePost(ctx context.Context, postID string) (domain.Post, error)
	DislikePost(ctx context.Context, postID string) (domain.Post, error)
	ClapPost(ctx context.Context, postID string) (domain.Post, error)
	RecordPostView(ctx context.Context, postID string) (domain.Post, error)
}

// Store is the posts domain store.
type Store struct {
	api     API
	bus     *signal.Bus
	mirror  *signal.Mirror
	log     *slog.Logger
	metrics *metrics.Metrics

	fetchPublic  *lifecycle.Lifecycle[[]domain.Post]
	fetchPrivate *lifecycle.Lifecycle[domain.PostPage]
	fetchSingle  *lifecycle.Lifecycle[domain.Post]
	add          *lifecycle.Lifecycle[domain.Post]
	update       *lifecycle.Lifecycle[domain.Post]
	del          *lifecycle.Lifecycle[string]
	like         *lifecycle.Lifecycle[domain.Post]
	dislike      *lifecycle.Lifecycle[domain.Post]
	clap         *lifecycle.Lifecycle[domain.Post]
	recordView   *lifecycle.Lifecycle[domain.Post]
	index        map[Operation]lifecycle.Inspector

	mu      sync.Mutex
	public  []domain.Post
	page    *domain.PostPage
	current *domain.Post

	// Ordering for the single-post cache: every operation that will replace
	// the current post takes an issue number at start; a completion applies
	// only if no later-issued completion has been applied already. A stale
	// response is discarded, never installed over newer data.
	issueSeq     uint64
	appliedIssue uint64
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
		api:          client,
		bus:          bus,
		mirror:       signal.NewMirror(),
		log:          logger.Discard(),
		fetchPublic:  lifecycle.New[[]domain.Post](),
		fetchPrivate: lifecycle.New[domain.PostPage](),
		fetchSingle:  lifecycle.New[domain.Post](),
		add:          lifecycle.New[domain.Post](),
		update:       lifecycle.New[domain.Post](),
		del:          lifecycle.New[string](),
		like:         lifecycle.New[domain.Post](),
		dislike:      lifecycle.New[domain.Post](),
		clap:         lifecycle.New[domain.Post](),
		recordView:   lifecycle.New[domain.Post](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index = map[Operation]lifecycle.Inspector{
		OpFetchPublic:  s.fetchPublic,
		OpFetchPrivate: s.fetchPrivate,
		OpFetchSingle:  s.fetchSingle,
		OpAdd:          s.add,
		OpUpdate:       s.update,
		OpDelete:       s.del,
		OpLike:         s.like,
		OpDislike:      s.dislike,
		OpClap:         s.clap,
		OpRecordView:   s.recordView,
	}
	bus.Register(s)
	return s
}

// FetchPublic loads the public post listing. Unauthenticated callers succeed.
func (s *Store) FetchPublic(ctx context.Context) ([]domain.Post, error) {
	ticket := s.fetchPublic.Start()
	start := time.Now()

	posts, err := s.api.PublicPosts(ctx)
	if err != nil {
		if ferr := s.fetchPublic.Fail(ticket, err); ferr != nil {
			return nil, s.discard(OpFetchPublic, ferr)
		}
		s.mu.Lock()
		s.public = nil
		s.mu.Unlock()
		s.reject(OpFetchPublic, err, start)
		return nil, err
	}

	if serr := s.fetchPublic.Succeed(ticket, posts); serr != nil {
		return posts, s.discard(OpFetchPublic, serr)
	}
	s.mu.Lock()
	s.public = posts
	s.mu.Unlock()
	s.fulfill(OpFetchPublic, false, start)
	return posts, nil
}

// FetchPrivate loads a page of the caller's own posts. Protected.
func (s *Store) FetchPrivate(ctx context.Context, q api.ListQuery) (domain.PostPage, error) {
	ticket := s.fetchPrivate.Start()
	start := time.Now()

	page, err := s.api.PrivatePosts(ctx, q)
	if err != nil {
		if ferr := s.fetchPrivate.Fail(ticket, err); ferr != nil {
			return domain.PostPage{}, s.discard(OpFetchPrivate, ferr)
		}
		s.mu.Lock()
		s.page = nil
		s.mu.Unlock()
		s.reject(OpFetchPrivate, err, start)
		return domain.PostPage{}, err
	}

	if serr := s.fetchPrivate.Succeed(ticket, page); serr != nil {
		return page, s.discard(OpFetchPrivate, serr)
	}
	s.mu.Lock()
	s.page = &page
	s.mu.Unlock()
	s.fulfill(OpFetchPrivate, false, start)
	return page, nil
}

// FetchSingle loads one post into the single-post cache. Unauthenticated
// callers succeed on public posts.
func (s *Store) FetchSingle(ctx context.Context, postID string) (domain.Post, error) {
	return s.currentPostOp(ctx, OpFetchSingle, s.fetchSingle, false, func(ctx context.Context) (domain.Post, error) {
		return s.api.Post(ctx, postID)
	})
}

// Add creates a post. Protected; raises the success signal.
func (s *Store) Add(ctx context.Context, in api.PostInput) (domain.Post, error) {
	return s.currentPostOp(ctx, OpAdd, s.add, true, func(ctx context.Context) (domain.Post, error) {
		return s.api.CreatePost(ctx, in)
	})
}

// Update rewrites a post. Protected; raises the success signal.
func (s *Store) Update(ctx context.Context, postID string, in api.PostInput) (domain.Post, error) {
	return s.currentPostOp(ctx, OpUpdate, s.update, true, func(ctx context.Context) (domain.Post, error) {
		return s.api.UpdatePost(ctx, postID, in)
	})
}

// Like toggles the caller's like on a post.
func (s *Store) Like(ctx context.Context, postID string) (domain.Post, error) {
	return s.currentPostOp(ctx, OpLike, s.like, false, func(ctx context.Context) (domain.Post, error) {
		return s.api.LikePost(ctx, postID)
	})
}

// Dislike toggles the caller's dislike on a post.
func (s *Store) Dislike(ctx context.Context, postID string) (domain.Post, error) {
	return s.currentPostOp(ctx, OpDislike, s.dislike, false, func(ctx context.Context) (domain.Post, error) {
		return s.api.DislikePost(ctx, postID)
	})
}

// Clap adds a clap to a post.
func (s *Store) Clap(ctx context.Context, postID string) (domain.Post, error) {
	return s.currentPostOp(ctx, OpClap, s.clap, false, func(ctx context.Context) (domain.Post, error) {
		return s.api.ClapPost(ctx, postID)
	})
}

// RecordView records the caller as a viewer of the post.
func (s *Store) RecordView(ctx context.Context, postID string) (domain.Post, error) {
	return s.currentPostOp(ctx, OpRecordView, s.recordView, false, func(ctx context.Context) (domain.Post, error) {
		return s.api.RecordPostView(ctx, postID)
	})
}

// Delete removes a post. Protected; raises the success signal and clears the
// single-post cache.
func (s *Store) Delete(ctx context.Context, postID string) error {
	ticket := s.del.Start()
	start := time.Now()

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	msg, err := s.api.DeletePost(ctx, postID)
	if err != nil {
		if ferr := s.del.Fail(ticket, err); ferr != nil {
			return s.discard(OpDelete, ferr)
		}
		s.reject(OpDelete, err, start)
		return err
	}

	if serr := s.del.Succeed(ticket, msg); serr != nil {
		return s.discard(OpDelete, serr)
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.fulfill(OpDelete, true, start)
	return nil
}

// currentPostOp runs one operation whose fulfilled payload replaces the
// single-post cache, applying the per-resource ordering rule.
func (s *Store) currentPostOp(
	ctx context.Context,
	op Operation,
	lc *lifecycle.Lifecycle[domain.Post],
	raisesSuccess bool,
	call func(ctx context.Context) (domain.Post, error),
) (domain.Post, error) {
	ticket := lc.Start()
	issue := s.nextIssue()
	start := time.Now()

	post, err := call(ctx)
	if err != nil {
		if ferr := lc.Fail(ticket, err); ferr != nil {
			return domain.Post{}, s.discard(op, ferr)
		}
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		s.reject(op, err, start)
		return domain.Post{}, err
	}

	if serr := lc.Succeed(ticket, post); serr != nil {
		return domain.Post{}, s.discard(op, serr)
	}

	s.mu.Lock()
	if issue > s.appliedIssue {
		s.appliedIssue = issue
		s.current = &post
		s.mu.Unlock()
	} else {
		s.mu.Unlock()
		// The operation itself fulfilled, but a later-issued operation already
		// replaced the cache; this response is semantically stale.
		s.metrics.IncrementStale(domainName, string(op))
		s.log.Debug("stale completion discarded", "domain", domainName, "operation", op)
	}

	s.fulfill(op, raisesSuccess, start)
	return post, nil
}

func (s *Store) nextIssue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issueSeq++
	return s.issueSeq
}

func (s *Store) fulfill(op Operation, raisesSuccess bool, start time.Time) {
	if raisesSuccess {
		s.mirror.SetSuccess()
		s.bus.RaiseSuccess()
	}
	s.metrics.ObserveOperation(domainName, string(op), "fulfilled", time.Since(start))
}

func (s *Store) reject(op Operation, err error, start time.Time) {
	s.mirror.SetError(err)
	s.bus.RaiseError(err)
	s.metrics.ObserveOperation(domainName, string(op), "rejected", time.Since(start))
	s.log.Debug("operation rejected", "domain", domainName, "operation", op, "error", err)
}

// discard handles a completion the lifecycle refused: a newer start superseded
// this attempt, or the attempt was already completed. State is untouched.
func (s *Store) discard(op Operation, cause error) error {
	s.metrics.IncrementStale(domainName, string(op))
	s.log.Debug("late completion ignored", "domain", domainName, "operation", op, "cause", cause)
	return sentinel.ErrSuperseded
}

// Public returns the cached public listing.
func (s *Store) Public() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.public
}

// Page returns the cached private listing page.
func (s *Store) Page() (domain.PostPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return domain.PostPage{}, false
	}
	return *s.page, true
}

// Current returns the single-post cache.
func (s *Store) Current() (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Post{}, false
	}
	return *s.current, true
}

// Status reports an operation's lifecycle state.
func (s *Store) Status(op Operation) lifecycle.Status {
	insp, ok := s.index[op]
	if !ok {
		return lifecycle.StatusIdle
	}
	return insp.Status()
}

// OperationErr returns an operation's installed rejection error.
func (s *Store) OperationErr(op Operation) error {
	insp, ok := s.index[op]
	if !ok {
		return nil
	}
	return insp.Err()
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

// ResetError clears the error mirror and every lifecycle's surfaced error.
// Called by the bus.
func (s *Store) ResetError() {
	s.mirror.ResetError()
	s.fetchPublic.ClearError()
	s.fetchPrivate.ClearError()
	s.fetchSingle.ClearError()
	s.add.ClearError()
	s.update.ClearError()
	s.del.ClearError()
	s.like.ClearError()
	s.dislike.ClearError()
	s.clap.ClearError()
	s.recordView.ClearError()
}

var _ signal.Resetter = (*Store)(nil)
