package posts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/lifecycle"
	"inkwell/internal/session"
	"inkwell/internal/signal"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/testutil/apitest"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeAPI scripts the wire layer so tests control completion order and
// failures directly.
type fakeAPI struct {
	publicFn     func(ctx context.Context) ([]domain.Post, error)
	privateFn    func(ctx context.Context, q api.ListQuery) (domain.PostPage, error)
	postFn       func(ctx context.Context, id string) (domain.Post, error)
	createFn     func(ctx context.Context, in api.PostInput) (domain.Post, error)
	updateFn     func(ctx context.Context, id string, in api.PostInput) (domain.Post, error)
	deleteFn     func(ctx context.Context, id string) (string, error)
	likeFn       func(ctx context.Context, id string) (domain.Post, error)
	dislikeFn    func(ctx context.Context, id string) (domain.Post, error)
	clapFn       func(ctx context.Context, id string) (domain.Post, error)
	recordViewFn func(ctx context.Context, id string) (domain.Post, error)
}

func (f *fakeAPI) PublicPosts(ctx context.Context) ([]domain.Post, error) {
	return f.publicFn(ctx)
}
func (f *fakeAPI) PrivatePosts(ctx context.Context, q api.ListQuery) (domain.PostPage, error) {
	return f.privateFn(ctx, q)
}
func (f *fakeAPI) Post(ctx context.Context, id string) (domain.Post, error) {
	return f.postFn(ctx, id)
}
func (f *fakeAPI) CreatePost(ctx context.Context, in api.PostInput) (domain.Post, error) {
	return f.createFn(ctx, in)
}
func (f *fakeAPI) UpdatePost(ctx context.Context, id string, in api.PostInput) (domain.Post, error) {
	return f.updateFn(ctx, id, in)
}
func (f *fakeAPI) DeletePost(ctx context.Context, id string) (string, error) {
	return f.deleteFn(ctx, id)
}
func (f *fakeAPI) LikePost(ctx context.Context, id string) (domain.Post, error) {
	return f.likeFn(ctx, id)
}
func (f *fakeAPI) DislikePost(ctx context.Context, id string) (domain.Post, error) {
	return f.dislikeFn(ctx, id)
}
func (f *fakeAPI) ClapPost(ctx context.Context, id string) (domain.Post, error) {
	return f.clapFn(ctx, id)
}
func (f *fakeAPI) RecordPostView(ctx context.Context, id string) (domain.Post, error) {
	return f.recordViewFn(ctx, id)
}

type PostsStoreSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *PostsStoreSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestPostsStoreSuite(t *testing.T) {
	suite.Run(t, new(PostsStoreSuite))
}

func post(id string, likes, dislikes []string, views []string) domain.Post {
	return domain.Post{
		ID:        id,
		Title:     "t",
		Content:   "c",
		Author:    domain.UserSummary{ID: "a1"},
		Likes:     likes,
		Dislikes:  dislikes,
		PostViews: views,
	}
}

func (s *PostsStoreSuite) TestFetchSingleInstallsCurrent() {
	fake := &fakeAPI{
		postFn: func(_ context.Context, id string) (domain.Post, error) {
			return post(id, []string{"u2"}, nil, nil), nil
		},
	}
	store := New(fake, signal.New())

	got, err := store.FetchSingle(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("p1", got.ID)
	s.Equal(lifecycle.StatusFulfilled, store.Status(OpFetchSingle))

	current, ok := store.Current()
	s.True(ok)
	s.Equal("p1", current.ID)

	// Reads do not raise the success signal.
	s.False(store.Success())
}

func (s *PostsStoreSuite) TestRejectionClearsCurrentAndRaisesError() {
	boom := dErrors.New(dErrors.CodeNotFound, "post not found")
	fake := &fakeAPI{
		postFn: func(_ context.Context, id string) (domain.Post, error) {
			if id == "missing" {
				return domain.Post{}, boom
			}
			return post(id, nil, nil, nil), nil
		},
	}
	bus := signal.New()
	store := New(fake, bus)

	_, err := store.FetchSingle(s.ctx, "p1")
	s.Require().NoError(err)

	_, err = store.FetchSingle(s.ctx, "missing")
	s.Require().Error(err)
	s.Equal(lifecycle.StatusRejected, store.Status(OpFetchSingle))
	s.ErrorIs(store.OperationErr(OpFetchSingle), boom)

	// Single-post rejections clear the cached post outright.
	_, ok := store.Current()
	s.False(ok)

	s.ErrorIs(store.Failure(), boom)
	s.ErrorIs(bus.Err(), boom)
}

func (s *PostsStoreSuite) TestMutationsRaiseSuccess() {
	fake := &fakeAPI{
		createFn: func(_ context.Context, in api.PostInput) (domain.Post, error) {
			return post("p-new", nil, nil, nil), nil
		},
	}
	bus := signal.New()
	store := New(fake, bus)

	_, err := store.Add(s.ctx, api.PostInput{Title: "t", Content: "c", Image: &api.File{Name: "i.png"}})
	s.Require().NoError(err)
	s.True(store.Success())
	s.True(bus.Success())
}

func (s *PostsStoreSuite) TestDeleteClearsCurrent() {
	fake := &fakeAPI{
		postFn: func(_ context.Context, id string) (domain.Post, error) {
			return post(id, nil, nil, nil), nil
		},
		deleteFn: func(_ context.Context, id string) (string, error) {
			return "post deleted", nil
		},
	}
	store := New(fake, signal.New())

	_, err := store.FetchSingle(s.ctx, "p1")
	s.Require().NoError(err)

	s.Require().NoError(store.Delete(s.ctx, "p1"))
	_, ok := store.Current()
	s.False(ok)
	s.True(store.Success())
}

// A later-issued operation's response must win the single-post cache even when
// an earlier-issued operation's response arrives after it carrying stale
// reaction counts.
func (s *PostsStoreSuite) TestOutOfOrderCompletionDiscardsStaleData() {
	stale := post("p1", nil, nil, []string{"u-self"})
	fresh := post("p1", []string{"u-self"}, nil, []string{"u-self"})

	viewIssued := make(chan struct{})
	viewRelease := make(chan struct{})

	fake := &fakeAPI{
		recordViewFn: func(_ context.Context, id string) (domain.Post, error) {
			close(viewIssued)
			<-viewRelease
			return stale, nil
		},
		likeFn: func(_ context.Context, id string) (domain.Post, error) {
			return fresh, nil
		},
	}
	store := New(fake, signal.New())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := store.RecordView(s.ctx, "p1")
		// The operation itself fulfilled; only its cache write was stale.
		require.NoError(s.T(), err)
	}()

	<-viewIssued
	_, err := store.Like(s.ctx, "p1")
	s.Require().NoError(err)

	close(viewRelease)
	wg.Wait()

	current, ok := store.Current()
	s.Require().True(ok)
	s.Equal([]string{"u-self"}, current.Likes, "stale view-count response must not clobber the newer like")
	s.Equal(lifecycle.StatusFulfilled, store.Status(OpRecordView))
	s.Equal(lifecycle.StatusFulfilled, store.Status(OpLike))
}

// A re-issued fetch supersedes the in-flight one: the first attempt's late
// completion is ignored without touching state.
func (s *PostsStoreSuite) TestSupersededFetchIsIgnored() {
	firstIssued := make(chan struct{})
	firstRelease := make(chan struct{})
	var calls atomic.Int32

	fake := &fakeAPI{
		postFn: func(_ context.Context, id string) (domain.Post, error) {
			if calls.Add(1) == 1 {
				close(firstIssued)
				<-firstRelease
				return post("p1", nil, nil, nil), nil
			}
			return post("p1", []string{"u9"}, nil, nil), nil
		},
	}
	store := New(fake, signal.New())

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = store.FetchSingle(s.ctx, "p1")
	}()

	<-firstIssued
	got, err := store.FetchSingle(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal([]string{"u9"}, got.Likes)

	close(firstRelease)
	wg.Wait()
	s.Require().Error(firstErr)

	current, ok := store.Current()
	s.Require().True(ok)
	s.Equal([]string{"u9"}, current.Likes)
}

func (s *PostsStoreSuite) TestResetClearsMirrorsAndLifecycleErrors() {
	fake := &fakeAPI{
		publicFn: func(_ context.Context) ([]domain.Post, error) {
			return nil, errors.New("listing down")
		},
		createFn: func(_ context.Context, in api.PostInput) (domain.Post, error) {
			return post("p-new", nil, nil, nil), nil
		},
	}
	bus := signal.New()
	store := New(fake, bus)

	_, err := store.FetchPublic(s.ctx)
	s.Require().Error(err)
	_, err = store.Add(s.ctx, api.PostInput{Image: &api.File{Name: "i.png"}})
	s.Require().NoError(err)

	s.NotNil(store.Failure())
	s.True(store.Success())

	bus.ResetError()
	s.Nil(store.Failure())
	s.Nil(store.OperationErr(OpFetchPublic))
	s.True(store.Success(), "error reset must not clear success")

	bus.ResetSuccess()
	s.False(store.Success())
}

// Protected operations with no session must fail fast without issuing any
// network call; public fetches must succeed anonymously.
func (s *PostsStoreSuite) TestUnauthenticatedAgainstWire() {
	server := apitest.New()
	defer server.Close()
	server.SeedPost(post("p1", nil, nil, nil))

	manager := session.NewManager(session.NewMemoryStore())
	client, err := api.New(api.Config{BaseURL: server.URL(), Tokens: manager})
	s.Require().NoError(err)

	store := New(client, signal.New())

	got, err := store.FetchSingle(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("p1", got.ID)
	requestsAfterFetch := server.Requests()

	_, err = store.Like(s.ctx, "p1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	s.Equal(requestsAfterFetch, server.Requests(), "auth failure must not reach the wire")
	s.Equal(lifecycle.StatusRejected, store.Status(OpLike))
}

func (s *PostsStoreSuite) TestLikeRoundTripAgainstWire() {
	server := apitest.New()
	defer server.Close()
	server.SeedPost(post("p1", nil, nil, nil))

	manager := session.NewManager(session.NewMemoryStore())
	s.Require().NoError(manager.Establish(s.ctx, session.Session{
		Token: apitest.Token,
		User:  domain.UserSummary{ID: apitest.UserID},
	}))

	client, err := api.New(api.Config{BaseURL: server.URL(), Tokens: manager})
	s.Require().NoError(err)
	store := New(client, signal.New())

	got, err := store.Like(s.ctx, "p1")
	s.Require().NoError(err)
	s.Contains(got.Likes, apitest.UserID)

	current, ok := store.Current()
	s.True(ok)
	s.Contains(current.Likes, apitest.UserID)
}
