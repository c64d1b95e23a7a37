package categories

import (
	"context"
	"testing"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/lifecycle"
	"inkwell/internal/session"
	"inkwell/internal/signal"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/testutil/apitest"

	"github.com/stretchr/testify/suite"
)

type fakeAPI struct {
	categoriesFn func(ctx context.Context) ([]domain.Category, error)
}

func (f *fakeAPI) Categories(ctx context.Context) ([]domain.Category, error) {
	return f.categoriesFn(ctx)
}

type CategoriesStoreSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *CategoriesStoreSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestCategoriesStoreSuite(t *testing.T) {
	suite.Run(t, new(CategoriesStoreSuite))
}

func (s *CategoriesStoreSuite) TestFetchAllInstallsList() {
	fake := &fakeAPI{
		categoriesFn: func(_ context.Context) ([]domain.Category, error) {
			return []domain.Category{{ID: "c1", Name: "go"}, {ID: "c2", Name: "news"}}, nil
		},
	}
	store := New(fake, signal.New())

	list, err := store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.Equal(lifecycle.StatusFulfilled, store.Status(OpFetchAll))
	s.Len(store.All(), 2)
	s.False(store.Success())
}

func (s *CategoriesStoreSuite) TestRejectionClearsListAndRaisesError() {
	boom := dErrors.New(dErrors.CodeUnavailable, "categories unavailable")
	calls := 0
	fake := &fakeAPI{
		categoriesFn: func(_ context.Context) ([]domain.Category, error) {
			calls++
			if calls == 1 {
				return []domain.Category{{ID: "c1"}}, nil
			}
			return nil, boom
		},
	}
	bus := signal.New()
	store := New(fake, bus)

	_, err := store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(store.All())

	_, err = store.FetchAll(s.ctx)
	s.Require().ErrorIs(err, boom)
	s.Equal(lifecycle.StatusRejected, store.Status(OpFetchAll))
	s.Empty(store.All())
	s.ErrorIs(store.Failure(), boom)
	s.ErrorIs(bus.Err(), boom)

	bus.ResetError()
	s.NoError(store.Failure())
	s.Equal(lifecycle.StatusIdle, store.Status(OpFetchAll))
}

func (s *CategoriesStoreSuite) TestFetchAllAgainstWire() {
	server := apitest.New()
	defer server.Close()
	server.SeedCategories(domain.Category{ID: "c1", Name: "go"})

	client, err := api.New(api.Config{
		BaseURL: server.URL(),
		Tokens:  session.NewManager(session.NewMemoryStore()),
	})
	s.Require().NoError(err)
	store := New(client, signal.New())

	list, err := store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("go", list[0].Name)
}
