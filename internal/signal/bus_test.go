package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BusSuite struct {
	suite.Suite
	bus *Bus
}

func (s *BusSuite) SetupTest() {
	s.bus = New()
}

func TestBusSuite(t *testing.T) {
	suite.Run(t, new(BusSuite))
}

func (s *BusSuite) TestFlags() {
	s.Run("flags start down", func() {
		s.False(s.bus.Success())
		s.Nil(s.bus.Err())
	})

	s.Run("raised flags persist until reset", func() {
		s.bus.RaiseSuccess()
		s.bus.RaiseError(errors.New("posts failed"))

		// Unrelated raises do not clear anything.
		s.bus.RaiseSuccess()
		s.True(s.bus.Success())
		s.EqualError(s.bus.Err(), "posts failed")
	})

	s.Run("raise error ignores nil", func() {
		s.bus.RaiseError(nil)
		s.Nil(s.bus.Err())
	})
}

func (s *BusSuite) TestResetClearsEveryDomain() {
	users := NewMirror()
	posts := NewMirror()
	comments := NewMirror()
	s.bus.Register(users)
	s.bus.Register(posts)
	s.bus.Register(comments)

	// Populate two domains plus the global flags before resetting, then check
	// every mirror simultaneously.
	users.SetSuccess()
	posts.SetSuccess()
	posts.SetError(errors.New("like rejected"))
	comments.SetError(errors.New("comment rejected"))
	s.bus.RaiseSuccess()
	s.bus.RaiseError(errors.New("like rejected"))

	s.bus.ResetSuccess()
	s.False(s.bus.Success())
	s.False(users.Success())
	s.False(posts.Success())
	s.False(comments.Success())

	// Error flags untouched by the success reset.
	s.NotNil(s.bus.Err())
	s.NotNil(posts.Err())

	s.bus.ResetError()
	s.Nil(s.bus.Err())
	s.Nil(users.Err())
	s.Nil(posts.Err())
	s.Nil(comments.Err())
}

func (s *BusSuite) TestMirrorIndependence() {
	users := NewMirror()
	posts := NewMirror()
	s.bus.Register(users)
	s.bus.Register(posts)

	posts.SetError(errors.New("fetch failed"))
	s.Nil(users.Err())

	users.SetSuccess()
	s.False(posts.Success())
}
