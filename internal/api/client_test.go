package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"inkwell/internal/domain"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/circuit"
	"inkwell/pkg/testutil/apitest"

	"github.com/stretchr/testify/suite"
)

// staticTokens is a fixed TokenSource for tests.
type staticTokens struct {
	token string
}

func (t staticTokens) Token() (string, bool) {
	return t.token, t.token != ""
}

// recordingDoer captures the outgoing request and answers with a canned
// response, so header assertions need no server.
type recordingDoer struct {
	req    *http.Request
	status int
	body   string
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.req = req
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) authedClient(server *apitest.Server) *Client {
	client, err := New(Config{BaseURL: server.URL(), Tokens: staticTokens{token: apitest.Token}})
	s.Require().NoError(err)
	return client
}

func (s *ClientSuite) TestNewValidatesConfig() {
	_, err := New(Config{Tokens: staticTokens{}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = New(Config{BaseURL: "http://api.local"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	client, err := New(Config{BaseURL: "http://api.local/", Tokens: staticTokens{}})
	s.Require().NoError(err)
	s.Equal("http://api.local", client.baseURL)
}

func (s *ClientSuite) TestRequestHeaders() {
	doer := &recordingDoer{status: http.StatusOK, body: `{"status":"success","data":[]}`}
	client, err := New(Config{BaseURL: "http://api.local", HTTPClient: doer, Tokens: staticTokens{token: "tok"}})
	s.Require().NoError(err)

	_, err = client.PrivatePosts(s.ctx, ListQuery{})
	s.Require().NoError(err)

	s.Equal("application/json", doer.req.Header.Get("Accept"))
	s.NotEmpty(doer.req.Header.Get("X-Request-ID"))
	s.Equal("Bearer tok", doer.req.Header.Get("Authorization"))
	s.Equal("limit=10&page=1&searchTerm=", doer.req.URL.RawQuery)
}

func (s *ClientSuite) TestPublicCallCarriesNoToken() {
	doer := &recordingDoer{status: http.StatusOK, body: `{"status":"success","data":[]}`}
	client, err := New(Config{BaseURL: "http://api.local", HTTPClient: doer, Tokens: staticTokens{token: "tok"}})
	s.Require().NoError(err)

	_, err = client.PublicPosts(s.ctx)
	s.Require().NoError(err)
	s.Empty(doer.req.Header.Get("Authorization"))
}

func (s *ClientSuite) TestProtectedCallFailsFastWithoutToken() {
	server := apitest.New()
	defer server.Close()
	client, err := New(Config{BaseURL: server.URL(), Tokens: staticTokens{}})
	s.Require().NoError(err)

	before := server.Requests()
	_, err = client.PrivateProfile(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	s.Equal(before, server.Requests(), "fail-fast must not touch the transport")
}

func (s *ClientSuite) TestErrorMapping() {
	server := apitest.New()
	defer server.Close()
	client := s.authedClient(server)

	tests := []struct {
		name    string
		status  int
		message string
		want    dErrors.Code
	}{
		{name: "forbidden", status: http.StatusForbidden, message: "not yours", want: dErrors.CodeForbidden},
		{name: "not found", status: http.StatusNotFound, message: "gone", want: dErrors.CodeNotFound},
		{name: "conflict", status: http.StatusConflict, message: "duplicate", want: dErrors.CodeConflict},
		{name: "other 4xx", status: http.StatusUnprocessableEntity, message: "bad shape", want: dErrors.CodeBadRequest},
		{name: "server error", status: http.StatusInternalServerError, message: "boom", want: dErrors.CodeInternal},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			server.FailNext(tt.status, tt.message)
			_, err := client.Categories(s.ctx)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tt.want))
			s.Contains(err.Error(), tt.message)
		})
	}
}

func (s *ClientSuite) TestAuthRejectHookFiresOnProtected401() {
	server := apitest.New()
	defer server.Close()

	fired := 0
	client, err := New(Config{
		BaseURL:      server.URL(),
		Tokens:       staticTokens{token: "stale"},
		OnAuthReject: func() { fired++ },
	})
	s.Require().NoError(err)

	_, err = client.PrivateProfile(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	s.Equal(1, fired)

	// A rejected login is not a session failure.
	_, err = client.Login(s.ctx, LoginInput{Username: "ada", Password: "wrong"})
	s.Require().Error(err)
	s.Equal(1, fired)
}

func (s *ClientSuite) TestLoginDecodesFlatResponse() {
	server := apitest.New()
	defer server.Close()
	client := s.authedClient(server)

	creds, err := client.Login(s.ctx, LoginInput{Username: "ada", Password: "pw"})
	s.Require().NoError(err)
	s.Equal(apitest.UserID, creds.ID)
	s.Equal(apitest.Token, creds.Token)
	s.Equal("ada", creds.User().Username)
}

func (s *ClientSuite) TestCreatePostMultipart() {
	server := apitest.New()
	defer server.Close()
	client := s.authedClient(server)

	created, err := client.CreatePost(s.ctx, PostInput{
		Title:      "hello",
		Content:    "body",
		CategoryID: "c1",
		Image:      &File{Name: "cover.png", Data: []byte{0x89, 0x50}},
	})
	s.Require().NoError(err)
	s.Equal("hello", created.Title)
	s.Contains(created.Image, "cover.png")
	s.Require().NotNil(created.Category)
	s.Equal("c1", created.Category.ID)
}

func (s *ClientSuite) TestCreatePostRequiresImage() {
	server := apitest.New()
	defer server.Close()
	client := s.authedClient(server)

	before := server.Requests()
	_, err := client.CreatePost(s.ctx, PostInput{Title: "no image"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(before, server.Requests())
}

func (s *ClientSuite) TestUpdatePostImageOptional() {
	server := apitest.New()
	defer server.Close()
	server.SeedPost(domain.Post{ID: "p1", Title: "old", Image: "https://cdn.example.com/posts/old.png"})
	client := s.authedClient(server)

	updated, err := client.UpdatePost(s.ctx, "p1", PostInput{Title: "new"})
	s.Require().NoError(err)
	s.Equal("new", updated.Title)
	s.Contains(updated.Image, "old.png", "image untouched when no file is sent")
}

func (s *ClientSuite) TestUpdatePostRequireImagePolicy() {
	server := apitest.New()
	defer server.Close()
	server.SeedPost(domain.Post{ID: "p1", Title: "old"})

	client, err := New(Config{
		BaseURL:            server.URL(),
		Tokens:             staticTokens{token: apitest.Token},
		RequireUpdateImage: true,
	})
	s.Require().NoError(err)

	_, err = client.UpdatePost(s.ctx, "p1", PostInput{Title: "new"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ClientSuite) TestDeletePostReturnsMessage() {
	server := apitest.New()
	defer server.Close()
	server.SeedPost(domain.Post{ID: "p1"})
	client := s.authedClient(server)

	msg, err := client.DeletePost(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("post deleted", msg)

	_, err = client.Post(s.ctx, "p1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ClientSuite) TestBreakerShortCircuitsAfterRepeatedFailures() {
	server := apitest.New()
	defer server.Close()

	client, err := New(Config{
		BaseURL: server.URL(),
		Tokens:  staticTokens{token: apitest.Token},
		Breaker: circuit.New("api", circuit.WithFailureThreshold(2)),
	})
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		server.FailNext(http.StatusInternalServerError, "boom")
		_, err = client.Categories(s.ctx)
		s.Require().Error(err)
	}

	// The circuit is now open; calls fail without touching the transport.
	before := server.Requests()
	_, err = client.Categories(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(before, server.Requests())
}

func (s *ClientSuite) TestBreakerCountsRejectionsAsAnswers() {
	server := apitest.New()
	defer server.Close()

	breaker := circuit.New("api", circuit.WithFailureThreshold(2))
	client, err := New(Config{
		BaseURL: server.URL(),
		Tokens:  staticTokens{token: apitest.Token},
		Breaker: breaker,
	})
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		server.FailNext(http.StatusNotFound, "gone")
		_, err = client.Categories(s.ctx)
		s.Require().Error(err)
	}
	s.False(breaker.IsOpen(), "4xx answers must not open the circuit")
}

func (s *ClientSuite) TestTransportFailureIsUnavailable() {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1", Tokens: staticTokens{}})
	s.Require().NoError(err)

	_, err = client.PublicPosts(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
