// Package apitest provides an in-process fake of the remote blog API for
// store and client tests. It mimics the server's wire shapes (the data
// envelope, flat auth responses, {"message": ...} error payloads) and keeps
// just enough in-memory state to exercise the client's state-sync semantics.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/domain"
)

const (
	// Token is the bearer token the fake accepts.
	Token = "test-token"

	// UserID identifies the authenticated fixture user.
	UserID = "u-self"
)

// Server is the fake API. Zero-value state is an empty blog.
type Server struct {
	mu sync.Mutex

	posts      map[string]*domain.Post
	categories []domain.Category
	profile    domain.Profile
	comments   int

	// requests counts every HTTP request that reached the fake; assertions on
	// "no network call was issued" read it.
	requests atomic.Int64

	// failNext, when set, makes the next matched call answer with this status
	// and message, then resets.
	failNext     int
	failNextBody string

	httpServer *httptest.Server
}

// New starts the fake with an authenticated fixture user profile.
func New() *Server {
	s := &Server{
		posts: make(map[string]*domain.Post),
		profile: domain.Profile{
			ID:       UserID,
			Username: "self",
			Email:    "self@example.com",
		},
	}
	s.httpServer = httptest.NewServer(s.router())
	return s
}

// Close shuts the fake down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// URL returns the base URL including the /api/v1 prefix.
func (s *Server) URL() string {
	return s.httpServer.URL + "/api/v1"
}

// Requests returns how many requests have reached the fake.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// FailNext makes the next matched request answer with the given status and
// server-shaped error payload.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
	s.failNextBody = message
}

// SeedPost installs a post fixture.
func (s *Server) SeedPost(post domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := post
	s.posts[post.ID] = &p
}

// SeedCategories installs the category fixtures.
func (s *Server) SeedCategories(categories ...domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
}

// Post returns a copy of the stored post.
func (s *Server) Post(id string) (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return domain.Post{}, false
	}
	return *p, true
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/login", s.handleLogin)
		r.Post("/users/register", s.handleRegister)
		r.Get("/users/public-profile/{id}", s.handlePublicProfile)
		r.Post("/users/forgot-password", s.handleAck("password reset email sent"))
		r.Post("/users/reset-password/{token}", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/users/profile", s.handleProfile)
			r.Put("/users/following/{id}", s.handleFollow)
			r.Put("/users/unfollowing/{id}", s.handleUnfollow)
			r.Put("/users/block/{id}", s.handleBlock)
			r.Put("/users/unblock/{id}", s.handleUnblock)
			r.Put("/users/profile-picture", s.handleUploadImage("profile"))
			r.Put("/users/cover-image", s.handleUploadImage("cover"))
			r.Put("/users/account-verification-email", s.handleAck("verification email sent"))
			r.Get("/users/account-verification/{token}", s.handleAck("account verified"))
			r.Put("/users/update-profile", s.handleUpdateProfile)
		})

		r.Get("/posts/public-posts", s.handlePublicPosts)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Get("/categories", s.handleCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/posts", s.handlePrivatePosts)
			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Put("/posts/likes/{id}", s.handleReaction(reactionLike))
			r.Put("/posts/dislikes/{id}", s.handleReaction(reactionDislike))
			r.Put("/posts/claps/{id}", s.handleReaction(reactionClap))
			r.Put("/posts/{id}/post-view-count", s.handleReaction(reactionView))
			r.Post("/comments/{postID}", s.handleCreateComment)
		})
	})
	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		s.mu.Lock()
		status, body := s.failNext, s.failNextBody
		s.failNext, s.failNextBody = 0, ""
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header != "Bearer "+Token {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeFlat(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if in.Password == "wrong" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeFlat(w, map[string]string{
		"_id":      UserID,
		"username": in.Username,
		"email":    in.Username + "@example.com",
		"token":    Token,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		writeError(w, http.StatusBadRequest, "registration fields are required")
		return
	}
	writeFlat(w, map[string]string{
		"_id":      UserID,
		"username": in.Username,
		"email":    in.Email,
		"token":    Token,
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") == "expired" {
		writeError(w, http.StatusBadRequest, "reset token expired")
		return
	}
	writeFlat(w, map[string]string{
		"_id":      UserID,
		"username": "self",
		"email":    "self@example.com",
		"token":    Token,
	})
}

func (s *Server) handleAck(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeFlat(w, map[string]string{"status": "success", "message": message})
	}
}

func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	writeData(w, domain.Profile{
		ID:       chi.URLParam(r, "id"),
		Username: "someone",
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, s.profile)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := chi.URLParam(r, "id")
	if !containsUser(s.profile.Following, target) {
		s.profile.Following = append(s.profile.Following, domain.UserSummary{ID: target})
	}
	writeData(w, s.profile)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Unfollowing someone not followed is idempotent on the server.
	s.profile.Following = removeUser(s.profile.Following, chi.URLParam(r, "id"))
	writeData(w, s.profile)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := chi.URLParam(r, "id")
	if !containsUser(s.profile.BlockedUsers, target) {
		s.profile.BlockedUsers = append(s.profile.BlockedUsers, domain.UserSummary{ID: target})
	}
	writeData(w, s.profile)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.BlockedUsers = removeUser(s.profile.BlockedUsers, chi.URLParam(r, "id"))
	writeData(w, s.profile)
}

func (s *Server) handleUploadImage(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "multipart form expected")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file part is required")
			return
		}
		file.Close()

		s.mu.Lock()
		defer s.mu.Unlock()
		url := "https://cdn.example.com/" + kind + "/" + header.Filename
		if kind == "cover" {
			s.profile.CoverImage = url
		} else {
			s.profile.Image = url
		}
		writeData(w, s.profile)
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Bio      string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Username != "" {
		s.profile.Username = in.Username
	}
	if in.Email != "" {
		s.profile.Email = in.Email
	}
	if in.Bio != "" {
		s.profile.Bio = in.Bio
	}
	writeData(w, s.profile)
}

func (s *Server) handlePublicPosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p)
	}
	writeData(w, posts)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, s.categories)
}

func (s *Server) handlePrivatePosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term := r.URL.Query().Get("searchTerm")
	posts := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.Author.ID != UserID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(term)) {
			continue
		}
		posts = append(posts, *p)
	}
	writeData(w, domain.PostPage{Posts: posts, Page: 1, Pages: 1, Total: len(posts)})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeData(w, *p)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form expected")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "post image is required")
		return
	}
	file.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("p-%d", len(s.posts)+1)
	post := domain.Post{
		ID:      id,
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Image:   "https://cdn.example.com/posts/" + header.Filename,
		Author:  domain.UserSummary{ID: UserID, Username: s.profile.Username},
	}
	if catID := r.FormValue("categoryId"); catID != "" {
		post.Category = &domain.Category{ID: catID}
	}
	s.posts[id] = &post
	writeData(w, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form expected")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if title := r.FormValue("title"); title != "" {
		p.Title = title
	}
	if content := r.FormValue("content"); content != "" {
		p.Content = content
	}
	if file, header, err := r.FormFile("file"); err == nil {
		file.Close()
		p.Image = "https://cdn.example.com/posts/" + header.Filename
	}
	writeData(w, *p)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.posts[id]; !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	delete(s.posts, id)
	writeFlat(w, map[string]string{"status": "success", "message": "post deleted"})
}

type reaction int

const (
	reactionLike reaction = iota
	reactionDislike
	reactionClap
	reactionView
)

func (s *Server) handleReaction(kind reaction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.posts[chi.URLParam(r, "id")]
		if !ok {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		switch kind {
		case reactionLike:
			p.Dislikes = removeID(p.Dislikes, UserID)
			if !containsID(p.Likes, UserID) {
				p.Likes = append(p.Likes, UserID)
			}
		case reactionDislike:
			p.Likes = removeID(p.Likes, UserID)
			if !containsID(p.Dislikes, UserID) {
				p.Dislikes = append(p.Dislikes, UserID)
			}
		case reactionClap:
			p.Claps++
		case reactionView:
			if !containsID(p.PostViews, UserID) {
				p.PostViews = append(p.PostViews, UserID)
			}
		}
		writeData(w, *p)
	}
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Message == "" {
		writeError(w, http.StatusBadRequest, "comment message is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	postID := chi.URLParam(r, "postID")
	p, ok := s.posts[postID]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	s.comments++
	comment := domain.Comment{
		ID:      fmt.Sprintf("c-%d", s.comments),
		Message: in.Message,
		PostID:  postID,
		Author:  domain.UserSummary{ID: UserID, Username: s.profile.Username},
	}
	p.Comments = append(p.Comments, comment)
	writeData(w, comment)
}

func containsUser(users []domain.UserSummary, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func removeUser(users []domain.UserSummary, id string) []domain.UserSummary {
	out := users[:0]
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
