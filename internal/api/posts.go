package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"inkwell/internal/domain"
	dErrors "inkwell/pkg/domain-errors"
)

// PostInput carries the create/update form. Image is optional on update unless
// the client was configured with RequireUpdateImage.
type PostInput struct {
	Title      string
	Content    string
	CategoryID string
	Image      *File
}

func (in PostInput) fields() map[string]string {
	return map[string]string{
		"title":      in.Title,
		"content":    in.Content,
		"categoryId": in.CategoryID,
	}
}

// ListQuery selects a page of the caller's private posts.
type ListQuery struct {
	Page       int
	Limit      int
	SearchTerm string
}

func (q ListQuery) encode() string {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	values := url.Values{}
	values.Set("page", fmt.Sprintf("%d", page))
	values.Set("limit", fmt.Sprintf("%d", limit))
	values.Set("searchTerm", q.SearchTerm)
	return values.Encode()
}

func (c *Client) PublicPosts(ctx context.Context) ([]domain.Post, error) {
	return doJSON[[]domain.Post](ctx, c, http.MethodGet, "/posts/public-posts", nil, false)
}

func (c *Client) PrivatePosts(ctx context.Context, q ListQuery) (domain.PostPage, error) {
	return doJSON[domain.PostPage](ctx, c, http.MethodGet, "/posts?"+q.encode(), nil, true)
}

func (c *Client) Post(ctx context.Context, postID string) (domain.Post, error) {
	if postID == "" {
		return domain.Post{}, dErrors.New(dErrors.CodeValidation, "post id is required")
	}
	return doJSON[domain.Post](ctx, c, http.MethodGet, pathID("/posts/%s", postID), nil, false)
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (domain.Post, error) {
	if in.Image == nil {
		return domain.Post{}, dErrors.New(dErrors.CodeValidation, "post image is required")
	}
	return doMultipart[domain.Post](ctx, c, http.MethodPost, "/posts", in.fields(), in.Image, true)
}

func (c *Client) UpdatePost(ctx context.Context, postID string, in PostInput) (domain.Post, error) {
	if postID == "" {
		return domain.Post{}, dErrors.New(dErrors.CodeValidation, "post id is required")
	}
	if in.Image == nil && c.requireImage {
		return domain.Post{}, dErrors.New(dErrors.CodeValidation, "post image is required")
	}
	return doMultipart[domain.Post](ctx, c, http.MethodPut, pathID("/posts/%s", postID), in.fields(), in.Image, true)
}

func (c *Client) DeletePost(ctx context.Context, postID string) (string, error) {
	if postID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "post id is required")
	}
	out, err := doFlat[ack](ctx, c, http.MethodDelete, pathID("/posts/%s", postID), nil, true)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) LikePost(ctx context.Context, postID string) (domain.Post, error) {
	return doJSON[domain.Post](ctx, c, http.MethodPut, pathID("/posts/likes/%s", postID), nil, true)
}

func (c *Client) DislikePost(ctx context.Context, postID string) (domain.Post, error) {
	return doJSON[domain.Post](ctx, c, http.MethodPut, pathID("/posts/dislikes/%s", postID), nil, true)
}

func (c *Client) ClapPost(ctx context.Context, postID string) (domain.Post, error) {
	return doJSON[domain.Post](ctx, c, http.MethodPut, pathID("/posts/claps/%s", postID), nil, true)
}

func (c *Client) RecordPostView(ctx context.Context, postID string) (domain.Post, error) {
	return doJSON[domain.Post](ctx, c, http.MethodPut, pathID("/posts/%s/post-view-count", postID), nil, true)
}
