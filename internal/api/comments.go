package api

import (
	"context"
	"net/http"

	"inkwell/internal/domain"
	dErrors "inkwell/pkg/domain-errors"
)

// CommentInput carries a new comment for a post.
type CommentInput struct {
	PostID  string
	Message string
}

func (c *Client) CreateComment(ctx context.Context, in CommentInput) (domain.Comment, error) {
	if in.PostID == "" {
		return domain.Comment{}, dErrors.New(dErrors.CodeValidation, "post id is required")
	}
	payload := map[string]string{"message": in.Message}
	return doJSON[domain.Comment](ctx, c, http.MethodPost, pathID("/comments/%s", in.PostID), payload, true)
}
