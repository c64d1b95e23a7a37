package api

import (
	"context"
	"net/http"

	"inkwell/internal/domain"
)

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return doJSON[[]domain.Category](ctx, c, http.MethodGet, "/categories", nil, false)
}
