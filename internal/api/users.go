package api

import (
	"context"
	"net/http"

	"inkwell/internal/domain"
	dErrors "inkwell/pkg/domain-errors"
)

// Credentials is the flat auth-flow response: the user fields plus the token.
type Credentials struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
	Token    string `json:"token"`
}

// User converts the credentials into a user summary.
func (c Credentials) User() domain.UserSummary {
	return domain.UserSummary{ID: c.ID, Username: c.Username, Email: c.Email, Image: c.Image}
}

// LoginInput carries login credentials. Validation is the caller's concern.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterInput carries registration fields.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput carries profile updates. Empty fields are omitted.
type UpdateProfileInput struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

func (c *Client) Login(ctx context.Context, in LoginInput) (Credentials, error) {
	return doFlat[Credentials](ctx, c, http.MethodPost, "/users/login", in, false)
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (Credentials, error) {
	return doFlat[Credentials](ctx, c, http.MethodPost, "/users/register", in, false)
}

func (c *Client) PublicProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	return doJSON[domain.Profile](ctx, c, http.MethodGet, pathID("/users/public-profile/%s", userID), nil, false)
}

func (c *Client) PrivateProfile(ctx context.Context) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodGet, "/users/profile", nil, true)
}

func (c *Client) Follow(ctx context.Context, userID string) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodPut, pathID("/users/following/%s", userID), nil, true)
}

func (c *Client) Unfollow(ctx context.Context, userID string) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodPut, pathID("/users/unfollowing/%s", userID), nil, true)
}

func (c *Client) Block(ctx context.Context, userID string) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodPut, pathID("/users/block/%s", userID), nil, true)
}

func (c *Client) Unblock(ctx context.Context, userID string) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodPut, pathID("/users/unblock/%s", userID), nil, true)
}

func (c *Client) UploadProfileImage(ctx context.Context, file File) (domain.Profile, error) {
	return doMultipart[domain.Profile](ctx, c, http.MethodPut, "/users/profile-picture", nil, &file, true)
}

func (c *Client) UploadCoverImage(ctx context.Context, file File) (domain.Profile, error) {
	return doMultipart[domain.Profile](ctx, c, http.MethodPut, "/users/cover-image", nil, &file, true)
}

func (c *Client) SendVerificationEmail(ctx context.Context) (string, error) {
	out, err := doFlat[ack](ctx, c, http.MethodPut, "/users/account-verification-email", nil, true)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) VerifyAccount(ctx context.Context, verifyToken string) (string, error) {
	if verifyToken == "" {
		return "", dErrors.New(dErrors.CodeValidation, "verification token is required")
	}
	out, err := doFlat[ack](ctx, c, http.MethodGet, pathID("/users/account-verification/%s", verifyToken), nil, true)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	payload := map[string]string{"email": email}
	out, err := doFlat[ack](ctx, c, http.MethodPost, "/users/forgot-password", payload, false)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) (Credentials, error) {
	if resetToken == "" {
		return Credentials{}, dErrors.New(dErrors.CodeValidation, "reset token is required")
	}
	payload := map[string]string{"password": password}
	return doFlat[Credentials](ctx, c, http.MethodPost, pathID("/users/reset-password/%s", resetToken), payload, false)
}

func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileInput) (domain.Profile, error) {
	return doJSON[domain.Profile](ctx, c, http.MethodPut, "/users/update-profile", in, true)
}
