package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCredentials is returned when the provider rejects a sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoSession is returned when a token does not resolve to a live session.
var ErrNoSession = errors.New("no active session")

// Session is the identity the auth provider vouches for. Flows receive it
// explicitly; nothing in this process holds a global current user.
type Session struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
}

// Client talks to the external auth provider. Sign-in internals (hashing,
// token issuance, expiry) are the provider's business; this is an opaque
// capability that turns credentials or tokens into a Session.
type Client struct {
	client *resty.Client
	logger *logrus.Logger
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		logger: logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	Error       string    `json:"error"`
}

// SignUp registers a new user and returns the fresh session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.postCredentials(ctx, "/auth/v1/signup", email, password)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.postCredentials(ctx, "/auth/v1/token", email, password)
}

// SignOut revokes the session behind the token. Revoking an already-dead
// token is not an error.
func (c *Client) SignOut(ctx context.Context, token string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return fmt.Errorf("auth provider returned %s on sign-out", resp.Status())
	}
	return nil
}

// Lookup resolves a bearer token to its session.
func (c *Client) Lookup(ctx context.Context, token string) (*Session, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, ErrNoSession
	}
	if resp.IsError() {
		return nil, fmt.Errorf("auth provider returned %s on session lookup", resp.Status())
	}

	var body sessionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &Session{
		UserID:      body.UserID,
		Email:       body.Email,
		AccessToken: token,
	}, nil
}

func (c *Client) postCredentials(ctx context.Context, endpoint, email, password string) (*Session, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(credentials{Email: email, Password: password}).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}

	var body sessionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth response: %w", err)
	}

	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusBadRequest {
		c.logger.WithField("email", email).Warn("Auth provider rejected credentials")
		return nil, ErrInvalidCredentials
	}
	if resp.IsError() {
		return nil, fmt.Errorf("auth provider returned %s: %s", resp.Status(), body.Error)
	}

	return &Session{
		UserID:      body.UserID,
		Email:       body.Email,
		AccessToken: body.AccessToken,
	}, nil
}
