package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	IsAdmin  bool    `json:"is_admin"`
}

type NewUser struct {
	Username      string  `json:"username"`
	FullName      *string `json:"full_name,omitempty"`
	IsAdmin       bool    `json:"is_admin"`
	PlainPassword string  `json:"plain_password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type Client struct {
	r *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{r: r}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.r.R().SetContext(ctx).SetError(&errorResponse{})
	if token != "" {
		req.SetHeader(common.AuthorizationHeaderName, "Bearer "+token)
	}
	return req
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if e, ok := resp.Error().(*errorResponse); ok && e != nil {
		apiErr.Detail = e.Detail
	}
	return apiErr
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username string, password []byte) (string, error) {
	var out tokenResponse
	resp, err := c.request(ctx, "").
		SetFormData(map[string]string{"username": username, "password": string(password)}).
		SetResult(&out).
		Post("/token")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out []User
	resp, err := c.request(ctx, token).SetResult(&out).Get("/users")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, n NewUser) (*User, error) {
	var out User
	resp, err := c.request(ctx, token).SetBody(n).SetResult(&out).Post("/users")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// WhoAmI calls the token check endpoint and returns its greeting.
func (c *Client) WhoAmI(ctx context.Context, token string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	resp, err := c.request(ctx, token).SetResult(&out).Get("/test-auth")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.Text, nil
}
