package client

import (
	"context"
	"net/http"

	"devfolio/internal/model"
)

// Login POST /auth/login。令牌持久化由调用方（auth.Holder）负责。
func (c *Client) Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register POST /auth/register.
func (c *Client) Register(ctx context.Context, creds model.RegisterCredentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "/auth/register", nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me GET /auth/me，用于校验已持久化的令牌。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var env dataEnvelope[model.User]
	if err := c.do(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}
