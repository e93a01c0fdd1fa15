package client

import (
	"context"
	"fmt"
)

// AuthClient registers users and signs them in.
type AuthClient struct {
	client *Client
}

// Register creates an account and keeps the returned token on the client.
func (a *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*AuthPayload, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidConfig)
	}
	var out AuthPayload
	if err := a.client.post(ctx, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	a.client.SetToken(out.Token)
	return &out, nil
}

// Login signs in and keeps the returned token on the client.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthPayload
	if err := a.client.post(ctx, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	a.client.SetToken(out.Token)
	return &out, nil
}

func (a *AuthClient) Me(ctx context.Context) (*User, error) {
	var out User
	if err := a.client.get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
