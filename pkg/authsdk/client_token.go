package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Register creates an account with an invite code.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	return c.requestToken(ctx, "/auth/register", req, http.StatusOK)
}

// Login authenticates with email and password.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.requestToken(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, http.StatusOK)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// stops working once this returns successfully.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.requestToken(ctx, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, path string, payload any, expectedStatus int) (*TokenResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, expectedStatus); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
