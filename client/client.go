// Package client is a small typed client for the users API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"users-server/apperrors"
	"users-server/entities"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]entities.UserResponse, error) {
	var users []entities.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindUser returns nil, nil when the server has no such user.
func (c *Client) FindUser(ctx context.Context, username string) (*entities.UserResponse, error) {
	var user *entities.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) CreateUser(ctx context.Context, username, password string) (*entities.UserResponse, error) {
	var user entities.UserResponse
	req := entities.NewUserRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*entities.UserResponse, error) {
	var user entities.UserResponse
	req := entities.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/login", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody apperrors.Body
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		msg := errBody.Message
		if msg == "" {
			msg = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
