// Package authclient is a typed HTTP client for the orgauth API, used
// by services that authenticate against it.
package authclient

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

	"orgauth.dev/internal/auth"
)

// APIError carries the remote status code and error message.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("orgauth: %s (status %d, request %s)", e.Message, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("orgauth: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to one orgauth deployment. It is safe for concurrent use
// once the session token is set.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken presets the session token, for callers that persist it
// across restarts.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the session token held by the client, empty before
// Login.
func (c *Client) Token() string { return c.token }

// Login exchanges credentials for a session token and keeps it for
// subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Token, error) {
	q := url.Values{"email": {email}, "password": {password}}
	var tok auth.Token
	if err := c.call(ctx, http.MethodGet, "/login?"+q.Encode(), nil, &tok); err != nil {
		return auth.Token{}, err
	}
	c.token = tok.ID
	return tok, nil
}

// Logout revokes the client's session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.call(ctx, http.MethodDelete, "/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) GetOrganization(ctx context.Context, id string) (auth.Organization, error) {
	var org auth.Organization
	err := c.call(ctx, http.MethodGet, "/organizations/"+url.PathEscape(id), nil, &org)
	return org, err
}

func (c *Client) StoreOrganization(ctx context.Context, org auth.Organization) (auth.Organization, error) {
	payload := struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}{org.ID, org.Name, org.Description}
	var stored auth.Organization
	err := c.call(ctx, http.MethodPost, "/organizations", payload, &stored)
	return stored, err
}

// StoreUserRequest is the payload for StoreUser.
type StoreUserRequest struct {
	Email            string    `json:"email"`
	Password         string    `json:"password"`
	Role             auth.Role `json:"role"`
	OrganizationName string    `json:"organization_name,omitempty"`
}

func (c *Client) StoreUser(ctx context.Context, organizationID string, req StoreUserRequest) (auth.User, error) {
	var user auth.User
	path := "/organizations/" + url.PathEscape(organizationID) + "/users"
	err := c.call(ctx, http.MethodPost, path, req, &user)
	return user, err
}

func (c *Client) GetUser(ctx context.Context, organizationID, email string) (auth.User, error) {
	var user auth.User
	path := "/organizations/" + url.PathEscape(organizationID) + "/users/" + url.PathEscape(email)
	err := c.call(ctx, http.MethodGet, path, nil, &user)
	return user, err
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("orgauth: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.RequestID = envelope.RequestID
	}
	return apiErr
}
