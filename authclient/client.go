// Package authclient talks to the HTTP authentication endpoint and
// implements goSession.Authenticator.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// maxResponseBytes bounds the endpoint answers read into memory.
const maxResponseBytes = 1 << 20

type loginRequest struct {
	Principal string `json:"principal"`
	Secret    string `json:"secret"`
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	User        wireUser `json:"user"`
}

type wireUser struct {
	ID    wireID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// wireID accepts both numeric and string ids.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("user id %s is not an integer", n)
	}
	*id = wireID(n.String())
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is an Authenticator for POST {base}/login and POST {base}/register.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New returns a client for the endpoint rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("auth url %q must be absolute", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Login(ctx context.Context, req goSession.Credentials) (goSession.AuthResponse, error) {
	return c.post(ctx, "login", loginRequest{Principal: req.Principal, Secret: req.Secret})
}

func (c *Client) Register(ctx context.Context, req goSession.Registration) (goSession.AuthResponse, error) {
	return c.post(ctx, "register", registerRequest{Name: req.Name, Email: req.Email, Secret: req.Secret})
}

func (c *Client) post(ctx context.Context, path string, body any) (goSession.AuthResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return goSession.AuthResponse{}, err
	}
	target := c.base.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(data))
	if err != nil {
		return goSession.AuthResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return goSession.AuthResponse{}, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return goSession.AuthResponse{}, fmt.Errorf("%s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(payload, &e)
		return goSession.AuthResponse{}, &goSession.EndpointError{Status: resp.StatusCode, Message: e.Error}
	}

	var ok authResponse
	if err := json.Unmarshal(payload, &ok); err != nil {
		return goSession.AuthResponse{}, fmt.Errorf("decode %s response: %w", path, err)
	}
	return goSession.AuthResponse{
		Credential: ok.AccessToken,
		User: goSession.Identity{
			ID:          string(ok.User.ID),
			DisplayName: ok.User.Name,
			Email:       ok.User.Email,
			Role:        goSession.Role(ok.User.Role),
		},
	}, nil
}
