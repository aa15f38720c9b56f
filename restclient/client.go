// Package restclient is a JSON client for the club API. Requests go through
// the transport hook, so they carry the session credential and a 401 or 403
// ends the session.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/transport"
)

// APIError is a failed API call. Status is 0 when no response was received.
type APIError struct {
	Status  int
	Message string
	Errors  []string
	// Details is the decoded response body, when there was one.
	Details any
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// envelope is the standard response shape {success, data, message, errors}.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

// Envelope is the standard success body. Decode into it when an endpoint
// wraps its payload.
type Envelope[T any] struct {
	Success bool     `json:"success"`
	Data    T        `json:"data"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Client sends JSON requests relative to a base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  goSession.Logger
	rt      http.RoundTripper
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseTransport sets the transport underneath the session hook.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.rt = rt
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l goSession.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for baseURL whose requests are authenticated by session.
func New(baseURL string, session transport.Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   u,
		logger: goSession.NewSlogLogger(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Transport: transport.New(c.rt, session),
		Timeout:   c.timeout,
	}
	return c, nil
}

// Get decodes the response of GET endpoint into out. Nil or empty query
// values are skipped.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPatch, endpoint, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	target, err := c.resolve(endpoint, query)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("Endpoint inválido: %s", endpoint), Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "Erro ao serializar requisição", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("Erro na requisição %s para %s", method, endpoint), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{
			Message: fmt.Sprintf("Erro na requisição %s para %s: %v", method, endpoint, err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	err = handleResponse(resp, out)
	c.logger.Info(ctx, "api request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func (c *Client) resolve(endpoint string, query url.Values) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	u := c.base.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				if v != "" {
					q.Add(key, v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func handleResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "Erro ao processar resposta da API", Err: err}
	}
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	var details any
	var env envelope
	if isJSON && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &details); err != nil {
			return &APIError{Status: resp.StatusCode, Message: "Erro ao processar resposta da API", Err: err}
		}
		// Non-object bodies such as arrays carry no envelope.
		_ = json.Unmarshal(data, &env)
	} else if len(data) > 0 {
		details = string(data)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("Erro HTTP %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Errors: env.Errors, Details: details}
	}

	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Operação falhou"
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Errors: env.Errors, Details: details}
	}

	if out == nil || !isJSON || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "Erro ao processar resposta da API", Err: err}
	}
	return nil
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
