package store

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultCookieName is the cookie CookiePrimary writes the credential to.
const DefaultCookieName = "gosession_token"

// CookiePrimary keeps the credential as a cookie scoped to the API origin, so
// any http.Client sharing the jar sends it along.
//
// The jar expires cookies against the wall clock. WithClock only shifts the
// Expires attribute written by SetPrimary; it does not change when the jar
// stops returning the cookie.
type CookiePrimary struct {
	jar    http.CookieJar
	origin *url.URL
	opts   options
}

// NewCookiePrimary creates a cookie slot for origin in a fresh jar that
// respects the public suffix list.
func NewCookiePrimary(origin string, opts ...Option) (*CookiePrimary, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse cookie origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("cookie origin %q must be absolute", origin)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return NewCookiePrimaryWithJar(jar, u, opts...), nil
}

// NewCookiePrimaryWithJar uses an existing jar, for clients that already
// carry one.
func NewCookiePrimaryWithJar(jar http.CookieJar, origin *url.URL, opts ...Option) *CookiePrimary {
	return &CookiePrimary{jar: jar, origin: origin, opts: applyOptions(opts)}
}

// Jar returns the underlying cookie jar.
func (c *CookiePrimary) Jar() http.CookieJar {
	return c.jar
}

func (c *CookiePrimary) SetPrimary(_ context.Context, raw string, ttl time.Duration) error {
	if err := checkCredential(raw, ttl, c.opts.maxBytes); err != nil {
		return err
	}
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:     c.opts.cookieName,
		Value:    raw,
		Path:     "/",
		Expires:  c.opts.now().Add(ttl),
		Secure:   c.origin.Scheme == "https",
		SameSite: http.SameSiteStrictMode,
	}})
	return nil
}

func (c *CookiePrimary) GetPrimary(context.Context) (string, bool, error) {
	for _, cookie := range c.jar.Cookies(c.origin) {
		if cookie.Name == c.opts.cookieName && cookie.Value != "" {
			return cookie.Value, true, nil
		}
	}
	return "", false, nil
}

func (c *CookiePrimary) ClearPrimary(context.Context) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:   c.opts.cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})
	return nil
}
