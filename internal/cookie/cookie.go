// Package cookie sets and reads the API's cookies with one consistent
// domain, path and security policy.
package cookie

import (
	"net/http"
	"time"
)

const (
	// SessionCookieName carries the session token.
	SessionCookieName = "academy_session"

	// MarketingCookieName carries the marketing code of the last link the
	// visitor followed.
	MarketingCookieName = "academy_ref"
)

// Config holds the cookie policy.
type Config struct {
	// Domain scopes cookies to a parent domain so the front-end and the API
	// can share them. Empty means host-only.
	Domain string

	// Secure should be true everywhere but local development.
	Secure bool
}

func NewConfig(domain string, secure bool) *Config {
	return &Config{Domain: domain, Secure: secure}
}

func (c *Config) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSession stores the session token until expires.
func (c *Config) SetSession(w http.ResponseWriter, token string, expires time.Time) {
	ck := c.cookie(SessionCookieName, token)
	ck.Expires = expires.UTC()
	http.SetCookie(w, ck)
}

// ClearSession deletes the session cookie.
func (c *Config) ClearSession(w http.ResponseWriter) {
	ck := c.cookie(SessionCookieName, "")
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

// SetMarketingCode remembers a marketing code for ttl. Signup and checkout
// read it back to attribute the marketer.
func (c *Config) SetMarketingCode(w http.ResponseWriter, code string, ttl time.Duration) {
	ck := c.cookie(MarketingCookieName, code)
	ck.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, ck)
}

// Get returns the cookie value, or "" when it is absent.
func Get(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
