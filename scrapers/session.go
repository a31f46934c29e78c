package scrapers

import (
	"context"
	"strings"
)

// CookieProvider supplies the session cookie sent on every portal request.
type CookieProvider interface {
	Cookie(ctx context.Context) (string, error)
}

// StaticCookie is a preconfigured cookie string, e.g. "ASP.NET_SessionId=abc".
type StaticCookie string

// Cookie returns the configured value.
func (c StaticCookie) Cookie(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(c)), nil
}

// CookieFunc adapts a function to CookieProvider.
type CookieFunc func(ctx context.Context) (string, error)

// Cookie calls f.
func (f CookieFunc) Cookie(ctx context.Context) (string, error) { return f(ctx) }
