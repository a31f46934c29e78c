package tlsclient

import (
	"fmt"
	"net/url"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	tls_client_profiles "github.com/bogdanfinn/tls-client/profiles"
)

// defaultTimeoutSeconds is the only network timeout a lookup run has.
const defaultTimeoutSeconds = 90

// Client is a factory for the HTTP session a lookup run shares across all
// of its requests.
type Client struct {
	timeoutSeconds int
	profile        tls_client_profiles.ClientProfile
	pinCookies     bool
}

// Option configures a Client.
type Option func(*Client)

// WithPinnedCookies makes the session jar keep a cookie it already holds
// when a response sets another cookie of the same name. Use it when the
// session cookie is supplied up front and must survive the whole run.
func WithPinnedCookies() Option {
	return func(c *Client) { c.pinCookies = true }
}

// New creates a factory producing Chrome_124 fingerprinted sessions.
func New(opts ...Option) *Client {
	c := &Client{
		timeoutSeconds: defaultTimeoutSeconds,
		profile:        tls_client_profiles.Chrome_124,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewSession creates an HTTP client with its own cookie jar. The portal's
// ASP.NET session cookie lands in the jar on the first response, so one
// session must be reused for the whole run and never across runs.
func (c *Client) NewSession() (tls_client.HttpClient, error) {
	var jarOpts []tls_client.CookieJarOption
	if c.pinCookies {
		jarOpts = append(jarOpts, tls_client.WithSkipExisting())
	}
	jar := tls_client.NewCookieJar(jarOpts...)

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(c.timeoutSeconds),
		tls_client.WithClientProfile(c.profile),
		tls_client.WithCookieJar(jar),
	}

	client, err := tls_client.NewHttpClient(nil, options...)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// CookieSetter is the jar half of tls_client.HttpClient.
type CookieSetter interface {
	SetCookies(u *url.URL, cookies []*http.Cookie)
}

// SeedCookies stores every cookie of a Cookie header value, e.g.
// "ASP.NET_SessionId=abc; lang=en", in the jar for rawURL. The session then
// sends them itself, once each, instead of alongside a hand-set header.
func SeedCookies(jar CookieSetter, rawURL, header string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("tlsclient: seed url: %w", err)
	}

	cookies := http.ReadCookies(http.Header{"Cookie": {header}}, "")
	if len(cookies) == 0 {
		return 0, fmt.Errorf("tlsclient: no cookies in %q", header)
	}
	for _, c := range cookies {
		c.Path = "/"
	}

	jar.SetCookies(u, cookies)
	return len(cookies), nil
}
