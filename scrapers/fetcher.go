package scrapers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	http "github.com/bogdanfinn/fhttp"

	"license-lookup-go/tlsclient"
)

// UserAgent is sent on every portal request and by the browser cookie
// bootstrap. It matches the Chrome_124 TLS fingerprint of the session.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.5"
	formEncoded    = "application/x-www-form-urlencoded"
)

// Doer is the part of tls_client.HttpClient the fetcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Page is a raw portal response.
type Page struct {
	URL        string
	StatusCode int
	Body       string
}

// Fetcher issues every request of a lookup run through one shared session.
// It is the run's client context: session, fixed headers, and cookie.
type Fetcher struct {
	client  Doer
	origin  string
	referer string
	cookies CookieProvider
	debug   bool

	cookie         string
	cookieResolved bool
}

// NewFetcher creates a fetcher for the portal. cookies may be nil, in which
// case the session's cookie jar picks the cookie up from the first response.
// When client has a cookie jar the provided cookie is seeded into it;
// otherwise it is sent as a Cookie header.
func NewFetcher(client Doer, portal Portal, cookies CookieProvider) *Fetcher {
	return &Fetcher{
		client:  client,
		origin:  portal.Origin(),
		referer: portal.BaseURL,
		cookies: cookies,
	}
}

// SetDebug enables a log line per request.
func (f *Fetcher) SetDebug(on bool) { f.debug = on }

// Fetch GETs rawURL. A non-nil form is sent form-encoded in the request
// body, which is how the portal expects its postbacks. Any status other
// than 200 is returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, form url.Values) (*Page, error) {
	cookie, err := f.sessionCookie(ctx)
	if err != nil {
		return nil, fmt.Errorf("mylicense: session cookie: %w", err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("mylicense: request build error: %w", err)
	}
	req.Header = f.header(cookie)

	if f.debug {
		log.Printf("mylicense: GET %s (%d form fields)", rawURL, len(form))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mylicense: GET %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mylicense: read body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return &Page{URL: rawURL, StatusCode: resp.StatusCode, Body: string(bodyBytes)}, nil
}

func (f *Fetcher) header(cookie string) http.Header {
	h := http.Header{
		"User-Agent":                {UserAgent},
		"Accept":                    {acceptHTML},
		"Accept-Language":           {acceptLanguage},
		"Content-Type":              {formEncoded},
		"Origin":                    {f.origin},
		"Connection":                {"keep-alive"},
		"Referer":                   {f.referer},
		"Upgrade-Insecure-Requests": {"1"},
	}
	order := []string{"User-Agent", "Accept", "Accept-Language", "Content-Type", "Origin", "Connection", "Referer"}
	if cookie != "" {
		h["Cookie"] = []string{cookie}
		order = append(order, "Cookie")
	}
	h[http.HeaderOrderKey] = append(order, "Upgrade-Insecure-Requests")
	return h
}

// sessionCookie resolves the cookie once per run and returns the value to
// send as a Cookie header, which is empty once the cookie lives in the jar.
func (f *Fetcher) sessionCookie(ctx context.Context) (string, error) {
	if f.cookieResolved || f.cookies == nil {
		return f.cookie, nil
	}
	c, err := f.cookies.Cookie(ctx)
	if err != nil {
		return "", err
	}
	if jar, ok := f.client.(tlsclient.CookieSetter); ok {
		n, err := tlsclient.SeedCookies(jar, f.referer, c)
		if err != nil {
			return "", err
		}
		if f.debug {
			log.Printf("mylicense: seeded %d cookies into session jar", n)
		}
		c = ""
	}
	f.cookie = c
	f.cookieResolved = true
	return c, nil
}
