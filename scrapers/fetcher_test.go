package scrapers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-lookup-go/scrapers"
	"license-lookup-go/scrapers/scraperstest"
	"license-lookup-go/tlsclient"
)

func TestFetchSendsFixedHeaders(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	f := scrapers.NewFetcher(site, site.Portal(), scrapers.StaticCookie("ASP.NET_SessionId=abc123"))

	page, err := f.Fetch(context.Background(), site.Portal().SearchURL(), nil)
	require.NoError(t, err)
	assert.Equal(t, 200, page.StatusCode)
	assert.Contains(t, page.Body, "__VIEWSTATE")

	require.Len(t, site.Requests, 1)
	h := site.Requests[0].Header
	assert.Equal(t, scrapers.UserAgent, h.Get("User-Agent"))
	assert.NotEmpty(t, h.Get("Accept"))
	assert.NotEmpty(t, h.Get("Accept-Language"))
	assert.Equal(t, "application/x-www-form-urlencoded", h.Get("Content-Type"))
	assert.Equal(t, "https://fake.mylicense.test", h.Get("Origin"))
	assert.Equal(t, scraperstest.BaseURL, h.Get("Referer"))
	assert.Equal(t, "keep-alive", h.Get("Connection"))
	assert.Equal(t, "ASP.NET_SessionId=abc123", h.Get("Cookie"))
}

func TestFetchSendsFormBody(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	f := scrapers.NewFetcher(site, site.Portal(), nil)

	form := url.Values{"CurrentPageIndex": {"0"}, "__VIEWSTATE": {"a+b/c=="}}
	_, err := f.Fetch(context.Background(), site.Portal().ResultsURL(), form)
	require.NoError(t, err)

	require.Len(t, site.Requests, 1)
	assert.Equal(t, form, site.Requests[0].Form)
	assert.Empty(t, site.Requests[0].Header.Get("Cookie"))
}

func TestFetchNon200(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	site.Status = map[string]int{"/verification/Search.aspx": 503}
	f := scrapers.NewFetcher(site, site.Portal(), nil)

	_, err := f.Fetch(context.Background(), site.Portal().SearchURL(), nil)
	var fetchErr *scrapers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 503, fetchErr.StatusCode)
	assert.Equal(t, site.Portal().SearchURL(), fetchErr.URL)
}

func TestFetchResolvesCookieOnce(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	calls := 0
	cookies := scrapers.CookieFunc(func(ctx context.Context) (string, error) {
		calls++
		return "ASP.NET_SessionId=browser", nil
	})
	f := scrapers.NewFetcher(site, site.Portal(), cookies)

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), site.Portal().SearchURL(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
	for _, r := range site.Requests {
		assert.Equal(t, "ASP.NET_SessionId=browser", r.Header.Get("Cookie"))
	}
}

func TestFetchCookieProviderError(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	boom := errors.New("no browser")
	f := scrapers.NewFetcher(site, site.Portal(), scrapers.CookieFunc(func(ctx context.Context) (string, error) {
		return "", boom
	}))

	_, err := f.Fetch(context.Background(), site.Portal().SearchURL(), nil)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, site.Requests)
}

func TestFetchSendsProvidedCookieOnceThroughSessionJar(t *testing.T) {
	var (
		mu   sync.Mutex
		seen [][]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Values("Cookie"))
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "fromserver", Path: "/", HttpOnly: true})
		_, _ = w.Write([]byte(scraperstest.SearchPage()))
	}))
	defer srv.Close()

	portal, err := scrapers.LookupPortal("idbop", srv.URL+"/verification/")
	require.NoError(t, err)
	session, err := tlsclient.New(tlsclient.WithPinnedCookies()).NewSession()
	require.NoError(t, err)

	f := scrapers.NewFetcher(session, portal, scrapers.StaticCookie("ASP.NET_SessionId=static"))
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), portal.SearchURL(), nil)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	for i, cookies := range seen {
		assert.Equal(t, []string{"ASP.NET_SessionId=static"}, cookies, "request %d", i+1)
	}
}
