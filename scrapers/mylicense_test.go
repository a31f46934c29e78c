package scrapers_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-lookup-go/scrapers"
	"license-lookup-go/scrapers/scraperstest"
)

func newScraper(site *scraperstest.Portal, opts ...scrapers.Option) *scrapers.Scraper {
	return scrapers.NewScraper(site.Portal(), scrapers.NewFetcher(site, site.Portal(), nil), opts...)
}

func TestLookupVisitsEveryPage(t *testing.T) {
	site := scraperstest.Site([][]string{{"a1", "a2"}, {"b1"}, {"c1", "c2"}})

	var visited []int
	s := newScraper(site, scrapers.WithPageVisitor(func(pageIndex, records int) {
		visited = append(visited, pageIndex)
	}))

	result, err := s.Lookup(context.Background(), scrapers.SearchCriteria{LastName: "L", LicenseType: "Pharmacist"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, []int{1, 2, 3}, visited)

	var got []string
	for _, r := range result.Records {
		got = append(got, r.LicenseNumber)
	}
	assert.Equal(t, []string{"RPH-a1", "RPH-a2", "RPH-b1", "RPH-c1", "RPH-c2"}, got)

	// Exactly K results requests: the search plus one postback per further page.
	assert.Len(t, site.RequestsTo("/SearchResults.aspx"), 3)
	assert.Len(t, site.RequestsTo("/Search.aspx"), 1)
	assert.Len(t, site.RequestsTo("/Details.aspx"), 5)
}

func TestLookupThreadsStateFromCurrentPage(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}, {"b"}, {"c"}})

	_, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{LastName: "L"})
	require.NoError(t, err)

	results := site.RequestsTo("/SearchResults.aspx")
	require.Len(t, results, 3)

	search := results[0].Form
	assert.Equal(t, "vs-search", search.Get("__VIEWSTATE"))
	assert.Equal(t, "ev-search", search.Get("__EVENTVALIDATION"))
	assert.Equal(t, "gen-search", search.Get("__VIEWSTATEGENERATOR"))
	assert.Equal(t, "t_web_lookup__license_type_name", search.Get("__EVENTTARGET"))
	assert.Equal(t, "Search", search.Get("sch_button"))
	assert.Equal(t, "L", search.Get("t_web_lookup__last_name"))

	for i, r := range results[1:] {
		n := i + 2
		prev := "p" + strconv.Itoa(n-1)
		assert.Equal(t, strconv.Itoa(n-1), r.Form.Get("CurrentPageIndex"), "page %d", n)
		assert.Equal(t, scraperstest.PagerTarget(n), r.Form.Get("__EVENTTARGET"), "page %d", n)
		assert.Equal(t, "vs-"+prev, r.Form.Get("__VIEWSTATE"), "page %d", n)
		assert.Equal(t, "ev-"+prev, r.Form.Get("__EVENTVALIDATION"), "page %d", n)
		assert.Equal(t, "gen-"+prev, r.Form.Get("__VIEWSTATEGENERATOR"), "page %d", n)
		assert.Len(t, r.Form, 7)
	}
}

func TestLookupDetailRequest(t *testing.T) {
	site := scraperstest.Site([][]string{{"tok9"}})

	_, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	require.NoError(t, err)

	details := site.RequestsTo("/Details.aspx")
	require.Len(t, details, 1)
	assert.Equal(t, scraperstest.BaseURL+"Details.aspx?result=tok9", details[0].URL)
	assert.Equal(t, "Details.aspx?result=tok9", details[0].Form.Get("result"))
}

func TestLookupSinglePage(t *testing.T) {
	site := scraperstest.Site([][]string{{"only"}})

	result, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	require.Len(t, result.Records, 1)
	assert.Equal(t, scraperstest.Record("only"), result.Records[0])
}

func TestLookupNoResults(t *testing.T) {
	site := scraperstest.Site([][]string{{}})

	result, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{LastName: "Zz"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
}

func TestLookupStopsAtPagerGap(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}, {"b"}})
	// Page 1 only links to page 3, which is not followed.
	site.Results[1] = scraperstest.ResultsPage(1, []string{"a"}, []int{1, 3})

	result, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, site.RequestsTo("/SearchResults.aspx"), 1)
}

func TestLookupMaxPages(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}, {"b"}, {"c"}})

	result, err := newScraper(site, scrapers.WithMaxPages(2)).Lookup(context.Background(), scrapers.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Records, 2)
	assert.Len(t, site.RequestsTo("/SearchResults.aspx"), 2)
}

func TestLookupSearchPageFailure(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	site.Status = map[string]int{"/verification/Search.aspx": 500}

	_, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	var fetchErr *scrapers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 500, fetchErr.StatusCode)
	assert.Empty(t, site.RequestsTo("/SearchResults.aspx"))
}

func TestLookupDetailFailureAborts(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}, {"b1", "b2"}, {"c"}})
	f := site.Portal().Fields
	site.Details["b2"] = strings.Replace(site.Details["b2"], `id="`+f.Expiry+`"`, `id="x"`, 1)

	result, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	assert.Nil(t, result)
	var extErr *scrapers.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Contains(t, err.Error(), "page 2")
	assert.Contains(t, err.Error(), "Details.aspx?result=b2")

	// Page 3 is never requested.
	assert.Len(t, site.RequestsTo("/SearchResults.aspx"), 2)
}

func TestLookupMissingResultsTable(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}, {"b"}})
	site.Results[2] = `<html><body><p>Session expired</p></body></html>`

	_, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	var extErr *scrapers.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "table#datagrid_results", extErr.Element)
}

func TestLookupBadPagerHref(t *testing.T) {
	site := scraperstest.Site([][]string{{"a"}})
	site.Results[1] = strings.Replace(scraperstest.ResultsPage(1, []string{"a"}, nil),
		"</table>", `<tr><td><a href="SearchResults.aspx?page=2">2</a></td></tr></table>`, 1)

	_, err := newScraper(site).Lookup(context.Background(), scrapers.SearchCriteria{})
	var pbErr *scrapers.PostbackParseError
	require.True(t, errors.As(err, &pbErr))
}

func TestFetchDetail(t *testing.T) {
	site := scraperstest.Site([][]string{{"zz"}})

	rec, err := newScraper(site).FetchDetail(context.Background(), "Details.aspx?result=zz")
	require.NoError(t, err)
	assert.Equal(t, scraperstest.Record("zz"), rec)
}

func TestFetchDetailNotFound(t *testing.T) {
	site := scraperstest.Site([][]string{{"zz"}})

	_, err := newScraper(site).FetchDetail(context.Background(), "Details.aspx?result=missing")
	var fetchErr *scrapers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 404, fetchErr.StatusCode)
}
