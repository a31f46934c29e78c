// Package scraperstest provides an in-memory mylicense portal for tests.
package scraperstest

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	http "github.com/bogdanfinn/fhttp"

	"license-lookup-go/scrapers"
)

// BaseURL is the base URL the fake portal answers for.
const BaseURL = "https://fake.mylicense.test/verification/"

// Request is one request the fake portal received.
type Request struct {
	URL    string
	Path   string
	Header http.Header
	Form   url.Values
}

// Portal serves a search page, numbered results pages and detail pages.
// It implements scrapers.Doer.
type Portal struct {
	SearchBody string
	// Results holds page bodies by 1-based page index. The page asked for
	// is CurrentPageIndex+1, or 1 for the initial search.
	Results map[int]string
	// Details holds detail bodies by result token.
	Details map[string]string
	// Status overrides the status code for a path, e.g. "/verification/Search.aspx".
	Status map[string]int

	Requests []Request
}

// Portal returns a scrapers.Portal pointing at the fake.
func (p *Portal) Portal() scrapers.Portal {
	portal, err := scrapers.LookupPortal("idbop", BaseURL)
	if err != nil {
		panic(err)
	}
	return portal
}

// Do implements scrapers.Doer.
func (p *Portal) Do(req *http.Request) (*http.Response, error) {
	form := url.Values{}
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		if form, err = url.ParseQuery(string(b)); err != nil {
			return nil, err
		}
	}
	p.Requests = append(p.Requests, Request{URL: req.URL.String(), Path: req.URL.Path, Header: req.Header, Form: form})

	if code, ok := p.Status[req.URL.Path]; ok {
		return respond(code, ""), nil
	}

	switch {
	case strings.HasSuffix(req.URL.Path, "/Search.aspx"):
		return respond(http.StatusOK, p.SearchBody), nil
	case strings.HasSuffix(req.URL.Path, "/SearchResults.aspx"):
		index := 1
		if v := form.Get("CurrentPageIndex"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return respond(http.StatusBadRequest, ""), nil
			}
			index = n + 1
		}
		body, ok := p.Results[index]
		if !ok {
			return respond(http.StatusNotFound, ""), nil
		}
		return respond(http.StatusOK, body), nil
	case strings.HasSuffix(req.URL.Path, "/Details.aspx"):
		body, ok := p.Details[req.URL.Query().Get("result")]
		if !ok {
			return respond(http.StatusNotFound, ""), nil
		}
		return respond(http.StatusOK, body), nil
	}
	return respond(http.StatusNotFound, ""), nil
}

// RequestsTo returns the recorded requests whose path ends with suffix.
func (p *Portal) RequestsTo(suffix string) []Request {
	var out []Request
	for _, r := range p.Requests {
		if strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

func respond(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// hidden renders the three WebForms state fields, suffixed with tag.
func hidden(tag string) string {
	return fmt.Sprintf(`<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="vs-%[1]s" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="gen-%[1]s" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev-%[1]s" />`, tag)
}

// SearchPage renders the plain search form with state tagged "search".
func SearchPage() string {
	return `<html><body><form name="Form1" method="post" action="Search.aspx" id="Form1">
` + hidden("search") + `
<input name="t_web_lookup__first_name" type="text" id="t_web_lookup__first_name" />
<input name="t_web_lookup__last_name" type="text" id="t_web_lookup__last_name" />
<input type="submit" name="sch_button" value="Search" id="sch_button" />
</form></body></html>`
}

// PagerTarget is the postback target the fake pager uses for page n.
func PagerTarget(n int) string {
	return fmt.Sprintf("datagrid_results$_ctl44$_ctl%d", n-1)
}

// ResultsPage renders results page index with one detail link per token and
// pager anchors for every page in pager other than index. State is tagged
// "p<index>".
func ResultsPage(index int, tokens []string, pager []int) string {
	var b strings.Builder
	b.WriteString(`<html><body><form name="Form1" method="post" action="SearchResults.aspx" id="Form1">` + "\n")
	b.WriteString(hidden("p" + strconv.Itoa(index)))
	b.WriteString("\n<table id=\"datagrid_results\">\n<tr><td>Name</td><td>License</td></tr>\n")
	for i, tok := range tokens {
		fmt.Fprintf(&b, "<tr><td><a href=\"Details.aspx?result=%s\">Person %d</a></td><td>RPH-%d</td></tr>\n", tok, i+1, i+1)
	}
	if len(pager) > 0 {
		b.WriteString("<tr><td colspan=\"2\">")
		for _, n := range pager {
			if n == index {
				fmt.Fprintf(&b, "<span>%d</span>&nbsp;", n)
				continue
			}
			fmt.Fprintf(&b, "<a href=\"javascript:__doPostBack('%s','')\">%d</a>&nbsp;", PagerTarget(n), n)
		}
		b.WriteString("</td></tr>\n")
	}
	b.WriteString("</table>\n</form></body></html>")
	return b.String()
}

// DetailPage renders a detail page carrying rec in the mylicense span ids.
func DetailPage(rec scrapers.LicenseRecord) string {
	f := scrapers.Portals["idbop"].Fields
	span := func(id, v string) string {
		return fmt.Sprintf(`<span id="%s">%s</span>`, id, html.EscapeString(v))
	}
	return `<html><body><table>
<tr><td>First Name:</td><td>` + span(f.FirstName, rec.FirstName) + `</td></tr>
<tr><td>Middle Name:</td><td>` + span(f.MiddleName, rec.MiddleName) + `</td></tr>
<tr><td>Last Name:</td><td>` + span(f.LastName, rec.LastName) + `</td></tr>
</table><table>
<tr><td>License #:</td><td>` + span(f.LicenseNumber, rec.LicenseNumber) + `</td></tr>
<tr><td>License Type:</td><td>` + span(f.LicenseType, rec.LicenseType) + `</td></tr>
<tr><td>Status:</td><td>` + span(f.Status, rec.Status) + `</td></tr>
<tr><td>Original Issued Date:</td><td>` + span(f.OriginalIssuedDate, rec.OriginalIssuedDate) + `</td></tr>
<tr><td>Expiry:</td><td>` + span(f.Expiry, rec.Expiry) + `</td></tr>
<tr><td>Renewed:</td><td>` + span(f.Renewed, rec.Renewed) + `</td></tr>
</table></body></html>`
}

// Record returns a deterministic record for token.
func Record(token string) scrapers.LicenseRecord {
	return scrapers.LicenseRecord{
		FirstName:          "First-" + token,
		MiddleName:         "M",
		LastName:           "Last-" + token,
		LicenseNumber:      "RPH-" + token,
		LicenseType:        "Pharmacist",
		Status:             "Active",
		OriginalIssuedDate: "01/02/2003",
		Expiry:             "06/30/2026",
		Renewed:            "06/01/2024",
	}
}

// Site builds a fake portal with the given tokens per page. Pages are
// numbered from 1 and the pager on each page lists every page.
func Site(pages [][]string) *Portal {
	p := &Portal{
		SearchBody: SearchPage(),
		Results:    map[int]string{},
		Details:    map[string]string{},
	}
	var pager []int
	if len(pages) > 1 {
		for i := range pages {
			pager = append(pager, i+1)
		}
	}
	for i, tokens := range pages {
		p.Results[i+1] = ResultsPage(i+1, tokens, pager)
		for _, tok := range tokens {
			p.Details[tok] = DetailPage(Record(tok))
		}
	}
	return p
}
