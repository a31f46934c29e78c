package scrapers

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// searchEventTarget is the __EVENTTARGET the portal expects on the first submission.
const searchEventTarget = "t_web_lookup__license_type_name"

var postBackRe = regexp.MustCompile(`__doPostBack\('([^']+)`)

// ParseEventTarget pulls the event target out of a pager href, e.g.
// datagrid_results$_ctl44$_ctl1 from a javascript:__doPostBack(...) link.
func ParseEventTarget(href string) (string, error) {
	m := postBackRe.FindStringSubmatch(href)
	if m == nil {
		return "", &PostbackParseError{Href: href}
	}
	return m[1], nil
}

// FindPageAnchor returns the href of the first anchor whose visible text is
// exactly the page number n, with no surrounding whitespace. Ellipsis links
// and gaps in the numbering are not followed, so a pager that skips n ends
// pagination there.
func FindPageAnchor(doc *goquery.Document, n int) (string, bool) {
	label := strconv.Itoa(n)
	var href string
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.Text() != label {
			return true
		}
		href, _ = a.Attr("href")
		found = true
		return false
	})
	return href, found
}

// BuildSearchPayload is the form of the first results request.
func BuildSearchPayload(criteria SearchCriteria, state PostbackState) url.Values {
	form := url.Values{
		"__EVENTTARGET":        {searchEventTarget},
		"__EVENTARGUMENT":      {""},
		"__LASTFOCUS":          {""},
		"__VIEWSTATE":          {state.ViewState},
		"__VIEWSTATEGENERATOR": {state.ViewStateGenerator},
		"__EVENTVALIDATION":    {state.EventValidation},
		"sch_button":           {"Search"},
	}
	for k, v := range criteria.FormFields() {
		form.Set(k, v)
	}
	return form
}

// BuildPagePayload is the postback form that asks for the next results page.
// currentPageIndex is the 1-based running counter of postbacks sent.
func BuildPagePayload(state PostbackState, eventTarget string, currentPageIndex int) url.Values {
	return url.Values{
		"CurrentPageIndex":     {strconv.Itoa(currentPageIndex)},
		"__EVENTTARGET":        {eventTarget},
		"__EVENTARGUMENT":      {""},
		"__LASTFOCUS":          {""},
		"__VIEWSTATE":          {state.ViewState},
		"__VIEWSTATEGENERATOR": {state.ViewStateGenerator},
		"__EVENTVALIDATION":    {state.EventValidation},
	}
}

// NextPageRequest builds the postback for page n from the current page.
// ok is false when the current page has no link to n.
func NextPageRequest(page *ResultPage, n int) (form url.Values, ok bool, err error) {
	href, found := FindPageAnchor(page.Doc, n)
	if !found {
		return nil, false, nil
	}
	target, err := ParseEventTarget(href)
	if err != nil {
		return nil, false, err
	}
	state, err := ExtractPostbackState(page.Doc)
	if err != nil {
		return nil, false, err
	}
	return BuildPagePayload(state, target, n-1), true, nil
}
