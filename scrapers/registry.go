package scrapers

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DetailFields holds the span ids of the nine fields on a license detail page.
type DetailFields struct {
	FirstName          string
	MiddleName         string
	LastName           string
	LicenseNumber      string
	LicenseType        string
	Status             string
	OriginalIssuedDate string
	Expiry             string
	Renewed            string
}

// Portal describes one board's mylicense verification site.
type Portal struct {
	Code        string
	Name        string
	BaseURL     string // must end with "/"
	SearchPage  string
	ResultsPage string
	Fields      DetailFields
}

// SearchURL is the plain search form, fetched once for the initial state.
func (p Portal) SearchURL() string { return p.BaseURL + p.SearchPage }

// ResultsURL is the endpoint the search and every page postback are sent to.
func (p Portal) ResultsURL() string { return p.BaseURL + p.ResultsPage }

// DetailURL is the base URL concatenated with the identifier.
func (p Portal) DetailURL(id ResultIdentifier) string { return p.BaseURL + string(id) }

// Origin returns scheme://host of the base URL.
func (p Portal) Origin() string {
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(p.BaseURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

// mylicenseFields are the detail span ids rendered by the mylicense platform.
var mylicenseFields = DetailFields{
	FirstName:          "_ctl27__ctl1_first_name",
	MiddleName:         "_ctl27__ctl1_m_name",
	LastName:           "_ctl27__ctl1_last_name",
	LicenseNumber:      "_ctl36__ctl1_license_no",
	LicenseType:        "_ctl36__ctl1_license_type",
	Status:             "_ctl36__ctl1_status",
	OriginalIssuedDate: "_ctl36__ctl1_issue_date",
	Expiry:             "_ctl36__ctl1_expiry",
	Renewed:            "_ctl36__ctl1_last_ren",
}

// Portals -- boards with a known mylicense verification site.
var Portals = map[string]Portal{
	"idbop": {
		Code:        "idbop",
		Name:        "Idaho Board of Pharmacy",
		BaseURL:     "https://idbop.mylicense.com/verification/",
		SearchPage:  "Search.aspx",
		ResultsPage: "SearchResults.aspx",
		Fields:      mylicenseFields,
	},
}

// LookupPortal returns the portal for a board code. A non-empty baseURL
// replaces the board's base URL (used for mirrors and tests).
func LookupPortal(code, baseURL string) (Portal, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	p, ok := Portals[code]
	if !ok {
		known := make([]string, 0, len(Portals))
		for k := range Portals {
			known = append(known, k)
		}
		sort.Strings(known)
		return Portal{}, fmt.Errorf("mylicense: unknown board %q (known: %s)", code, strings.Join(known, ", "))
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		p.BaseURL = baseURL
	}
	return p, nil
}
