package scrapers

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SearchCriteria holds the filter fields of the portal search form.
// Empty fields are submitted as empty strings.
type SearchCriteria struct {
	FirstName     string
	LastName      string
	LicenseType   string
	LicenseNumber string
	Status        string
	City          string
	State         string
	County        string
	Zip           string
}

// FormFields maps the portal's search form field names to the criteria values.
func (c SearchCriteria) FormFields() map[string]string {
	return map[string]string{
		"t_web_lookup__first_name":          c.FirstName,
		"t_web_lookup__last_name":           c.LastName,
		"t_web_lookup__license_type_name":   c.LicenseType,
		"t_web_lookup__license_no":          c.LicenseNumber,
		"t_web_lookup__addr_city":           c.City,
		"t_web_lookup__addr_state":          c.State,
		"t_web_lookup__license_status_name": c.Status,
		"t_web_lookup__addr_county":         c.County,
		"t_web_lookup__addr_zipcode":        c.Zip,
	}
}

// String renders the non-empty criteria for log lines.
func (c SearchCriteria) String() string {
	pairs := []struct{ k, v string }{
		{"first", c.FirstName},
		{"last", c.LastName},
		{"type", c.LicenseType},
		{"license", c.LicenseNumber},
		{"status", c.Status},
		{"city", c.City},
		{"state", c.State},
		{"county", c.County},
		{"zip", c.Zip},
	}
	var parts []string
	for _, p := range pairs {
		if p.v != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", p.k, p.v))
		}
	}
	if len(parts) == 0 {
		return "(no filters)"
	}
	return strings.Join(parts, " ")
}

// PostbackState is the hidden WebForms state echoed back on every postback.
// The server rotates it, so it is read from each newly fetched page.
type PostbackState struct {
	ViewState          string
	EventValidation    string
	ViewStateGenerator string
}

// ResultPage is one parsed page of search results. Index is 1-based.
type ResultPage struct {
	Index int
	Doc   *goquery.Document
}

// ResultIdentifier references one detail record, e.g. "Details.aspx?result=5a7c".
type ResultIdentifier string

// LicenseRecord holds the detail fields of one license, exactly as rendered.
type LicenseRecord struct {
	FirstName          string `json:"First Name"`
	MiddleName         string `json:"Middle Name"`
	LastName           string `json:"Last Name"`
	LicenseNumber      string `json:"License #"`
	LicenseType        string `json:"License Type"`
	Status             string `json:"Status"`
	OriginalIssuedDate string `json:"Original Issued Date"`
	Expiry             string `json:"Expiry"`
	Renewed            string `json:"Renewed"`
}

// LookupResult is what a completed lookup run produced.
type LookupResult struct {
	Records []LicenseRecord
	Pages   int
}

// RunSummary describes a finished run for the report sinks.
type RunSummary struct {
	Portal     string
	Criteria   SearchCriteria
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Records    int
	OutputPath string
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
