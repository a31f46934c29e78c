package scrapers

import "fmt"

// FetchError is returned when the portal answers with a non-200 status.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// ExtractionError means an expected element is missing from a page,
// i.e. the portal markup no longer matches what the scraper expects.
type ExtractionError struct {
	Element string
	Reason  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Element, e.Reason)
}

// PostbackParseError means a pagination anchor href is not a __doPostBack call.
type PostbackParseError struct {
	Href string
}

func (e *PostbackParseError) Error() string {
	return fmt.Sprintf("parse postback target from href %q", e.Href)
}
