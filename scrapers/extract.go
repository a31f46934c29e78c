package scrapers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resultsTableID is the datagrid holding one row per search hit.
const resultsTableID = "datagrid_results"

var detailHrefRe = regexp.MustCompile(`Details'?([^']+)`)

// ParseDocument parses raw HTML into a queryable document.
func ParseDocument(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mylicense: parse HTML error: %w", err)
	}
	return doc, nil
}

// ExtractResultIdentifiers returns the detail references linked from the
// results table, in row order. Anchors that do not point at a detail page
// are skipped; duplicates are kept.
func ExtractResultIdentifiers(doc *goquery.Document) ([]ResultIdentifier, error) {
	table := doc.Find(fmt.Sprintf("table[id='%s']", resultsTableID))
	if table.Length() == 0 {
		return nil, &ExtractionError{Element: "table#" + resultsTableID, Reason: "results table not found"}
	}

	var ids []ResultIdentifier
	table.First().Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if m := detailHrefRe.FindString(href); m != "" {
			ids = append(ids, ResultIdentifier(m))
		}
	})
	return ids, nil
}

// ExtractPostbackState reads the three hidden WebForms fields.
func ExtractPostbackState(doc *goquery.Document) (PostbackState, error) {
	var state PostbackState
	fields := []struct {
		id  string
		dst *string
	}{
		{"__VIEWSTATE", &state.ViewState},
		{"__EVENTVALIDATION", &state.EventValidation},
		{"__VIEWSTATEGENERATOR", &state.ViewStateGenerator},
	}
	for _, f := range fields {
		v, ok := doc.Find(fmt.Sprintf("[id='%s']", f.id)).First().Attr("value")
		if !ok {
			return PostbackState{}, &ExtractionError{Element: "#" + f.id, Reason: "hidden field not found"}
		}
		*f.dst = v
	}
	return state, nil
}

// ExtractLicenseRecord reads the nine detail fields. Text is kept verbatim.
func ExtractLicenseRecord(doc *goquery.Document, ids DetailFields) (LicenseRecord, error) {
	var rec LicenseRecord
	fields := []struct {
		id  string
		dst *string
	}{
		{ids.FirstName, &rec.FirstName},
		{ids.MiddleName, &rec.MiddleName},
		{ids.LastName, &rec.LastName},
		{ids.LicenseNumber, &rec.LicenseNumber},
		{ids.LicenseType, &rec.LicenseType},
		{ids.Status, &rec.Status},
		{ids.OriginalIssuedDate, &rec.OriginalIssuedDate},
		{ids.Expiry, &rec.Expiry},
		{ids.Renewed, &rec.Renewed},
	}
	for _, f := range fields {
		span := doc.Find(fmt.Sprintf("span[id='%s']", f.id))
		if span.Length() == 0 {
			return LicenseRecord{}, &ExtractionError{Element: "span#" + f.id, Reason: "detail field not found"}
		}
		*f.dst = span.First().Text()
	}
	return rec, nil
}
