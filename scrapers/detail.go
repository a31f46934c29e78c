package scrapers

import (
	"context"
	"net/url"
)

// FetchDetail fetches one detail page and extracts its license record.
// The identifier is also sent as the "result" form value, as the portal's
// own detail links do.
func (s *Scraper) FetchDetail(ctx context.Context, id ResultIdentifier) (LicenseRecord, error) {
	page, err := s.fetcher.Fetch(ctx, s.portal.DetailURL(id), url.Values{"result": {string(id)}})
	if err != nil {
		return LicenseRecord{}, err
	}
	doc, err := ParseDocument(page.Body)
	if err != nil {
		return LicenseRecord{}, err
	}
	return ExtractLicenseRecord(doc, s.portal.Fields)
}
