package scrapers

import (
	"context"
	"fmt"
	"log"
	"net/url"
)

// PageVisitor is called after every results page has been fully resolved.
type PageVisitor func(pageIndex, records int)

// Scraper walks every results page of a mylicense portal search and
// resolves each hit into a LicenseRecord. It is strictly sequential.
type Scraper struct {
	portal   Portal
	fetcher  *Fetcher
	maxPages int
	visit    PageVisitor
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithMaxPages stops after n results pages. 0 means no limit.
func WithMaxPages(n int) Option {
	return func(s *Scraper) { s.maxPages = n }
}

// WithPageVisitor registers a progress callback.
func WithPageVisitor(v PageVisitor) Option {
	return func(s *Scraper) { s.visit = v }
}

// NewScraper creates a scraper for the portal that sends every request through fetcher.
func NewScraper(portal Portal, fetcher *Fetcher, opts ...Option) *Scraper {
	s := &Scraper{portal: portal, fetcher: fetcher}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Lookup runs the search and returns the records of every page in
// page-then-row order. The first error aborts the run.
func (s *Scraper) Lookup(ctx context.Context, criteria SearchCriteria) (*LookupResult, error) {
	log.Printf("mylicense[%s]: lookup %s", s.portal.Code, criteria)

	state, err := s.initialState(ctx)
	if err != nil {
		log.Printf("mylicense[%s]: failed while loading search page: %v", s.portal.Code, err)
		return nil, err
	}

	page, err := s.fetchResultPage(ctx, BuildSearchPayload(criteria, state), 1)
	if err != nil {
		log.Printf("mylicense[%s]: failed while searching: %v", s.portal.Code, err)
		return nil, err
	}

	result := &LookupResult{Records: []LicenseRecord{}}
	for {
		n, err := s.collect(ctx, page, result)
		if err != nil {
			log.Printf("mylicense[%s]: failed while processing page %d: %v", s.portal.Code, page.Index, err)
			return nil, fmt.Errorf("mylicense: page %d: %w", page.Index, err)
		}
		result.Pages++
		log.Printf("mylicense[%s]: finished page %d (%d records)", s.portal.Code, page.Index, n)
		if s.visit != nil {
			s.visit(page.Index, n)
		}

		if s.maxPages > 0 && page.Index >= s.maxPages {
			log.Printf("mylicense[%s]: page limit %d reached", s.portal.Code, s.maxPages)
			break
		}

		next := page.Index + 1
		form, ok, err := NextPageRequest(page, next)
		if err != nil {
			log.Printf("mylicense[%s]: failed while paging to %d: %v", s.portal.Code, next, err)
			return nil, fmt.Errorf("mylicense: page %d: %w", next, err)
		}
		if !ok {
			break
		}

		page, err = s.fetchResultPage(ctx, form, next)
		if err != nil {
			log.Printf("mylicense[%s]: failed while fetching page %d: %v", s.portal.Code, next, err)
			return nil, fmt.Errorf("mylicense: page %d: %w", next, err)
		}
	}

	log.Printf("mylicense[%s]: done, %d records from %d pages", s.portal.Code, len(result.Records), result.Pages)
	return result, nil
}

// initialState GETs the plain search form for the first postback state.
func (s *Scraper) initialState(ctx context.Context) (PostbackState, error) {
	page, err := s.fetcher.Fetch(ctx, s.portal.SearchURL(), nil)
	if err != nil {
		return PostbackState{}, err
	}
	doc, err := ParseDocument(page.Body)
	if err != nil {
		return PostbackState{}, err
	}
	return ExtractPostbackState(doc)
}

func (s *Scraper) fetchResultPage(ctx context.Context, form url.Values, index int) (*ResultPage, error) {
	page, err := s.fetcher.Fetch(ctx, s.portal.ResultsURL(), form)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(page.Body)
	if err != nil {
		return nil, err
	}
	return &ResultPage{Index: index, Doc: doc}, nil
}

// collect resolves every identifier on the page, appending to result.
func (s *Scraper) collect(ctx context.Context, page *ResultPage, result *LookupResult) (int, error) {
	ids, err := ExtractResultIdentifiers(page.Doc)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		rec, err := s.FetchDetail(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", id, err)
		}
		result.Records = append(result.Records, rec)
	}
	return len(ids), nil
}
