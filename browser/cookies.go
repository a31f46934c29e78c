package browser

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	bootstrapTimeout = 60 * time.Second

	searchButton = "#sch_button"
	resultsGrid  = "#datagrid_results"
)

// CookieProvider opens the portal search page in a headless, incognito
// Chrome, runs the search there and hands back the cookies the portal set
// once the results grid is shown. It runs once per lookup, before any
// scripted request.
type CookieProvider struct {
	SearchURL string
	UserAgent string
	ExecPath  string // empty: let chromedp find Chrome

	// Prefill maps search form element ids to the values set before the
	// search is submitted. Empty values are left alone.
	Prefill map[string]string
}

// Cookie implements scrapers.CookieProvider.
func (p *CookieProvider) Cookie(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("incognito", true))
	if p.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.UserAgent))
	}
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}
	if os.Geteuid() == 0 {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer browserCancel()

	log.Printf("browser: opening %s", p.SearchURL)

	var cookies []*network.Cookie
	tasks := chromedp.Tasks{
		chromedp.Navigate(p.SearchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	tasks = append(tasks, p.searchTasks()...)
	tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", fmt.Errorf("browser: cookie bootstrap failed: %w", err)
	}

	header := formatCookies(cookies)
	if header == "" {
		return "", fmt.Errorf("browser: portal set no cookies")
	}
	log.Printf("browser: harvested %d cookies", len(cookies))
	return header, nil
}

// searchTasks fills the form in id order, submits it and waits for the
// results grid. SetValue also works on the license type dropdown.
func (p *CookieProvider) searchTasks() []chromedp.Action {
	ids := make([]string, 0, len(p.Prefill))
	for id, v := range p.Prefill {
		if v != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	actions := make([]chromedp.Action, 0, len(ids)+2)
	for _, id := range ids {
		actions = append(actions, chromedp.SetValue("#"+id, p.Prefill[id], chromedp.ByQuery))
	}
	return append(actions,
		chromedp.Click(searchButton, chromedp.ByQuery),
		chromedp.WaitVisible(resultsGrid, chromedp.ByQuery),
	)
}

// formatCookies renders cookies as a Cookie header value.
func formatCookies(cookies []*network.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
