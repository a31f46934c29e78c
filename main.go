package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"license-lookup-go/bot"
	"license-lookup-go/browser"
	"license-lookup-go/config"
	"license-lookup-go/db"
	"license-lookup-go/email"
	"license-lookup-go/output"
	"license-lookup-go/scrapers"
	"license-lookup-go/tlsclient"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.MustLoad()
	setupLogFile(cfg.LogFile)

	log.Println("Starting license lookup...")

	portal, err := scrapers.LookupPortal(cfg.Board, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Portal: %v", err)
	}
	log.Printf("Config loaded — Board: %s (%s)", portal.Code, portal.BaseURL)

	criteria := scrapers.SearchCriteria{
		FirstName:     cfg.SearchFirstName,
		LastName:      cfg.SearchLastName,
		LicenseType:   cfg.SearchLicenseType,
		LicenseNumber: cfg.SearchLicenseNumber,
		Status:        cfg.SearchStatus,
		City:          cfg.SearchCity,
		State:         cfg.SearchState,
		County:        cfg.SearchCounty,
		Zip:           cfg.SearchZip,
	}

	cookies := cookieProvider(cfg, portal, criteria)

	// A supplied cookie is seeded into the jar and must not be replaced by
	// whatever the portal sets on the first response.
	var sessionOpts []tlsclient.Option
	if cookies != nil {
		sessionOpts = append(sessionOpts, tlsclient.WithPinnedCookies())
	}
	session, err := tlsclient.New(sessionOpts...).NewSession()
	if err != nil {
		log.Fatalf("TLS client init failed: %v", err)
	}

	fetcher := scrapers.NewFetcher(session, portal, cookies)
	fetcher.SetDebug(cfg.Debug())

	scraper := scrapers.NewScraper(portal, fetcher, scrapers.WithMaxPages(cfg.MaxPages))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := scraper.Lookup(ctx, criteria)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	dump, err := output.WriteJSON(cfg.OutputPath, result.Records)
	if err != nil {
		log.Fatalf("Writing %s failed: %v", cfg.OutputPath, err)
	}
	log.Printf("Wrote %d records to %s", len(result.Records), cfg.OutputPath)

	summary := scrapers.RunSummary{
		Portal:     portal.Code,
		Criteria:   criteria,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Pages:      result.Pages,
		Records:    len(result.Records),
		OutputPath: cfg.OutputPath,
	}

	if failed := report(ctx, cfg, summary, result.Records, dump); failed > 0 {
		log.Fatalf("%d report sinks failed", failed)
	}
}

// cookieProvider picks where the portal session cookie comes from.
// nil means the session cookie jar picks it up from the first response.
func cookieProvider(cfg *config.Config, portal scrapers.Portal, criteria scrapers.SearchCriteria) scrapers.CookieProvider {
	switch {
	case cfg.SessionCookie != "":
		return scrapers.StaticCookie(cfg.SessionCookie)
	case cfg.BrowserCookie:
		return &browser.CookieProvider{
			SearchURL: portal.SearchURL(),
			UserAgent: scrapers.UserAgent,
			ExecPath:  cfg.ChromePath,
			Prefill:   criteria.FormFields(),
		}
	default:
		return nil
	}
}

// report hands the finished run to every configured sink and returns how
// many of them failed. The JSON dump is already on disk at this point.
func report(ctx context.Context, cfg *config.Config, s scrapers.RunSummary, records []scrapers.LicenseRecord, dump []byte) int {
	failed := 0
	filename := filepath.Base(cfg.OutputPath)

	if cfg.DatabaseURL != "" {
		if err := saveRun(ctx, cfg.DatabaseURL, s, records); err != nil {
			log.Printf("Database sink failed: %v", err)
			failed++
		}
	}

	if cfg.EmailEnabled() {
		mailer := email.NewClient(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		if err := mailer.SendRunReport(cfg.EmailRecipients(), s, dump, filename); err != nil {
			log.Printf("Email sink failed: %v", err)
			failed++
		}
	}

	if cfg.DiscordEnabled() {
		reporter, err := bot.NewReporter(cfg.DiscordToken, cfg.DiscordChannelID)
		if err == nil {
			err = reporter.PostRunReport(s, dump, filename)
		}
		if err != nil {
			log.Printf("Discord sink failed: %v", err)
			failed++
		}
	}

	return failed
}

func saveRun(ctx context.Context, databaseURL string, s scrapers.RunSummary, records []scrapers.LicenseRecord) error {
	database, err := db.New(databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := database.SaveRun(ctx, s, records)
	if err != nil {
		return err
	}
	log.Printf("Run saved to database [run=%d]", runID)

	history, err := database.GetRunHistory(ctx, s.Portal, 2)
	if err != nil {
		return err
	}
	if len(history) == 2 {
		prev := history[1]
		log.Printf("Previous %s run %d on %s had %d records (now %d)",
			prev.Portal, prev.ID, prev.FinishedAt.Format(time.RFC3339), prev.RecordCount, s.Records)
	}
	return nil
}

// setupLogFile tees the standard logger into a rotating file when configured.
func setupLogFile(filename string) {
	if filename == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		log.Fatalf("Log dir: %v", err)
	}
	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logWriter))
}
