package email

import (
	"fmt"
	"html"
	"log"
	"time"

	"github.com/resend/resend-go/v3"

	"license-lookup-go/scrapers"
)

// Client sends run reports via Resend.
type Client struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewClient returns a configured Resend client, or nil if not configured.
func NewClient(apiKey, fromEmail, fromName string) *Client {
	if apiKey == "" || fromEmail == "" {
		return nil
	}
	if fromName == "" {
		fromName = "License Lookup"
	}
	return &Client{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendRunReport mails the run summary to the recipients with the JSON dump attached.
func (c *Client) SendRunReport(to []string, s scrapers.RunSummary, dump []byte, filename string) error {
	if c == nil {
		return fmt.Errorf("email: client not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("email: no recipients")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      to,
		Subject: runReportSubject(s),
		Html:    renderRunReport(s),
		Attachments: []*resend.Attachment{{
			Content:     dump,
			Filename:    filename,
			ContentType: "application/json",
		}},
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("email: resend send: %w", err)
	}

	log.Printf("Run report emailed to %d recipients [id=%s]", len(to), sent.Id)
	return nil
}

func runReportSubject(s scrapers.RunSummary) string {
	return fmt.Sprintf("License lookup %s: %d records", s.Portal, s.Records)
}

func renderRunReport(s scrapers.RunSummary) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #3498db; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0;">License Lookup Complete</h1>
  </div>
  <div style="padding: 20px; background: #f9f9f9; border-radius: 0 0 8px 8px;">
    <ul>
      <li><strong>Board:</strong> %s</li>
      <li><strong>Search:</strong> %s</li>
      <li><strong>Pages:</strong> %d</li>
      <li><strong>Records:</strong> %d</li>
      <li><strong>Duration:</strong> %s</li>
    </ul>
    <p>The full record dump is attached as JSON.</p>
  </div>
</div>`,
		html.EscapeString(s.Portal),
		html.EscapeString(s.Criteria.String()),
		s.Pages,
		s.Records,
		s.Duration().Round(time.Second),
	)
}
