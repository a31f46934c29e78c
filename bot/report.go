package bot

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"license-lookup-go/scrapers"
)

// Reporter posts run reports to a Discord channel over the REST API.
// It never opens a gateway connection.
type Reporter struct {
	session   *discordgo.Session
	channelID string
}

// NewReporter creates a reporter for the channel using a bot token.
func NewReporter(token, channelID string) (*Reporter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("bot: discordgo session: %w", err)
	}
	return &Reporter{session: session, channelID: channelID}, nil
}

// PostRunReport sends the run summary embed with the JSON dump attached.
func (r *Reporter) PostRunReport(s scrapers.RunSummary, dump []byte, filename string) error {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildRunEmbed(s)},
		Files: []*discordgo.File{{
			Name:        filename,
			ContentType: "application/json",
			Reader:      bytes.NewReader(dump),
		}},
	}
	sent, err := r.session.ChannelMessageSendComplex(r.channelID, msg)
	if err != nil {
		return fmt.Errorf("bot: post run report: %w", err)
	}
	log.Printf("Run report posted to Discord channel %s [id=%s]", r.channelID, sent.ID)
	return nil
}

func buildRunEmbed(s scrapers.RunSummary) *discordgo.MessageEmbed {
	color := 0x2ECC71
	if s.Records == 0 {
		color = 0xF39C12
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("\U0001f4cb License lookup: %s", s.Portal),
		Description: s.Criteria.String(),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Records", Value: fmt.Sprintf("%d", s.Records), Inline: true},
			{Name: "Pages", Value: fmt.Sprintf("%d", s.Pages), Inline: true},
			{Name: "Duration", Value: s.Duration().Round(time.Second).String(), Inline: true},
		},
		Timestamp: s.FinishedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Output: " + s.OutputPath,
		},
	}
}
