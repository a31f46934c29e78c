package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-lookup-go/scrapers"
)

func TestBuildRunEmbed(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s := scrapers.RunSummary{
		Portal:     "idbop",
		Criteria:   scrapers.SearchCriteria{LastName: "L", LicenseType: "Pharmacist"},
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Pages:      3,
		Records:    57,
		OutputPath: "license_details.json",
	}

	embed := buildRunEmbed(s)
	assert.Contains(t, embed.Title, "idbop")
	assert.Equal(t, `last="L" type="Pharmacist"`, embed.Description)
	assert.Equal(t, 0x2ECC71, embed.Color)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "57", embed.Fields[0].Value)
	assert.Equal(t, "3", embed.Fields[1].Value)
	assert.Equal(t, "42s", embed.Fields[2].Value)
	assert.Equal(t, "2024-06-01T10:00:42Z", embed.Timestamp)
	assert.Equal(t, "Output: license_details.json", embed.Footer.Text)
}

func TestBuildRunEmbedEmptyRun(t *testing.T) {
	embed := buildRunEmbed(scrapers.RunSummary{Portal: "idbop"})
	assert.Equal(t, 0xF39C12, embed.Color)
	assert.Equal(t, "(no filters)", embed.Description)
}
