package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Portal
	Board         string
	BaseURL       string
	SessionCookie string
	BrowserCookie bool
	ChromePath    string
	MaxPages      int

	// Search criteria
	SearchFirstName     string
	SearchLastName      string
	SearchLicenseType   string
	SearchLicenseNumber string
	SearchStatus        string
	SearchCity          string
	SearchState         string
	SearchCounty        string
	SearchZip           string

	// Output
	OutputPath string
	LogLevel   string
	LogFile    string

	// Postgres (optional)
	DatabaseURL string

	// Resend Email (optional)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTo       string

	// Discord run report (optional)
	DiscordToken     string
	DiscordChannelID string
}

func MustLoad() *Config {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		Board:         os.Getenv("MYLICENSE_BOARD"),
		BaseURL:       os.Getenv("MYLICENSE_BASE_URL"),
		SessionCookie: os.Getenv("MYLICENSE_COOKIE"),
		ChromePath:    os.Getenv("CHROME_PATH"),

		SearchFirstName:     os.Getenv("SEARCH_FIRST_NAME"),
		SearchLastName:      os.Getenv("SEARCH_LAST_NAME"),
		SearchLicenseType:   os.Getenv("SEARCH_LICENSE_TYPE"),
		SearchLicenseNumber: os.Getenv("SEARCH_LICENSE_NUMBER"),
		SearchStatus:        os.Getenv("SEARCH_STATUS"),
		SearchCity:          os.Getenv("SEARCH_CITY"),
		SearchState:         os.Getenv("SEARCH_STATE"),
		SearchCounty:        os.Getenv("SEARCH_COUNTY"),
		SearchZip:           os.Getenv("SEARCH_ZIP"),

		OutputPath: os.Getenv("OUTPUT_PATH"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		LogFile:    os.Getenv("LOG_FILE"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),
		EmailTo:       os.Getenv("EMAIL_TO"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
	}

	if cfg.Board == "" {
		cfg.Board = "idbop"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "license_details.json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	// The source scripts searched pharmacists whose last name begins with L.
	if _, ok := os.LookupEnv("SEARCH_LAST_NAME"); !ok {
		cfg.SearchLastName = "L"
	}
	if _, ok := os.LookupEnv("SEARCH_LICENSE_TYPE"); !ok {
		cfg.SearchLicenseType = "Pharmacist"
	}

	cfg.BrowserCookie = getEnvBool("MYLICENSE_BROWSER_COOKIE", false)
	cfg.MaxPages = getEnvInt("MYLICENSE_MAX_PAGES", 0)

	if cfg.MaxPages < 0 {
		log.Fatal("MYLICENSE_MAX_PAGES must not be negative")
	}
	if cfg.BrowserCookie && cfg.SessionCookie != "" {
		log.Println("MYLICENSE_COOKIE is set; ignoring MYLICENSE_BROWSER_COOKIE")
		cfg.BrowserCookie = false
	}

	return cfg
}

// Debug reports whether per-request debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}

// EmailEnabled returns true when the run report email can be sent.
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != "" && c.EmailFrom != "" && c.EmailTo != ""
}

// EmailRecipients returns EMAIL_TO split on commas.
func (c *Config) EmailRecipients() []string {
	if c.EmailTo == "" {
		return nil
	}
	var result []string
	for _, p := range strings.Split(c.EmailTo, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// DiscordEnabled returns true when the run report can be posted to Discord.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
