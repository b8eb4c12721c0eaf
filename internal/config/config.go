package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// InstitutionConfig names one tracked 13F filer. Order in the config file
// is the tie-break order of the holdings table.
type InstitutionConfig struct {
	Name string `yaml:"name"`
	CIK  string `yaml:"cik"`
}

// NewsFeedConfig names one RSS source.
type NewsFeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Tracked struct {
		Symbol      string `yaml:"symbol"`
		IssuerName  string `yaml:"issuer_name"`
		CUSIPPrefix string `yaml:"cusip_prefix"`
	} `yaml:"tracked"`
	SEC struct {
		UserAgent    string              `yaml:"user_agent"`
		Institutions []InstitutionConfig `yaml:"institutions"`
	} `yaml:"sec"`
	X struct {
		BearerToken string   `yaml:"bearer_token"`
		Handles     []string `yaml:"handles"`
	} `yaml:"x"`
	YouTube struct {
		APIKey    string `yaml:"api_key"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"youtube"`
	News     []NewsFeedConfig `yaml:"news"`
	Schedule struct {
		QuoteCron    string `yaml:"quote_cron"`
		HoldingsCron string `yaml:"holdings_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file in the working directory is loaded first so
// credentials can live outside the YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRACKED_SYMBOL"); v != "" {
		cfg.Tracked.Symbol = v
	}
	if v := os.Getenv("SEC_USER_AGENT"); v != "" {
		cfg.SEC.UserAgent = v
	}
	if v := os.Getenv("X_BEARER_TOKEN"); v != "" {
		cfg.X.BearerToken = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv("YOUTUBE_CHANNEL_ID"); v != "" {
		cfg.YouTube.ChannelID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Tracked.Symbol == "" {
		cfg.Tracked.Symbol = "TSLA"
	}
	if cfg.Tracked.IssuerName == "" {
		cfg.Tracked.IssuerName = "TESLA"
	}
	if cfg.Tracked.CUSIPPrefix == "" {
		cfg.Tracked.CUSIPPrefix = "88160R"
	}
	if cfg.SEC.UserAgent == "" {
		// SEC asks for a contactable address; replace with your own.
		cfg.SEC.UserAgent = "tesla-onestop/1.0 (ops@example.com)"
	}
	if len(cfg.SEC.Institutions) == 0 {
		cfg.SEC.Institutions = []InstitutionConfig{
			{Name: "BlackRock Inc.", CIK: "0001364742"},
			{Name: "The Vanguard Group, Inc.", CIK: "0000102909"},
			{Name: "FMR LLC (Fidelity)", CIK: "0000315066"},
			{Name: "State Street Corp.", CIK: "0000093751"},
			{Name: "ARK Investment Management LLC", CIK: "0001697747"},
			{Name: "T. Rowe Price Associates, Inc.", CIK: "0000080255"},
		}
	}
	if len(cfg.X.Handles) == 0 {
		cfg.X.Handles = []string{"elonmusk", "Tesla"}
	}
	if len(cfg.News) == 0 {
		cfg.News = []NewsFeedConfig{
			{Name: "Tesla IR (Press)", URL: "https://ir.tesla.com/press-releases/rss"},
			{Name: "Electrek - Tesla", URL: "https://electrek.co/guides/tesla/feed/"},
			{Name: "CNBC - Tesla", URL: "https://www.cnbc.com/id/15839135/device/rss/rss.html?query=tesla"},
			{Name: "Google News - Tesla", URL: "https://news.google.com/rss/search?q=Tesla%20OR%20TSLA&hl=en-US&gl=US&ceid=US:en"},
		}
	}
	if cfg.Schedule.QuoteCron == "" {
		cfg.Schedule.QuoteCron = "0 */5 * * * *"
	}
	if cfg.Schedule.HoldingsCron == "" {
		cfg.Schedule.HoldingsCron = "0 30 6 * * *"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Tracked.Symbol == "" {
		return fmt.Errorf("tracked.symbol is required")
	}
	if c.Tracked.CUSIPPrefix == "" && c.Tracked.IssuerName == "" {
		return fmt.Errorf("tracked.cusip_prefix or tracked.issuer_name is required")
	}
	if !strings.Contains(c.SEC.UserAgent, "@") {
		return fmt.Errorf("sec.user_agent must include a contact email address")
	}
	for _, inst := range c.SEC.Institutions {
		if inst.Name == "" || inst.CIK == "" {
			return fmt.Errorf("sec.institutions entries need both name and cik")
		}
	}
	return nil
}
