package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// Source kinds an Asset can reference.
const (
	SourceYahoo   = "yahoo"
	SourceFred    = "fred"
	SourcePolygon = "polygon"
	SourceStatic  = "static"
)

// FredPlaceholderKey is the sample key shipped in example configs. It counts as unset.
const FredPlaceholderKey = "your_fred_api_key"

// Asset names one provider id fetched under a category.
type Asset struct {
	Key    string `yaml:"key" validate:"required,ne=timestamp"`
	Source string `yaml:"source" validate:"required,oneof=yahoo fred polygon static"`
	ID     string `yaml:"id" validate:"required"`
}

// Category is one asset class of the snapshot.
type Category struct {
	Name   string  `yaml:"name" validate:"required,ne=timestamp"`
	Assets []Asset `yaml:"assets" validate:"required,min=1,dive"`
}

// SummaryAsset maps a snapshot quote onto the website's summary view.
type SummaryAsset struct {
	Key      string `yaml:"key" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Category string `yaml:"category" validate:"required"`
	Quote    string `yaml:"quote" validate:"required"`
	Currency string `yaml:"currency" validate:"required"`
	Unit     string `yaml:"unit"`
	// Display selects the report rendering: currency amount, plain number or 4-decimal rate.
	Display string `yaml:"display" validate:"omitempty,oneof=currency number rate"`
}

// Config holds all application configuration.
type Config struct {
	DataDir      string `yaml:"data_dir" validate:"required"`
	ReportPath   string `yaml:"report_path" validate:"required"`
	HistoryLimit int    `yaml:"history_limit" validate:"gte=1"`
	Fetch        struct {
		Period          string `yaml:"period" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
		Concurrency     int    `yaml:"concurrency" validate:"gte=1,lte=64"`
		TimeoutSeconds  int    `yaml:"timeout_seconds" validate:"gte=1"`
		Retries         int    `yaml:"retries" validate:"gte=0,lte=3"`
		RetryWaitMillis int    `yaml:"retry_wait_millis" validate:"gte=0"`
	} `yaml:"fetch"`
	Sources struct {
		Yahoo struct {
			BaseURL string `yaml:"base_url" validate:"required,url"`
		} `yaml:"yahoo"`
		Fred struct {
			BaseURL string `yaml:"base_url" validate:"required,url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"fred"`
		Polygon struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"polygon"`
		// Static serves fixed closes per id, for offline runs.
		Static struct {
			Closes map[string][]float64 `yaml:"closes"`
		} `yaml:"static"`
	} `yaml:"sources"`
	Categories []Category     `yaml:"categories" validate:"required,min=1,dive"`
	Summary    []SummaryAsset `yaml:"summary" validate:"dive"`
	Archive    struct {
		Format string `yaml:"format" validate:"omitempty,oneof=json csv parquet"`
	} `yaml:"archive"`
	Indicators struct {
		Window int `yaml:"window" validate:"gte=2"`
	} `yaml:"indicators"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		AlertBelow string `yaml:"alert_below" validate:"omitempty,oneof=A B C D F"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron       string   `yaml:"cron" validate:"required"`
		ExtraCrons []string `yaml:"extra_crons"`
	} `yaml:"schedule"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Log struct {
		Level      string `yaml:"level" validate:"oneof=debug info warn error"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "read config", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parse config", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Sources.Fred.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Sources.Polygon.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FETCH_PERIOD"); v != "" {
		c.Fetch.Period = v
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Fetch.Concurrency = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.ReportPath == "" {
		c.ReportPath = c.DataDir + "/summary_report.txt"
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 90
	}
	if c.Fetch.Period == "" {
		c.Fetch.Period = "5d"
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = 4
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 15
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = 2
	}
	if c.Fetch.RetryWaitMillis == 0 {
		c.Fetch.RetryWaitMillis = 500
	}
	if c.Sources.Yahoo.BaseURL == "" {
		c.Sources.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Sources.Fred.BaseURL == "" {
		c.Sources.Fred.BaseURL = "https://api.stlouisfed.org"
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	if len(c.Summary) == 0 {
		c.Summary = DefaultSummary()
	}
	if c.Indicators.Window == 0 {
		c.Indicators.Window = 5
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = c.DataDir + "/market_digest.db"
	}
	if c.Telegram.AlertBelow == "" {
		c.Telegram.AlertBelow = "C"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 */5 9-16 * * 1-5"
	}
	if c.Schedule.ExtraCrons == nil {
		c.Schedule.ExtraCrons = []string{"0 0 9 * * *", "0 0 12 * * *", "0 0 18 * * *"}
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate checks field constraints plus the cross references between the summary
// catalog and the configured categories.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	assets := make(map[string]map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if _, dup := assets[cat.Name]; dup {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate category %q", cat.Name)
		}
		keys := make(map[string]bool, len(cat.Assets))
		for _, a := range cat.Assets {
			if keys[a.Key] {
				return errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate asset %q in category %q", a.Key, cat.Name)
			}
			keys[a.Key] = true
		}
		assets[cat.Name] = keys
	}

	for _, s := range c.Summary {
		if !assets[s.Category][s.Quote] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"summary asset %q references unknown quote %s.%s", s.Key, s.Category, s.Quote)
		}
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "telegram.chat_id is required when bot_token is set")
	}

	return nil
}

// FredKey returns the configured FRED key, or "" when it is unset or still the placeholder.
func (c *Config) FredKey() string {
	if c.Sources.Fred.APIKey == FredPlaceholderKey {
		return ""
	}
	return c.Sources.Fred.APIKey
}

// String renders the non-secret parts of the config for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("data_dir=%s period=%s categories=%d summary=%d cron=%q",
		c.DataDir, c.Fetch.Period, len(c.Categories), len(c.Summary), c.Schedule.Cron)
}

// DefaultCategories is the stock category layout.
func DefaultCategories() []Category {
	return []Category{
		{Name: model.CategoryPreciousMetals, Assets: []Asset{
			{Key: "gold", Source: SourceYahoo, ID: "GC=F"},
			{Key: "silver", Source: SourceYahoo, ID: "SI=F"},
		}},
		{Name: model.CategoryStockIndices, Assets: []Asset{
			{Key: "dow_jones", Source: SourceYahoo, ID: "^DJI"},
			{Key: "vn_index", Source: SourceYahoo, ID: "^VNI"},
		}},
		{Name: model.CategoryBondYields, Assets: []Asset{
			{Key: "us_10y_bond_yahoo", Source: SourceYahoo, ID: "^TNX"},
			{Key: "us_10y_bond_fred", Source: SourceFred, ID: "DGS10"},
		}},
		{Name: model.CategoryHousing, Assets: []Asset{
			{Key: "housing_index", Source: SourceFred, ID: "CSUSHPISA"},
		}},
		{Name: model.CategoryFX, Assets: []Asset{
			{Key: "usd_vnd", Source: SourceYahoo, ID: "USDVND=X"},
			{Key: "eur_usd", Source: SourceYahoo, ID: "EURUSD=X"},
		}},
	}
}

// DefaultSummary is the stock summary catalog read by the website.
func DefaultSummary() []SummaryAsset {
	return []SummaryAsset{
		{Key: "gold", Name: "Gold", Category: model.CategoryPreciousMetals, Quote: "gold", Currency: "USD", Unit: "oz", Display: "currency"},
		{Key: "silver", Name: "Silver", Category: model.CategoryPreciousMetals, Quote: "silver", Currency: "USD", Unit: "oz", Display: "currency"},
		{Key: "dow_jones", Name: "Dow Jones", Category: model.CategoryStockIndices, Quote: "dow_jones", Currency: "USD", Unit: "points", Display: "number"},
		{Key: "vn_index", Name: "VN Index", Category: model.CategoryStockIndices, Quote: "vn_index", Currency: "VND", Unit: "points", Display: "number"},
		{Key: "us_10y_bond", Name: "US 10Y Treasury", Category: model.CategoryBondYields, Quote: "us_10y_bond_yahoo", Currency: "USD", Unit: "%", Display: "number"},
		{Key: "usd_vnd", Name: "USD/VND", Category: model.CategoryFX, Quote: "usd_vnd", Currency: "VND", Unit: "rate", Display: "currency"},
		{Key: "eur_usd", Name: "EUR/USD", Category: model.CategoryFX, Quote: "eur_usd", Currency: "USD", Unit: "rate", Display: "rate"},
	}
}
