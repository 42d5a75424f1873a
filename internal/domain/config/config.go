package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainerr "inflections/internal/domain/errors"
)

type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Newsletter NewsletterConfig `yaml:"newsletter"`
	Log        LogConfig        `yaml:"log"`
}

type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	SiteURL     string `yaml:"site_url"`
	Language    string `yaml:"language"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// TrustProxy honours X-Forwarded-For; enable only behind a proxy that
	// overwrites it.
	TrustProxy bool `yaml:"trust_proxy"`
}

type Driver string

const (
	DriverAirtable Driver = "airtable"
	DriverBolt     Driver = "bolt"
)

type StoreConfig struct {
	Driver  Driver        `yaml:"driver"`
	Schema  string        `yaml:"schema"`
	Timeout time.Duration `yaml:"timeout"`

	Airtable AirtableConfig `yaml:"airtable"`
	Bolt     BoltConfig     `yaml:"bolt"`
}

type AirtableConfig struct {
	BaseURL           string  `yaml:"base_url"`
	BaseID            string  `yaml:"base_id"`
	APIKey            string  `yaml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type BoltConfig struct {
	Path    string `yaml:"path"`
	SeedDir string `yaml:"seed_dir"`
	Watch   bool   `yaml:"watch"`
}

type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`

	// Routes overrides the TTL per facade operation, e.g. list_issues: 10m.
	Routes map[string]time.Duration `yaml:"routes"`
}

type NewsletterConfig struct {
	Table             string  `yaml:"table"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

// MaxStoreTimeout bounds a single content store round trip.
const MaxStoreTimeout = 10 * time.Second

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Inflections",
			SiteURL:  "http://localhost:8080",
			Language: "en",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:  DriverBolt,
			Schema:  "v2",
			Timeout: MaxStoreTimeout,
			Airtable: AirtableConfig{
				BaseURL:           "https://api.airtable.com",
				RequestsPerSecond: 5,
			},
			Bolt: BoltConfig{
				Path:    "data/content.db",
				SeedDir: "content",
			},
		},
		Cache: CacheConfig{
			TTL:  time.Hour,
			Size: 1024,
		},
		Newsletter: NewsletterConfig{
			Table:             "Newsletter",
			RequestsPerSecond: 0.2,
			Burst:             3,
		},
		Log: LogConfig{Mode: "dev"},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Site.SiteURL) == "" {
		ve.Add("site.site_url", "must not be empty")
	} else if !isValidAbsURL(c.Site.SiteURL) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		ve.Add("server.addr", "must not be empty")
	}

	switch c.Store.Driver {
	case DriverAirtable:
		if strings.TrimSpace(c.Store.Airtable.BaseID) == "" {
			ve.Add("store.airtable.base_id", "must not be empty (or set AIRTABLE_BASE_ID)")
		}
		if strings.TrimSpace(c.Store.Airtable.APIKey) == "" {
			ve.Add("store.airtable.api_key", "must not be empty (or set AIRTABLE_API_KEY)")
		}
		if !isValidAbsURL(c.Store.Airtable.BaseURL) {
			ve.Add("store.airtable.base_url", "must be a valid absolute URL")
		}
		if c.Store.Airtable.RequestsPerSecond < 0 {
			ve.Add("store.airtable.requests_per_second", "must not be negative")
		}
	case DriverBolt:
		if strings.TrimSpace(c.Store.Bolt.Path) == "" {
			ve.Add("store.bolt.path", "must not be empty")
		}
		if c.Store.Bolt.Watch && strings.TrimSpace(c.Store.Bolt.SeedDir) == "" {
			ve.Add("store.bolt.seed_dir", "required when watch is on")
		}
	default:
		ve.Add("store.driver", "must be 'airtable' or 'bolt'")
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Schema)) {
	case "", "v1", "v2", "issue-number", "linked-record":
	default:
		ve.Add("store.schema", "must be 'v1' or 'v2'")
	}

	if c.Store.Timeout <= 0 || c.Store.Timeout > MaxStoreTimeout {
		ve.Add("store.timeout", "must be between 0 and 10s")
	}

	if c.Cache.TTL <= 0 {
		ve.Add("cache.ttl", "must be positive")
	}
	if c.Cache.Size < 0 {
		ve.Add("cache.size", "must not be negative")
	}
	for op, d := range c.Cache.Routes {
		if d <= 0 {
			ve.Add("cache.routes."+op, "must be positive")
		}
	}

	if strings.TrimSpace(c.Newsletter.Table) == "" {
		ve.Add("newsletter.table", "must not be empty")
	}
	if c.Newsletter.RequestsPerSecond < 0 || c.Newsletter.Burst < 0 {
		ve.Add("newsletter", "rate limits must not be negative")
	}

	switch c.Log.Mode {
	case "", "dev", "prod":
	default:
		ve.Add("log.mode", "must be 'dev' or 'prod'")
	}

	return ve.Err()
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads path over Default, applies environment overrides and validates.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// fields present in the file override defaults; the rest are kept
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and deployment knobs from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Store.Airtable.APIKey, "AIRTABLE_API_KEY")
	set(&c.Store.Airtable.BaseID, "AIRTABLE_BASE_ID")
	set(&c.Server.Addr, "INFLECTIONS_ADDR")
	set(&c.Log.Mode, "INFLECTIONS_LOG_MODE")

	var driver string
	set(&driver, "INFLECTIONS_STORE_DRIVER")
	if driver != "" {
		c.Store.Driver = Driver(strings.ToLower(driver))
	}
}
