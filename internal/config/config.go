package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Store     StoreConfig     `mapstructure:"store"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Admin     AdminConfig     `mapstructure:"admin"`

	// StrictParse makes the server parse a message before acknowledging it,
	// rejecting unparseable payloads with a 554 instead of silently dropping
	// them after a 250.
	StrictParse bool `mapstructure:"strict_parse"`
}

// SMTPConfig holds the mail listener configuration
type SMTPConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
	Hostname    string `mapstructure:"hostname"`
}

// StoreConfig holds the message store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// FeedsConfig holds the feed synthesis configuration
type FeedsConfig struct {
	Mappings       []FeedMapping `mapstructure:"mappings"`
	EntriesPerFeed int           `mapstructure:"entries_per_feed"`
	OutputDir      string        `mapstructure:"output_dir"`
}

// FeedMapping binds one recipient address to one output feed's identity.
// Loaded once and treated as immutable for the lifetime of a run.
type FeedMapping struct {
	DisplayName string `mapstructure:"display_name"`
	ToEmail     string `mapstructure:"to_email"`
	FeedName    string `mapstructure:"feed_name"`
	FeedAuthor  string `mapstructure:"feed_author"`
	OriginalURL string `mapstructure:"original_url"`
}

// SchedulerConfig holds the periodic feed regeneration configuration
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// AdminConfig holds the admin HTTP server configuration
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// LoadConfig loads configuration from the given JSON file (or the default
// search path when path is empty), with environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mailfeed")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("smtp.bind_address", "0.0.0.0")
	v.SetDefault("smtp.port", 10025)
	v.SetDefault("smtp.hostname", "smtp.example.com")

	v.SetDefault("store.path", "/tmp/mailfeed.db")

	v.SetDefault("feeds.entries_per_feed", 5)
	v.SetDefault("feeds.output_dir", "/tmp/mailfeed/")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_minutes", 15)

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.port", "8080")

	v.SetDefault("strict_parse", false)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("smtp.bind_address", "MAILFEED_BIND_ADDRESS")
	v.BindEnv("smtp.port", "MAILFEED_PORT")
	v.BindEnv("smtp.hostname", "MAILFEED_HOSTNAME")

	v.BindEnv("store.path", "MAILFEED_STORE_PATH")

	v.BindEnv("feeds.entries_per_feed", "MAILFEED_ENTRIES_PER_FEED")
	v.BindEnv("feeds.output_dir", "MAILFEED_FEED_OUTPUT_DIR")

	v.BindEnv("scheduler.enabled", "MAILFEED_SCHEDULER_ENABLED")
	v.BindEnv("scheduler.interval_minutes", "MAILFEED_SCHEDULER_INTERVAL")

	v.BindEnv("admin.enabled", "MAILFEED_ADMIN_ENABLED")
	v.BindEnv("admin.port", "MAILFEED_ADMIN_PORT")

	v.BindEnv("strict_parse", "MAILFEED_STRICT_PARSE")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SMTP.BindAddress == "" {
		return fmt.Errorf("smtp bind address is required")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port must be between 1 and 65535")
	}
	if c.SMTP.Hostname == "" {
		return fmt.Errorf("smtp hostname is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Feeds.EntriesPerFeed <= 0 {
		return fmt.Errorf("entries per feed must be positive")
	}
	if c.Feeds.OutputDir == "" {
		return fmt.Errorf("feed output directory is required")
	}

	seen := make(map[string]bool, len(c.Feeds.Mappings))
	for i, m := range c.Feeds.Mappings {
		if m.DisplayName == "" || m.ToEmail == "" || m.FeedName == "" || m.FeedAuthor == "" || m.OriginalURL == "" {
			return fmt.Errorf("feed mapping %d is incomplete", i)
		}
		if seen[m.FeedName] {
			return fmt.Errorf("duplicate feed name: %s", m.FeedName)
		}
		seen[m.FeedName] = true
	}

	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	if c.Admin.Enabled && c.Admin.Port == "" {
		return fmt.Errorf("admin port is required when the admin server is enabled")
	}

	return nil
}
