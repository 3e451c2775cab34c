package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		SMTP:  SMTPConfig{BindAddress: "0.0.0.0", Port: 10025, Hostname: "smtp.example.com"},
		Store: StoreConfig{Path: "/tmp/test.db"},
		Feeds: FeedsConfig{
			Mappings: []FeedMapping{{
				DisplayName: "Test Feed",
				ToEmail:     "receiver@example.com",
				FeedName:    "test",
				FeedAuthor:  "Author",
				OriginalURL: "https://example.com",
			}},
			EntriesPerFeed: 5,
			OutputDir:      "/tmp/feeds",
		},
		Scheduler: SchedulerConfig{Enabled: true, IntervalMinutes: 15},
		Admin:     AdminConfig{Enabled: false},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.SMTP.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Store.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Feeds.EntriesPerFeed = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Feeds.Mappings[0].FeedAuthor = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Feeds.Mappings[0].OriginalURL = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Feeds.Mappings = append(cfg.Feeds.Mappings, cfg.Feeds.Mappings[0])
	assert.Error(t, cfg.Validate(), "duplicate feed names must be rejected")

	cfg = validConfig()
	cfg.Scheduler.IntervalMinutes = 0
	assert.Error(t, cfg.Validate())
	cfg.Scheduler.Enabled = false
	assert.NoError(t, cfg.Validate(), "interval is irrelevant when the scheduler is disabled")
}

func TestLoadConfigFromFile(t *testing.T) {
	raw := `{
	  "smtp": {"bind_address": "127.0.0.1", "port": 2525, "hostname": "mail.test"},
	  "store": {"path": "/var/lib/mailfeed.db"},
	  "feeds": {
	    "mappings": [{
	      "display_name": "News",
	      "to_email": "news@example.com",
	      "feed_name": "news",
	      "feed_author": "Editor",
	      "original_url": "https://news.example.com"
	    }],
	    "entries_per_feed": 10,
	    "output_dir": "/var/www/feeds"
	  },
	  "strict_parse": true
	}`

	path := filepath.Join(t.TempDir(), "mailfeed.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.SMTP.BindAddress)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "mail.test", cfg.SMTP.Hostname)
	assert.Equal(t, "/var/lib/mailfeed.db", cfg.Store.Path)
	require.Len(t, cfg.Feeds.Mappings, 1)
	assert.Equal(t, "news@example.com", cfg.Feeds.Mappings[0].ToEmail)
	assert.Equal(t, 10, cfg.Feeds.EntriesPerFeed)
	assert.True(t, cfg.StrictParse)

	// Values absent from the file keep their defaults.
	assert.Equal(t, 15, cfg.Scheduler.IntervalMinutes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.SMTP.BindAddress)
	assert.Equal(t, 10025, cfg.SMTP.Port)
	assert.Equal(t, 5, cfg.Feeds.EntriesPerFeed)
	assert.False(t, cfg.StrictParse)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
