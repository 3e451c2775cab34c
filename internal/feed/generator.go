package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"
	"github.com/sirupsen/logrus"

	"mailfeed/internal/config"
	"mailfeed/internal/metrics"
	"mailfeed/internal/store"
)

// Generator synthesizes one RSS document per configured feed mapping from
// the deduplicated store contents.
type Generator struct {
	store   *store.Store
	cfg     *config.FeedsConfig
	metrics *metrics.Metrics
}

func NewGenerator(s *store.Store, cfg *config.FeedsConfig, m *metrics.Metrics) *Generator {
	return &Generator{store: s, cfg: cfg, metrics: m}
}

// GenerateAll writes one feed file per mapping. A failure on one mapping is
// logged and does not abort the others; its previous output, if any, is left
// in place. Only a failure to create the output directory aborts the run.
func (g *Generator) GenerateAll() error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create feed output directory: %w", err)
	}

	for i := range g.cfg.Mappings {
		mapping := &g.cfg.Mappings[i]
		if err := g.generate(mapping); err != nil {
			logrus.Errorf("Failed to generate feed %s: %v", mapping.FeedName, err)
			if g.metrics != nil {
				g.metrics.FeedFailures.Inc()
			}
			continue
		}
		if g.metrics != nil {
			g.metrics.FeedsWritten.Inc()
		}
	}

	return nil
}

func (g *Generator) generate(mapping *config.FeedMapping) error {
	emails, err := g.store.LatestPerSubject(mapping.ToEmail, g.cfg.EntriesPerFeed)
	if err != nil {
		return err
	}

	f := &feeds.Feed{
		Title:       mapping.DisplayName,
		Link:        &feeds.Link{Href: mapping.OriginalURL},
		Description: fmt.Sprintf("Email feed for %s", mapping.DisplayName),
		Created:     time.Now(),
	}

	for _, email := range emails {
		f.Items = append(f.Items, &feeds.Item{
			Title:       email.Subject,
			Link:        &feeds.Link{Href: mapping.OriginalURL},
			Description: email.Content,
			Content:     email.Content,
			Author:      &feeds.Author{Name: mapping.FeedAuthor},
			Created:     email.ReceivedAt,
		})
	}

	rss, err := f.ToRss()
	if err != nil {
		return fmt.Errorf("failed to render feed: %w", err)
	}

	path := filepath.Join(g.cfg.OutputDir, mapping.FeedName+".xml")
	if err := os.WriteFile(path, []byte(rss), 0o644); err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}

	logrus.Infof("Wrote feed %s with %d items to %s", mapping.FeedName, len(f.Items), path)
	return nil
}
