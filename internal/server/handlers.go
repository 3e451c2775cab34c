package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"mailfeed/internal/config"
	"mailfeed/internal/feed"
	"mailfeed/internal/scheduler"
	"mailfeed/internal/store"
)

// Handlers contains all HTTP handlers for the admin surface
type Handlers struct {
	store     *store.Store
	generator *feed.Generator
	scheduler *scheduler.Scheduler
	mappings  []config.FeedMapping
}

// NewHandlers creates new HTTP handlers
func NewHandlers(s *store.Store, g *feed.Generator, sched *scheduler.Scheduler, mappings []config.FeedMapping) *Handlers {
	return &Handlers{store: s, generator: g, scheduler: sched, mappings: mappings}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/feeds", h.GetFeeds)
		api.POST("/feeds/generate", h.GenerateFeeds)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "ok"
	statusCode := http.StatusOK

	messages, err := h.store.Count()
	if err != nil {
		logrus.Errorf("Store health check failed: %v", err)
		status = "error"
		statusCode = http.StatusServiceUnavailable
	}

	schedulerState := "stopped"
	if h.scheduler != nil && h.scheduler.IsRunning() {
		schedulerState = "running"
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"messages":  messages,
		"scheduler": schedulerState,
	})
}

// GetFeeds lists the configured feed mappings
func (h *Handlers) GetFeeds(c *gin.Context) {
	type feedInfo struct {
		DisplayName string `json:"display_name"`
		ToEmail     string `json:"to_email"`
		FeedName    string `json:"feed_name"`
	}

	infos := make([]feedInfo, 0, len(h.mappings))
	for _, m := range h.mappings {
		infos = append(infos, feedInfo{
			DisplayName: m.DisplayName,
			ToEmail:     m.ToEmail,
			FeedName:    m.FeedName,
		})
	}

	c.JSON(http.StatusOK, gin.H{"feeds": infos})
}

// GenerateFeeds triggers one synthesis pass outside the scheduler
func (h *Handlers) GenerateFeeds(c *gin.Context) {
	if err := h.generator.GenerateAll(); err != nil {
		logrus.Errorf("Manual feed generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "generated"})
}
