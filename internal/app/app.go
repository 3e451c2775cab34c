package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"mailfeed/internal/config"
	"mailfeed/internal/feed"
	"mailfeed/internal/metrics"
	"mailfeed/internal/scheduler"
	"mailfeed/internal/server"
	"mailfeed/internal/smtp"
	"mailfeed/internal/store"
)

func setupLogging(debug bool) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Serve runs the mail server until SIGINT/SIGTERM. In debug mode no store is
// opened: received messages are logged by the debug handler and discarded,
// and neither the feed scheduler nor the admin server runs.
func Serve(cfgPath string, debug bool) error {
	setupLogging(debug)
	logrus.Info("Starting mailfeed server")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m := metrics.NewMetrics()

	var handler smtp.Handler
	var st *store.Store
	if debug {
		handler = smtp.DebugHandler{}
		logrus.Info("Debug mode: messages are logged, not stored")
	} else {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		handler = smtp.NewStoreHandler(st)
	}

	srv := smtp.NewServer(cfg, handler, m)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logrus.Fatalf("Mail server error: %v", err)
		}
	}()

	var sched *scheduler.Scheduler
	var adminSrv *http.Server
	if st != nil {
		generator := feed.NewGenerator(st, &cfg.Feeds, m)

		if cfg.Scheduler.Enabled {
			sched = scheduler.NewScheduler(&cfg.Scheduler, generator)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
		}

		if cfg.Admin.Enabled {
			handlers := server.NewHandlers(st, generator, sched, cfg.Feeds.Mappings)
			router := server.SetupRouter(handlers)
			adminSrv = &http.Server{
				Addr:    ":" + cfg.Admin.Port,
				Handler: router,
			}
			go func() {
				logrus.Infof("Starting admin server on port %s", cfg.Admin.Port)
				if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logrus.Fatalf("Admin server error: %v", err)
				}
			}()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			logrus.Errorf("Failed to stop scheduler: %v", err)
		}
		sched.Wait()
	}

	if err := srv.Close(); err != nil {
		logrus.Errorf("Mail server shutdown error: %v", err)
	}

	if adminSrv != nil {
		if err := adminSrv.Shutdown(ctx); err != nil {
			logrus.Errorf("Admin server shutdown error: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// Generate runs one feed synthesis pass and exits.
func Generate(cfgPath string, debug bool) error {
	setupLogging(debug)

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	generator := feed.NewGenerator(st, &cfg.Feeds, nil)
	if err := generator.GenerateAll(); err != nil {
		return fmt.Errorf("feed generation failed: %w", err)
	}
	return nil
}
