package scheduler

import (
	"path/filepath"
	"testing"

	"mailfeed/internal/config"
	"mailfeed/internal/feed"
	"mailfeed/internal/store"
)

func newTestGenerator(t *testing.T) *feed.Generator {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	cfg := &config.FeedsConfig{EntriesPerFeed: 5, OutputDir: t.TempDir()}
	return feed.NewGenerator(s, cfg, nil)
}

func TestSchedulerRestart(t *testing.T) {
	cfg := &config.SchedulerConfig{Enabled: true, IntervalMinutes: 60}
	sched := NewScheduler(cfg, newTestGenerator(t))

	if err := sched.Start(); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if !sched.IsRunning() {
		t.Fatalf("scheduler should be running after Start")
	}
	if err := sched.Start(); err == nil {
		t.Fatalf("second Start while running should fail")
	}
	if err := sched.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if sched.IsRunning() {
		t.Fatalf("scheduler should not be running after Stop")
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if !sched.IsRunning() {
		t.Fatalf("scheduler should be running after restart")
	}
	sched.Stop()
}

func TestSchedulerStopWhenIdle(t *testing.T) {
	cfg := &config.SchedulerConfig{Enabled: true, IntervalMinutes: 60}
	sched := NewScheduler(cfg, newTestGenerator(t))

	if err := sched.Stop(); err != nil {
		t.Fatalf("stopping an idle scheduler should be a no-op, got: %v", err)
	}
}
