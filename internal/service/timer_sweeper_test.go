package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTimerSweeper_SweepStopsOnlyStaleTimers(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.memberRepo.AddMember(f.userID, 2)

	stale := f.start(t, StartParams{})
	f.clock.Advance(13 * time.Hour)
	fresh, err := f.service.Start(f.userID, 2, StartParams{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sweeper := NewTimerSweeper(f.service, f.timerRepo, zerolog.Nop(), TimerSweeperConfig{
		Interval:    time.Minute,
		MaxTimerAge: 12 * time.Hour,
	}, f.clock)
	sweeper.Sweep(context.Background())

	if f.timerRepo.TimerCount() != 1 {
		t.Fatalf("Expected only the fresh timer left, got %d timers", f.timerRepo.TimerCount())
	}
	if _, err := f.timerRepo.GetByUserAndWorkspace(f.userID, 2); err != nil {
		t.Errorf("Expected fresh timer %s untouched: %v", fresh.ID, err)
	}

	entries := f.timerRepo.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry from sweep, got %d", len(entries))
	}
	entry := entries[0]
	if entry.DurationSeconds != 13*3600 {
		t.Errorf("Expected 13h duration for timer %s, got %ds", stale.ID, entry.DurationSeconds)
	}
	if entry.Description == nil || !strings.Contains(*entry.Description, "(auto-stopped)") {
		t.Errorf("Expected auto-stopped annotation, got %v", entry.Description)
	}
}

func TestTimerSweeper_SweepNoStaleTimers(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})
	f.clock.Advance(time.Hour)

	sweeper := NewTimerSweeper(f.service, f.timerRepo, zerolog.Nop(), DefaultTimerSweeperConfig(), f.clock)
	sweeper.Sweep(context.Background())

	if f.timerRepo.TimerCount() != 1 {
		t.Errorf("Expected running timer untouched, got %d timers", f.timerRepo.TimerCount())
	}
}

func TestTimerSweeper_StartStop(t *testing.T) {
	f := newTimerServiceFixture(t)
	sweeper := NewTimerSweeper(f.service, f.timerRepo, zerolog.Nop(), TimerSweeperConfig{
		Interval:    time.Hour,
		MaxTimerAge: time.Hour,
	}, f.clock)

	sweeper.Start(context.Background())
	if !sweeper.IsRunning() {
		t.Error("Expected sweeper running after Start")
	}
	// Second Start is a no-op
	sweeper.Start(context.Background())

	sweeper.Stop()
	if sweeper.IsRunning() {
		t.Error("Expected sweeper stopped after Stop")
	}
}
